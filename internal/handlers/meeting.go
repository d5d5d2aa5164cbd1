package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/senderfilter"
	"go.uber.org/zap"
)

// ErrNoMeetingTime is returned when a meeting request carries no usable time
var ErrNoMeetingTime = errors.New("no meeting time given")

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseMeetingTime parses an ISO-8601 time. Values without an offset are
// interpreted in loc.
func ParseMeetingTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrNoMeetingTime
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized meeting time %q", value)
}

// MeetingHandler books meetings in the calendar
type MeetingHandler struct {
	calendar core.Calendar
	opts     Options
	logger   *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(calendar core.Calendar, opts Options, logger *zap.Logger) *MeetingHandler {
	return &MeetingHandler{
		calendar: calendar,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Handle books the requested time. Without a usable time the customer is
// asked for one; a booking failure is acknowledged as pending.
func (h *MeetingHandler) Handle(ctx context.Context, msg *core.Message, d core.MeetingDecision) (*core.HandlerResult, error) {
	customer := senderfilter.Address(msg.From)
	result := &core.HandlerResult{
		Category:     core.CategoryMeeting,
		ReplySubject: meetingSubjectPrefix + msg.Subject,
	}

	start, err := ParseMeetingTime(d.Time, h.opts.Location)
	if err != nil {
		result.ReplyBody = meetingAskForTime(h.opts.BusinessName)
		result.Summary = fmt.Sprintf("meeting request from %s without a usable time", customer)
		if !errors.Is(err, ErrNoMeetingTime) {
			result.Diagnostics = append(result.Diagnostics, err.Error())
		}
		return result, nil
	}

	title := "Möte: " + msg.Subject
	description := fmt.Sprintf("Från: %s\n\n%s", msg.From, msg.Body)
	link, err := h.Book(ctx, title, description, start, h.opts.MeetingDuration)
	if err != nil {
		result.ReplyBody = meetingPending(h.opts.BusinessName)
		result.Summary = fmt.Sprintf("meeting with %s at %s pending: %v", customer, start.Format(time.RFC3339), err)
		result.Diagnostics = append(result.Diagnostics, err.Error())
		return result, nil
	}

	result.ReplyBody = meetingBooked(h.opts.BusinessName, start, h.opts.MeetingDuration)
	result.SideEffects = append(result.SideEffects, "calendar event created: "+link)
	result.Summary = fmt.Sprintf("meeting with %s booked at %s", customer, start.Format(time.RFC3339))
	return result, nil
}

// Book creates a calendar event and returns its reference
func (h *MeetingHandler) Book(ctx context.Context, title, description string, start time.Time, durationMinutes int) (string, error) {
	if durationMinutes <= 0 {
		durationMinutes = h.opts.MeetingDuration
	}
	link, err := h.calendar.CreateEvent(ctx, title, description, start, durationMinutes)
	if err != nil {
		h.logger.Error("Failed to create calendar event",
			zap.String("title", title),
			zap.Time("start", start),
			zap.Error(err))
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}
	h.logger.Info("Calendar event created",
		zap.String("title", title),
		zap.Time("start", start),
		zap.String("link", link))
	return link, nil
}
