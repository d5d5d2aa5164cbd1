// Package gcal books meetings in Google Calendar
package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/llm-mail-triage/internal/adapters/googleauth"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrDisabled is returned by Disabled.CreateEvent
var ErrDisabled = errors.New("calendar integration is disabled")

// Scopes are the OAuth scopes the calendar needs
var Scopes = []string{calendarapi.CalendarEventsScope}

// Calendar creates events in one Google calendar
type Calendar struct {
	svc        *calendarapi.Service
	calendarID string
	loc        *time.Location
	logger     *zap.Logger
}

var _ core.Calendar = (*Calendar)(nil)

// New creates a calendar around an existing service
func New(svc *calendarapi.Service, calendarID string, loc *time.Location, logger *zap.Logger) *Calendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{
		svc:        svc,
		calendarID: calendarID,
		loc:        loc,
		logger:     logger,
	}
}

// NewFromFiles authorizes with the saved OAuth token and creates a calendar
func NewFromFiles(ctx context.Context, cfg config.CalendarConfig, logger *zap.Logger) (*Calendar, error) {
	client, err := googleauth.Client(ctx, cfg.CredentialsFile, cfg.TokenFile, Scopes...)
	if err != nil {
		return nil, err
	}
	svc, err := calendarapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return New(svc, cfg.CalendarID, cfg.Location, logger), nil
}

// CreateEvent inserts an event and returns its web link
func (c *Calendar) CreateEvent(ctx context.Context, title, description string, start time.Time, durationMinutes int) (string, error) {
	if durationMinutes <= 0 {
		return "", fmt.Errorf("invalid meeting duration %d", durationMinutes)
	}
	start = start.In(c.loc)
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	event := &calendarapi.Event{
		Summary:     title,
		Description: description,
		Start: &calendarapi.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		End: &calendarapi.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}

	c.logger.Info("Calendar event created",
		zap.String("event_id", created.Id),
		zap.String("title", title),
		zap.Time("start", start))
	return created.HtmlLink, nil
}

// Disabled is the calendar used when no calendar backend is configured
type Disabled struct{}

var _ core.Calendar = Disabled{}

// CreateEvent always fails with ErrDisabled
func (Disabled) CreateEvent(context.Context, string, string, time.Time, int) (string, error) {
	return "", ErrDisabled
}
