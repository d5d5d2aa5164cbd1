// Package handlers implements the fulfillment handlers behind each
// classification decision. Handlers perform their side effects (store
// writes, calendar bookings) and hand a reply back to the caller; they
// never send mail themselves.
package handlers

import (
	"context"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// ComplaintLog is the part of the complaint store the handlers need
type ComplaintLog interface {
	Log(msg *core.Message) (core.Complaint, int, error)
}

// QuoteLog is the part of the quote store the handlers need
type QuoteLog interface {
	Append(q core.Quote) (int, error)
}

// ConversationLog is the part of the conversation store the handlers need
type ConversationLog interface {
	Append(customer string, role core.Role, subject, message string) (core.ConversationEntry, error)
	Recent(customer string, n int) ([]core.ConversationEntry, error)
}

// Options holds settings shared by the handlers
type Options struct {
	BusinessName          string
	StructuredTemperature float32
	TextTemperature       float32
	HistorySize           int
	MaxMessageChars       int
	ReplyToOther          bool
	AutoPromote           bool
	MeetingDuration       int
	Location              *time.Location
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.MeetingDuration <= 0 {
		o.MeetingDuration = 60
	}
	if o.HistorySize <= 0 {
		o.HistorySize = 5
	}
	if o.MaxMessageChars <= 0 {
		o.MaxMessageChars = 500
	}
	return o
}

// Router dispatches decisions to the matching handler
type Router struct {
	Complaint *ComplaintHandler
	Sales     *SalesHandler
	Estimate  *EstimateHandler
	Meeting   *MeetingHandler
	Other     *OtherHandler
}

var _ core.Router = (*Router)(nil)

// NewRouter creates a router over the given handlers
func NewRouter(complaint *ComplaintHandler, sales *SalesHandler, estimate *EstimateHandler, meeting *MeetingHandler, other *OtherHandler) *Router {
	return &Router{
		Complaint: complaint,
		Sales:     sales,
		Estimate:  estimate,
		Meeting:   meeting,
		Other:     other,
	}
}

func (r *Router) RouteSupport(ctx context.Context, msg *core.Message, _ core.SupportDecision) (*core.HandlerResult, error) {
	return r.Complaint.Handle(ctx, msg)
}

func (r *Router) RouteSales(ctx context.Context, msg *core.Message, d core.SalesDecision) (*core.HandlerResult, error) {
	return r.Sales.Handle(ctx, msg, d)
}

func (r *Router) RouteEstimate(ctx context.Context, msg *core.Message, d core.EstimateDecision) (*core.HandlerResult, error) {
	return r.Estimate.Handle(ctx, msg, d)
}

func (r *Router) RouteMeeting(ctx context.Context, msg *core.Message, d core.MeetingDecision) (*core.HandlerResult, error) {
	return r.Meeting.Handle(ctx, msg, d)
}

func (r *Router) RouteOther(ctx context.Context, msg *core.Message, _ core.OtherDecision) (*core.HandlerResult, error) {
	return r.Other.Handle(ctx, msg)
}
