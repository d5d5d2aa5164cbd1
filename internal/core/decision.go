package core

import (
	"context"
	"fmt"
	"strings"
)

// Category is the label a classification decision carries
type Category string

const (
	CategorySupport  Category = "support"
	CategorySales    Category = "sales"
	CategoryEstimate Category = "estimate"
	CategoryMeeting  Category = "meeting"
	CategoryOther    Category = "other"
)

// Categories lists every category in routing order
var Categories = []Category{
	CategorySupport,
	CategorySales,
	CategoryEstimate,
	CategoryMeeting,
	CategoryOther,
}

// ParseCategory maps a label to a Category. Unknown labels are reported
// with ok=false so the caller can fall back to CategoryOther.
func ParseCategory(label string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(label))) {
	case CategorySupport:
		return CategorySupport, true
	case CategorySales:
		return CategorySales, true
	case CategoryEstimate:
		return CategoryEstimate, true
	case CategoryMeeting:
		return CategoryMeeting, true
	case CategoryOther:
		return CategoryOther, true
	default:
		return CategoryOther, false
	}
}

// Decision is the result of classifying a message. The set of decisions is
// closed: only the types in this package implement it.
type Decision interface {
	Category() Category
	route(ctx context.Context, msg *Message, r Router) (*HandlerResult, error)
}

// Router handles each kind of decision. Adding a decision kind adds a method
// here, so every router has to handle it before the code compiles.
type Router interface {
	RouteSupport(ctx context.Context, msg *Message, d SupportDecision) (*HandlerResult, error)
	RouteSales(ctx context.Context, msg *Message, d SalesDecision) (*HandlerResult, error)
	RouteEstimate(ctx context.Context, msg *Message, d EstimateDecision) (*HandlerResult, error)
	RouteMeeting(ctx context.Context, msg *Message, d MeetingDecision) (*HandlerResult, error)
	RouteOther(ctx context.Context, msg *Message, d OtherDecision) (*HandlerResult, error)
}

// Route sends msg to the router method matching the decision
func Route(ctx context.Context, msg *Message, d Decision, r Router) (*HandlerResult, error) {
	if d == nil {
		return nil, fmt.Errorf("nil decision for message %q", msg.ID)
	}
	return d.route(ctx, msg, r)
}

// SupportDecision routes a complaint
type SupportDecision struct{}

func (SupportDecision) Category() Category { return CategorySupport }

func (d SupportDecision) route(ctx context.Context, msg *Message, r Router) (*HandlerResult, error) {
	return r.RouteSupport(ctx, msg, d)
}

// SalesDecision routes a quote request. Products is the product hint the
// classifier extracted, possibly empty.
type SalesDecision struct {
	Products map[string]int
}

func (SalesDecision) Category() Category { return CategorySales }

func (d SalesDecision) route(ctx context.Context, msg *Message, r Router) (*HandlerResult, error) {
	return r.RouteSales(ctx, msg, d)
}

// EstimateDecision routes a material estimate request
type EstimateDecision struct {
	ProjectDescription string
}

func (EstimateDecision) Category() Category { return CategoryEstimate }

func (d EstimateDecision) route(ctx context.Context, msg *Message, r Router) (*HandlerResult, error) {
	return r.RouteEstimate(ctx, msg, d)
}

// MeetingDecision routes a meeting request. Time is the ISO-8601 timestamp
// as extracted, empty when the customer gave none.
type MeetingDecision struct {
	Time string
}

func (MeetingDecision) Category() Category { return CategoryMeeting }

func (d MeetingDecision) route(ctx context.Context, msg *Message, r Router) (*HandlerResult, error) {
	return r.RouteMeeting(ctx, msg, d)
}

// OtherDecision routes anything that needs no automated fulfillment
type OtherDecision struct{}

func (OtherDecision) Category() Category { return CategoryOther }

func (d OtherDecision) route(ctx context.Context, msg *Message, r Router) (*HandlerResult, error) {
	return r.RouteOther(ctx, msg, d)
}
