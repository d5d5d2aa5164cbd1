package core

import (
	"time"
)

// Message represents an inbound email message
type Message struct {
	ID         string
	From       string
	To         []string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// ComplaintStatus is the lifecycle state of a complaint
type ComplaintStatus string

const (
	ComplaintOpen   ComplaintStatus = "open"
	ComplaintClosed ComplaintStatus = "closed"
)

// Complaint is a logged customer complaint. Its identity is its position
// in the complaint store.
type Complaint struct {
	From    string          `json:"from"`
	Subject string          `json:"subject"`
	Body    string          `json:"body"`
	Status  ComplaintStatus `json:"status"`
}

// Quote is a price quote sent to a customer
type Quote struct {
	Customer   string         `json:"customer"`
	Subject    string         `json:"subject"`
	Products   map[string]int `json:"products"`
	CreatedAt  time.Time      `json:"date"`
	FollowedUp bool           `json:"followed_up"`
}

// Role identifies who wrote a conversation entry
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// ConversationEntry is a single message in a customer's conversation history
type ConversationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
}

// HandlerResult is what a fulfillment handler hands back to the dispatcher
type HandlerResult struct {
	Category     Category
	Summary      string
	ReplySubject string
	ReplyBody    string
	SideEffects  []string
	Diagnostics  []string
}

// HasReply reports whether the result carries a reply to deliver
func (r *HandlerResult) HasReply() bool {
	return r != nil && r.ReplyBody != ""
}

// LedgerEntry records that an inbound message has been processed
type LedgerEntry struct {
	MessageID   string
	Sender      string
	Category    Category
	ProcessedAt time.Time
	ExpiresAt   time.Time
}
