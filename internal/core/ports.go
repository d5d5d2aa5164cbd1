package core

import (
	"context"
	"time"
)

// Oracle is the text generation backend
type Oracle interface {
	// Generate returns the raw text the model produced for prompt
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Inbox is a pull-based source of unread messages
type Inbox interface {
	// ListUnread returns the current batch of unread messages in arrival order
	ListUnread(ctx context.Context) ([]Message, error)

	// MarkRead removes a message from the unread set
	MarkRead(ctx context.Context, id string) error
}

// Sender delivers outgoing mail
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailTransport combines an inbox with a sender
type MailTransport interface {
	Inbox
	Sender
}

// Calendar books meetings
type Calendar interface {
	// CreateEvent books an event and returns a reference to it (usually a link)
	CreateEvent(ctx context.Context, title, description string, start time.Time, durationMinutes int) (string, error)
}

// Ledger remembers which inbound messages have already been processed
type Ledger interface {
	// Seen reports whether messageID has been processed and not yet expired
	Seen(ctx context.Context, messageID string) (bool, error)

	// Record stores a processed message
	Record(ctx context.Context, entry *LedgerEntry) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
