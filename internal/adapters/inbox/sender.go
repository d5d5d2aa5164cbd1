package inbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// SentMail is a message handed to a RecordingSender
type SentMail struct {
	ID      string
	To      string
	Subject string
	Body    string
	SentAt  time.Time
}

// RecordingSender logs outgoing mail and keeps it in memory
type RecordingSender struct {
	mu     sync.Mutex
	sent   []SentMail
	logger *zap.Logger
}

// NewRecordingSender creates a sender that never leaves the process
func NewRecordingSender(logger *zap.Logger) *RecordingSender {
	return &RecordingSender{logger: logger}
}

// Send records the message
func (s *RecordingSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := SentMail{
		ID:      uuid.NewString(),
		To:      to,
		Subject: subject,
		Body:    body,
		SentAt:  time.Now(),
	}

	s.mu.Lock()
	s.sent = append(s.sent, mail)
	s.mu.Unlock()

	s.logger.Info("Mail recorded",
		zap.String("id", mail.ID),
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

// Sent returns a copy of everything sent so far
func (s *RecordingSender) Sent() []SentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMail(nil), s.sent...)
}

// Transport joins a MemoryInbox with a sender
type Transport struct {
	*MemoryInbox
	core.Sender
}

var _ core.MailTransport = (*Transport)(nil)

// NewStubTransport creates an empty in-memory transport with a recording sender
func NewStubTransport(logger *zap.Logger) *Transport {
	return &Transport{
		MemoryInbox: NewMemoryInbox(logger),
		Sender:      NewRecordingSender(logger),
	}
}
