// Package inbox provides in-process mail transports: an in-memory inbox, a
// sender that records instead of delivering, and a demo inbox.
package inbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// MemoryInbox holds delivered messages until they are marked read
type MemoryInbox struct {
	mu       sync.Mutex
	messages []core.Message
	read     map[string]bool
	logger   *zap.Logger
	now      func() time.Time
}

// NewMemoryInbox creates an empty inbox
func NewMemoryInbox(logger *zap.Logger) *MemoryInbox {
	return &MemoryInbox{
		read:   make(map[string]bool),
		logger: logger,
		now:    time.Now,
	}
}

// Deliver appends a message and returns its id. Messages without an id get
// a random one; a zero ReceivedAt is set to the delivery time.
func (m *MemoryInbox) Deliver(msg core.Message) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = m.now()
	}
	m.messages = append(m.messages, msg)

	m.logger.Debug("Message delivered",
		zap.String("message_id", msg.ID),
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject))
	return msg.ID
}

// ListUnread returns the unread messages in delivery order
func (m *MemoryInbox) ListUnread(ctx context.Context) ([]core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var unread []core.Message
	for _, msg := range m.messages {
		if !m.read[msg.ID] {
			unread = append(unread, msg)
		}
	}
	return unread, nil
}

// MarkRead marks a message as read
func (m *MemoryInbox) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range m.messages {
		if msg.ID == id {
			m.read[id] = true
			return nil
		}
	}
	return fmt.Errorf("message %q not found", id)
}

// Len returns the number of messages ever delivered
func (m *MemoryInbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
