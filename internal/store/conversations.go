package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// ConversationStore keeps per-customer conversation history as a JSON object
// keyed by customer address
type ConversationStore struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewConversationStore creates a conversation store backed by path
func NewConversationStore(path string, logger *zap.Logger) *ConversationStore {
	return &ConversationStore{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the backing file
func (s *ConversationStore) Path() string {
	return s.path
}

// Append adds an entry to the end of the customer's history
func (s *ConversationStore) Append(customer string, role core.Role, subject, message string) (core.ConversationEntry, error) {
	if role != core.RoleCustomer && role != core.RoleAgent {
		return core.ConversationEntry{}, fmt.Errorf("invalid conversation role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.load()
	if err != nil {
		return core.ConversationEntry{}, err
	}

	entry := core.ConversationEntry{
		Timestamp: s.now(),
		Role:      role,
		Subject:   subject,
		Message:   message,
	}
	conversations[customer] = append(conversations[customer], entry)

	if err := s.save(conversations); err != nil {
		return core.ConversationEntry{}, err
	}
	return entry, nil
}

// Recent returns the n most recent entries for customer, oldest first.
// n <= 0 returns the whole history.
func (s *ConversationStore) Recent(customer string, n int) ([]core.ConversationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.load()
	if err != nil {
		return nil, err
	}

	history := conversations[customer]
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]core.ConversationEntry, len(history))
	copy(out, history)
	return out, nil
}

// Customers returns every customer with stored history, sorted
func (s *ConversationStore) Customers() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.load()
	if err != nil {
		return nil, err
	}
	customers := make([]string, 0, len(conversations))
	for c := range conversations {
		customers = append(customers, c)
	}
	sort.Strings(customers)
	return customers, nil
}

// Clear removes the history of one customer. It reports whether there was
// anything to remove.
func (s *ConversationStore) Clear(customer string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.load()
	if err != nil {
		return false, err
	}
	if _, ok := conversations[customer]; !ok {
		return false, nil
	}
	delete(conversations, customer)
	if err := s.save(conversations); err != nil {
		return false, err
	}

	s.logger.Info("Cleared conversation history", zap.String("customer", customer))
	return true, nil
}

// ClearAll removes every customer's history
func (s *ConversationStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(map[string][]core.ConversationEntry{}); err != nil {
		return err
	}
	s.logger.Info("Cleared all conversation history")
	return nil
}

// FormatHistory renders entries as a context block for a prompt. Each
// message is cut to maxChars runes. It returns "" for an empty history.
func FormatHistory(entries []core.ConversationEntry, maxChars int) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("=== PREVIOUS CONVERSATION WITH THIS CUSTOMER ===\n")
	for _, e := range entries {
		who := "CUSTOMER"
		if e.Role == core.RoleAgent {
			who = "US"
		}
		subject := ""
		if e.Subject != "" {
			subject = " [" + e.Subject + "]"
		}
		fmt.Fprintf(&b, "\n[%s] %s%s:\n", e.Timestamp.Format("2006-01-02 15:04"), who, subject)
		b.WriteString(truncateRunes(e.Message, maxChars))
		b.WriteString("\n")
	}
	b.WriteString("\n=== END OF HISTORY ===\n")
	return b.String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func (s *ConversationStore) load() (map[string][]core.ConversationEntry, error) {
	data, ok, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	if !ok || isBlank(data) {
		return map[string][]core.ConversationEntry{}, nil
	}

	var conversations map[string][]core.ConversationEntry
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, &ParseError{Path: s.path, Err: err}
	}
	if conversations == nil {
		conversations = map[string][]core.ConversationEntry{}
	}

	for customer, entries := range conversations {
		for i, e := range entries {
			if e.Role != core.RoleCustomer && e.Role != core.RoleAgent {
				return nil, &ParseError{
					Path: s.path,
					Err:  fmt.Errorf("entry %d for %s has unknown role %q", i, customer, e.Role),
				}
			}
		}
	}
	return conversations, nil
}

func (s *ConversationStore) save(conversations map[string][]core.ConversationEntry) error {
	data, err := marshal(conversations, true)
	if err != nil {
		return fmt.Errorf("failed to encode conversations: %w", err)
	}
	return writeFileAtomic(s.path, data)
}
