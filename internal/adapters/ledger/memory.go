// Package ledger records which inbound messages have been processed so a
// message is handled once even if marking it read failed.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// MemoryLedger is an in-memory implementation of core.Ledger
type MemoryLedger struct {
	entries map[string]core.LedgerEntry
	mu      sync.RWMutex
	logger  *zap.Logger
	now     func() time.Time
	cleaner *cleaner
}

// NewMemoryLedger creates a new in-memory ledger. A positive cleanupFreq
// starts a background cleanup task.
func NewMemoryLedger(logger *zap.Logger, cleanupFreq time.Duration) *MemoryLedger {
	l := &MemoryLedger{
		entries: make(map[string]core.LedgerEntry),
		logger:  logger,
		now:     time.Now,
	}
	l.cleaner = startCleaner(l, cleanupFreq, logger)
	return l
}

// Seen reports whether messageID is recorded and not expired
func (l *MemoryLedger) Seen(_ context.Context, messageID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[messageID]
	if !ok {
		return false, nil
	}
	return l.now().Before(entry.ExpiresAt), nil
}

// Record stores entry, replacing any previous entry for the same message
func (l *MemoryLedger) Record(_ context.Context, entry *core.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[entry.MessageID] = *entry
	return nil
}

// Cleanup removes expired entries
func (l *MemoryLedger) Cleanup(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	expiredCount := 0
	for id, entry := range l.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(l.entries, id)
			expiredCount++
		}
	}

	l.logger.Debug("Cleaned up expired ledger entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Stop stops the background cleanup task
func (l *MemoryLedger) Stop() {
	l.cleaner.stop()
}

// cleaner periodically calls Cleanup until stopped
type cleaner struct {
	stopCh chan struct{}
	once   sync.Once
}

func startCleaner(l core.Ledger, freq time.Duration, logger *zap.Logger) *cleaner {
	c := &cleaner{stopCh: make(chan struct{})}
	if freq <= 0 {
		return c
	}

	go func() {
		ticker := time.NewTicker(freq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := l.Cleanup(context.Background()); err != nil {
					logger.Error("Failed to clean up ledger", zap.Error(err))
				}
			case <-c.stopCh:
				return
			}
		}
	}()
	return c
}

func (c *cleaner) stop() {
	c.once.Do(func() { close(c.stopCh) })
}
