package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

type testLedger interface {
	core.Ledger
	Stop()
}

// exercise runs the shared ledger contract against l, whose clock is
// controlled through setNow
func exercise(t *testing.T, l testLedger, setNow func(time.Time)) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	setNow(base)

	seen, err := l.Seen(ctx, "m1")
	if err != nil || seen {
		t.Fatalf("Seen before Record = %v, %v", seen, err)
	}

	entry := &core.LedgerEntry{
		MessageID:   "m1",
		Sender:      "anna@example.se",
		Category:    core.CategorySales,
		ProcessedAt: base,
		ExpiresAt:   base.Add(time.Hour),
	}
	if err := l.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Recording twice replaces the entry
	if err := l.Record(ctx, entry); err != nil {
		t.Fatalf("second Record: %v", err)
	}

	if seen, err := l.Seen(ctx, "m1"); err != nil || !seen {
		t.Errorf("Seen after Record = %v, %v", seen, err)
	}

	setNow(base.Add(2 * time.Hour))
	if seen, err := l.Seen(ctx, "m1"); err != nil || seen {
		t.Errorf("Seen after expiry = %v, %v", seen, err)
	}
	if err := l.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	setNow(base)
	if seen, _ := l.Seen(ctx, "m1"); seen {
		t.Error("entry survived Cleanup")
	}
}

func TestMemoryLedger(t *testing.T) {
	t.Parallel()

	l := NewMemoryLedger(zap.NewNop(), 0)
	defer l.Stop()
	exercise(t, l, func(now time.Time) { l.now = func() time.Time { return now } })
}

func TestSQLiteLedger(t *testing.T) {
	t.Parallel()

	l, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "data", "ledger.db"), zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("NewSQLiteLedger: %v", err)
	}
	defer l.Stop()
	exercise(t, l, func(now time.Time) { l.now = func() time.Time { return now } })
}

func TestMySQLLedger(t *testing.T) {
	dsn := os.Getenv("MAIL_TRIAGE_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("MAIL_TRIAGE_TEST_MYSQL_DSN not set")
	}

	l, err := NewMySQLLedger(dsn, zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("NewMySQLLedger: %v", err)
	}
	defer l.Stop()
	exercise(t, l, func(now time.Time) { l.now = func() time.Time { return now } })
}

func TestNewMySQLLedger_InvalidDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewMySQLLedger("not a dsn", zap.NewNop(), 0); err == nil {
		t.Error("NewMySQLLedger accepted an invalid DSN")
	}
}

func TestStopTwice(t *testing.T) {
	t.Parallel()

	l := NewMemoryLedger(zap.NewNop(), time.Hour)
	l.Stop()
	l.Stop()
}
