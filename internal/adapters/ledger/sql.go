package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// dialect holds the statements that differ between database engines
type dialect struct {
	name   string
	schema []string
	upsert string
}

// SQLLedger is a core.Ledger stored in a SQL database. Times are kept as
// unix seconds so expiry comparisons do not depend on engine date functions.
type SQLLedger struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
	now     func() time.Time
	cleaner *cleaner
}

func newSQLLedger(db *sql.DB, d dialect, logger *zap.Logger, cleanupFreq time.Duration) (*SQLLedger, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create %s schema: %w", d.name, err)
		}
	}

	l := &SQLLedger{
		db:      db,
		dialect: d,
		logger:  logger,
		now:     time.Now,
	}
	l.cleaner = startCleaner(l, cleanupFreq, logger)
	return l, nil
}

// Seen reports whether messageID is recorded and not expired
func (l *SQLLedger) Seen(ctx context.Context, messageID string) (bool, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM processed_messages
		WHERE message_id = ? AND expires_at > ?
	`, messageID, l.now().Unix()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return count > 0, nil
}

// Record stores entry, replacing any previous entry for the same message
func (l *SQLLedger) Record(ctx context.Context, entry *core.LedgerEntry) error {
	_, err := l.db.ExecContext(ctx, l.dialect.upsert,
		entry.MessageID,
		entry.Sender,
		string(entry.Category),
		entry.ProcessedAt.Unix(),
		entry.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (l *SQLLedger) Cleanup(ctx context.Context) error {
	result, err := l.db.ExecContext(ctx, `
		DELETE FROM processed_messages
		WHERE expires_at <= ?
	`, l.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		l.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		l.logger.Debug("Cleaned up expired ledger entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Stop stops the background cleanup task and closes the database connection
func (l *SQLLedger) Stop() {
	l.cleaner.stop()
	if err := l.db.Close(); err != nil {
		l.logger.Error("Failed to close ledger database", zap.String("engine", l.dialect.name), zap.Error(err))
	}
}
