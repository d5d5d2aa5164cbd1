package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS processed_messages (
			message_id TEXT PRIMARY KEY,
			sender TEXT NOT NULL,
			category TEXT NOT NULL,
			processed_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_expires_at ON processed_messages(expires_at)`,
	},
	upsert: `INSERT OR REPLACE INTO processed_messages (message_id, sender, category, processed_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
}

// NewSQLiteLedger opens (and if needed creates) a SQLite ledger at dbPath
func NewSQLiteLedger(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLLedger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// Single writer
	db.SetMaxOpenConns(1)

	return newSQLLedger(db, sqliteDialect, logger, cleanupFreq)
}
