package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS processed_messages (
			message_id VARCHAR(255) PRIMARY KEY,
			sender VARCHAR(255) NOT NULL,
			category VARCHAR(32) NOT NULL,
			processed_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_processed_expires_at (expires_at)
		)`,
	},
	upsert: `INSERT INTO processed_messages (message_id, sender, category, processed_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			sender = VALUES(sender),
			category = VALUES(category),
			processed_at = VALUES(processed_at),
			expires_at = VALUES(expires_at)`,
}

// NewMySQLLedger connects to a MySQL ledger
func NewMySQLLedger(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLLedger, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create MySQL connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	logger.Info("Connected to MySQL ledger",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.DBName))
	return newSQLLedger(db, mysqlDialect, logger, cleanupFreq)
}
