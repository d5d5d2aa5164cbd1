package factory

import (
	"fmt"
	"time"

	"github.com/mikey/llm-mail-triage/internal/adapters/ledger"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// LedgerFactory creates processed-message ledgers based on configuration
type LedgerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLedgerFactory creates a new ledger factory
func NewLedgerFactory(cfg *config.Config, logger *zap.Logger) *LedgerFactory {
	return &LedgerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLedger creates the configured ledger, or nil when the ledger is
// disabled. Ledgers with a cleanup goroutine implement Stop().
func (f *LedgerFactory) CreateLedger() (core.Ledger, error) {
	ledgerCfg := f.cfg.GetLedger()
	if !ledgerCfg.Enabled {
		f.logger.Info("Processed-message ledger disabled")
		return nil, nil
	}

	switch ledgerCfg.Type {
	case "memory":
		return ledger.NewMemoryLedger(f.logger, ledgerCfg.CleanupFrequency), nil
	case "sqlite":
		l, err := ledger.NewSQLiteLedger(ledgerCfg.SQLitePath, f.logger, ledgerCfg.CleanupFrequency)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "mysql":
		l, err := ledger.NewMySQLLedger(ledgerCfg.MySQLDSN, f.logger, ledgerCfg.CleanupFrequency)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", ledgerCfg.Type)
	}
}

// Retention returns how long ledger entries are kept
func (f *LedgerFactory) Retention() time.Duration {
	return f.cfg.GetLedger().Retention
}
