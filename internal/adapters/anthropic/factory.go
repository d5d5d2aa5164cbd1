package anthropic

import (
	"github.com/mikey/llm-mail-triage/internal/config"
	"go.uber.org/zap"
)

// Factory creates new instances of ClaudeClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for ClaudeClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new ClaudeClient
func (f *Factory) CreateClient() *ClaudeClient {
	anthropicCfg := f.cfg.GetAnthropic()
	return NewClaudeClient(anthropicCfg.APIKey, anthropicCfg.ModelName, anthropicCfg.MaxTokens, f.logger)
}
