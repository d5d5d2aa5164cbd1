package factory

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/llm-mail-triage/internal/adapters/anthropic"
	"github.com/mikey/llm-mail-triage/internal/adapters/bedrock"
	"github.com/mikey/llm-mail-triage/internal/adapters/gemini"
	"github.com/mikey/llm-mail-triage/internal/adapters/openai"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates the oracle for the configured provider
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateOracle creates a new oracle based on llm.provider. Clients holding
// connections implement io.Closer.
func (f *LLMFactory) CreateOracle(ctx context.Context) (core.Oracle, error) {
	provider := f.cfg.GetLLM().Provider
	f.logger.Info("Creating oracle", zap.String("provider", provider))

	switch provider {
	case "openai":
		if f.cfg.GetOpenAI().APIKey == "" {
			return nil, errors.New("openai API key is required")
		}
		return openai.NewFactory(f.cfg, f.logger).CreateOracle()
	case "gemini":
		if f.cfg.GetGemini().APIKey == "" {
			return nil, errors.New("gemini API key is required")
		}
		client, err := gemini.NewFactory(f.cfg, f.logger).CreateClient(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "bedrock":
		client, err := bedrock.NewFactory(f.cfg, f.logger).CreateClient(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "anthropic":
		if f.cfg.GetAnthropic().APIKey == "" {
			return nil, errors.New("anthropic API key is required")
		}
		return anthropic.NewFactory(f.cfg, f.logger).CreateClient(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
