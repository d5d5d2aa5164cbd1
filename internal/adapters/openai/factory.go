package openai

import (
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// GeminiCompatBaseURL is Google's OpenAI-compatible Gemini endpoint
const GeminiCompatBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateOracle creates a new OpenAIClient. A configured base_url points the
// client at a compatible endpoint instead of api.openai.com.
func (f *Factory) CreateOracle() (core.Oracle, error) {
	openaiCfg := f.cfg.GetOpenAI()

	clientCfg := openai.DefaultConfig(openaiCfg.APIKey)
	if openaiCfg.BaseURL != "" {
		clientCfg.BaseURL = openaiCfg.BaseURL
		f.logger.Info("Using OpenAI-compatible endpoint", zap.String("base_url", openaiCfg.BaseURL))
	}

	return NewOpenAIClient(
		openai.NewClientWithConfig(clientCfg),
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.TopP,
		f.logger,
	), nil
}
