package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// ClaudeClient is an Oracle backed by the Anthropic messages API
type ClaudeClient struct {
	client    anthropic.Client
	modelName string
	maxTokens int
	logger    *zap.Logger
}

var _ core.Oracle = (*ClaudeClient)(nil)

// NewClaudeClient creates a new Claude client. Extra options are passed to
// the SDK, e.g. a base URL for a proxy.
func NewClaudeClient(apiKey, modelName string, maxTokens int, logger *zap.Logger, opts ...option.RequestOption) *ClaudeClient {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &ClaudeClient{
		client:    anthropic.NewClient(opts...),
		modelName: modelName,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Generate sends prompt as a single user turn and joins the text blocks of the reply
func (c *ClaudeClient) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.modelName),
		MaxTokens:   int64(c.maxTokens),
		Temperature: anthropic.Float(float64(temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create message: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty response from Claude")
	}

	c.logger.Debug("Claude response received",
		zap.String("model", c.modelName),
		zap.String("stop_reason", string(msg.StopReason)),
		zap.Int64("output_tokens", msg.Usage.OutputTokens))

	return b.String(), nil
}
