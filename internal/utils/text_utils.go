package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const truncationNotice = "\n[... content truncated ...]"

// TextProcessor prepares mail text before it is placed in a prompt
type TextProcessor struct {
	logger      *zap.Logger
	maxBodySize int
}

// NewTextProcessor creates a TextProcessor that caps bodies at maxBodySize
// bytes (0 disables the cap)
func NewTextProcessor(logger *zap.Logger, maxBodySize int) *TextProcessor {
	return &TextProcessor{
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// TruncateText cuts text to at most maxSize bytes without splitting a UTF-8
// sequence and appends a truncation notice
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	cut := maxSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	truncated := text[:cut]

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + truncationNotice
}

// SanitizeUTF8 drops invalid UTF-8 bytes
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// PrepareBody sanitizes a mail body, normalizes line endings and applies the
// configured size cap
func (tp *TextProcessor) PrepareBody(body string) string {
	text := tp.SanitizeUTF8(body)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	return tp.TruncateText(text, tp.maxBodySize)
}
