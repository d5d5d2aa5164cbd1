package handlers

import (
	"context"
	"fmt"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/senderfilter"
)

// OtherHandler answers mail that fits no other category
type OtherHandler struct {
	opts Options
}

// NewOtherHandler creates a new handler for uncategorized mail
func NewOtherHandler(opts Options) *OtherHandler {
	return &OtherHandler{opts: opts.withDefaults()}
}

func (h *OtherHandler) Handle(_ context.Context, msg *core.Message) (*core.HandlerResult, error) {
	result := &core.HandlerResult{
		Category: core.CategoryOther,
		Summary:  fmt.Sprintf("uncategorized mail from %s: %s", senderfilter.Address(msg.From), msg.Subject),
	}
	if h.opts.ReplyToOther {
		result.ReplySubject, result.ReplyBody = AutoReply(h.opts.BusinessName, msg)
	}
	return result, nil
}
