package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/senderfilter"
	"github.com/mikey/llm-mail-triage/internal/store"
	"github.com/mikey/llm-mail-triage/internal/utils"
	"go.uber.org/zap"
)

// ComplaintHandler logs complaints and drafts a reply that takes the
// customer's earlier conversation into account
type ComplaintHandler struct {
	complaints    ComplaintLog
	conversations ConversationLog
	oracle        *core.OracleService
	text          *utils.TextProcessor
	opts          Options
	logger        *zap.Logger
	now           func() time.Time
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(complaints ComplaintLog, conversations ConversationLog, oracle *core.OracleService, text *utils.TextProcessor, opts Options, logger *zap.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		complaints:    complaints,
		conversations: conversations,
		oracle:        oracle,
		text:          text,
		opts:          opts.withDefaults(),
		logger:        logger,
		now:           time.Now,
	}
}

// Handle logs the complaint as open and produces a reply. Store or oracle
// failures are reported in the result; a static acknowledgement replaces a
// failed generated reply.
func (h *ComplaintHandler) Handle(ctx context.Context, msg *core.Message) (*core.HandlerResult, error) {
	customer := senderfilter.Address(msg.From)
	result := &core.HandlerResult{
		Category:     core.CategorySupport,
		ReplySubject: complaintSubjectPrefix + msg.Subject,
	}

	_, index, err := h.complaints.Log(msg)
	if err != nil {
		h.logger.Error("Failed to log complaint",
			zap.String("message_id", msg.ID),
			zap.String("customer", customer),
			zap.Error(err))
		result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("complaint not logged: %v", err))
	} else {
		result.SideEffects = append(result.SideEffects, fmt.Sprintf("complaint #%d logged (open)", index))
	}

	// History is read before the inbound message is recorded, so the prompt
	// carries it once
	history, err := h.conversations.Recent(customer, h.opts.HistorySize)
	if err != nil {
		h.logger.Warn("Failed to read conversation history",
			zap.String("customer", customer),
			zap.Error(err))
		result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("history unavailable: %v", err))
		history = nil
	}
	h.record(customer, core.RoleCustomer, msg.Subject, msg.Body, result)

	reply, err := h.oracle.Text(ctx, "complaint", h.prompt(msg, history), h.opts.TextTemperature)
	if err != nil || reply == "" {
		if err == nil {
			err = errors.New("empty reply")
		}
		result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("generated reply unavailable: %v", err))
		reply = complaintFallback(h.opts.BusinessName, msg)
	}
	result.ReplyBody = reply
	h.record(customer, core.RoleAgent, result.ReplySubject, reply, result)

	result.Summary = fmt.Sprintf("complaint from %s: %s", customer, msg.Subject)
	return result, nil
}

func (h *ComplaintHandler) record(customer string, role core.Role, subject, message string, result *core.HandlerResult) {
	if _, err := h.conversations.Append(customer, role, subject, message); err != nil {
		h.logger.Error("Failed to append to conversation",
			zap.String("customer", customer),
			zap.String("role", string(role)),
			zap.Error(err))
		result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("conversation not updated: %v", err))
	}
}

func (h *ComplaintHandler) prompt(msg *core.Message, history []core.ConversationEntry) string {
	previous := store.FormatHistory(history, h.opts.MaxMessageChars)
	if previous != "" {
		previous += "\n"
	}
	return fmt.Sprintf(`%sDu är en kontorsassistent på %s som besvarar klagomål via mail.
Läs följande mail och skriv ett anpassat, trevligt och kort svar på samma språk som kunden skriver på.
Om det finns tidigare konversation, ta hänsyn till den.

Mail:
Från: %s
Ämne: %s
Meddelande:
%s

Svaret ska innehålla:
- Bekräftelse på att mailet tagits emot och vad klagomålet avser
- En försäkran om att ärendet tas vidare och att vi återkommer

Skriv: Detta mail skickades: %s

Avsluta med att önska en fortsatt trevlig dag/kväll, följt av:
Vänliga hälsningar,
%s

Svara endast med mailtexten.`,
		previous,
		h.opts.BusinessName,
		msg.From,
		msg.Subject,
		h.text.PrepareBody(msg.Body),
		h.now().In(h.opts.Location).Format("2006-01-02 15:04:05"),
		h.opts.BusinessName)
}
