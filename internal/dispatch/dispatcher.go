// Package dispatch runs the triage loop: pull unread mail, classify each
// message, route it to one handler and deliver the reply.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/metrics"
	"github.com/mikey/llm-mail-triage/internal/senderfilter"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Message outcomes
const (
	OutcomeHandled   = "handled"
	OutcomeFailed    = "handler_failed"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
)

// Reply statuses
const (
	ReplySent   = "sent"
	ReplyFailed = "failed"
	ReplyDryRun = "dry_run"
	ReplyNone   = "none"
)

// Classifier turns a message into a routing decision
type Classifier interface {
	Classify(ctx context.Context, msg *core.Message) core.Decision
}

// SenderFilter reports senders that must never get an automated reply
type SenderFilter interface {
	IsIgnored(from string) bool
}

// Options configures the dispatcher
type Options struct {
	DryRun          bool
	LedgerRetention time.Duration
}

// MessageReport is the outcome for one message
type MessageReport struct {
	MessageID    string        `json:"message_id"`
	From         string        `json:"from"`
	Subject      string        `json:"subject"`
	Category     core.Category `json:"category,omitempty"`
	Outcome      string        `json:"outcome"`
	Summary      string        `json:"summary,omitempty"`
	ReplySubject string        `json:"reply_subject,omitempty"`
	ReplyBody    string        `json:"reply_body,omitempty"`
	ReplyStatus  string        `json:"reply_status"`
	SideEffects  []string      `json:"side_effects,omitempty"`
	Diagnostics  []string      `json:"diagnostics,omitempty"`
	Errors       []string      `json:"errors,omitempty"`
}

// BatchReport summarizes one RunOnce call
type BatchReport struct {
	CycleID    string          `json:"cycle_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	DryRun     bool            `json:"dry_run"`
	Handled    int             `json:"handled"`
	Failed     int             `json:"failed"`
	Ignored    int             `json:"ignored"`
	Duplicates int             `json:"duplicates"`
	Replied    int             `json:"replied"`
	Messages   []MessageReport `json:"messages"`
}

// Dispatcher processes the unread batch one message at a time
type Dispatcher struct {
	mu         sync.Mutex
	transport  core.MailTransport
	classifier Classifier
	router     core.Router
	filter     SenderFilter
	ledger     core.Ledger
	metrics    *metrics.Metrics
	opts       Options
	logger     *zap.Logger
	now        func() time.Time
}

// NewDispatcher creates a new dispatcher. The ledger may be nil.
func NewDispatcher(
	transport core.MailTransport,
	classifier Classifier,
	router core.Router,
	filter SenderFilter,
	ledger core.Ledger,
	m *metrics.Metrics,
	opts Options,
	logger *zap.Logger,
) *Dispatcher {
	if opts.LedgerRetention <= 0 {
		opts.LedgerRetention = 30 * 24 * time.Hour
	}
	return &Dispatcher{
		transport:  transport,
		classifier: classifier,
		router:     router,
		filter:     filter,
		ledger:     ledger,
		metrics:    m,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// RunOnce processes the current unread batch in arrival order. A failure on
// one message is recorded in the report and the batch continues. The batch
// stops between messages when ctx is cancelled; the partial report is
// returned together with the context error. Concurrent calls run one
// after the other.
func (d *Dispatcher) RunOnce(ctx context.Context) (*BatchReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	report := &BatchReport{
		CycleID:   ulid.Make().String(),
		StartedAt: d.now(),
		DryRun:    d.opts.DryRun,
		Messages:  []MessageReport{},
	}
	logger := d.logger.With(zap.String("cycle_id", report.CycleID))

	messages, err := d.transport.ListUnread(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}
	logger.Debug("Fetched unread messages", zap.Int("count", len(messages)))

	for i := range messages {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = d.now()
			logger.Warn("Batch cancelled",
				zap.Int("processed", i),
				zap.Int("remaining", len(messages)-i))
			return report, err
		}

		rep := d.process(ctx, &messages[i], logger)
		switch rep.Outcome {
		case OutcomeHandled:
			report.Handled++
		case OutcomeFailed:
			report.Failed++
		case OutcomeIgnored:
			report.Ignored++
		case OutcomeDuplicate:
			report.Duplicates++
		}
		if rep.ReplyStatus == ReplySent {
			report.Replied++
		}
		report.Messages = append(report.Messages, rep)
	}

	report.FinishedAt = d.now()
	if len(messages) > 0 {
		logger.Info("Batch processed",
			zap.Int("messages", len(messages)),
			zap.Int("handled", report.Handled),
			zap.Int("failed", report.Failed),
			zap.Int("ignored", report.Ignored),
			zap.Int("duplicates", report.Duplicates),
			zap.Int("replied", report.Replied),
			zap.Bool("dry_run", report.DryRun))
	}
	return report, nil
}

func (d *Dispatcher) process(ctx context.Context, msg *core.Message, logger *zap.Logger) MessageReport {
	customer := senderfilter.Address(msg.From)
	rep := MessageReport{
		MessageID:   msg.ID,
		From:        customer,
		Subject:     msg.Subject,
		ReplyStatus: ReplyNone,
	}
	logger = logger.With(zap.String("message_id", msg.ID), zap.String("customer", customer))

	if d.seen(ctx, msg.ID, logger) {
		rep.Outcome = OutcomeDuplicate
		d.finish(ctx, msg, &rep, logger, false)
		return rep
	}

	if d.filter != nil && d.filter.IsIgnored(msg.From) {
		rep.Outcome = OutcomeIgnored
		logger.Info("Ignoring message from filtered sender")
		d.finish(ctx, msg, &rep, logger, true)
		return rep
	}

	decision := d.classifier.Classify(ctx, msg)
	if decision != nil {
		rep.Category = decision.Category()
	}

	result, err := core.Route(ctx, msg, decision, d.router)
	if result != nil {
		rep.Summary = result.Summary
		rep.ReplySubject = result.ReplySubject
		rep.ReplyBody = result.ReplyBody
		rep.SideEffects = result.SideEffects
		rep.Diagnostics = result.Diagnostics
	}
	if err != nil {
		rep.Outcome = OutcomeFailed
		rep.Errors = append(rep.Errors, err.Error())
		logger.Error("Handler failed",
			zap.String("category", string(rep.Category)),
			zap.Error(err))
	} else {
		rep.Outcome = OutcomeHandled
		logger.Info("Message handled",
			zap.String("category", string(rep.Category)),
			zap.String("summary", rep.Summary))
	}

	if result.HasReply() {
		rep.ReplyStatus = d.deliver(ctx, customer, result, &rep, logger)
		d.metrics.Reply(rep.ReplyStatus)
	}

	d.finish(ctx, msg, &rep, logger, true)
	return rep
}

func (d *Dispatcher) seen(ctx context.Context, id string, logger *zap.Logger) bool {
	if d.ledger == nil || id == "" {
		return false
	}
	seen, err := d.ledger.Seen(ctx, id)
	if err != nil {
		logger.Warn("Ledger lookup failed, processing message anyway", zap.Error(err))
		return false
	}
	if seen {
		logger.Info("Message already processed")
	}
	return seen
}

func (d *Dispatcher) deliver(ctx context.Context, to string, result *core.HandlerResult, rep *MessageReport, logger *zap.Logger) string {
	if d.opts.DryRun {
		logger.Info("Dry run: reply not sent", zap.String("reply_subject", result.ReplySubject))
		return ReplyDryRun
	}
	if err := d.transport.Send(ctx, to, result.ReplySubject, result.ReplyBody); err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("send reply: %v", err))
		logger.Error("Failed to send reply", zap.Error(err))
		return ReplyFailed
	}
	return ReplySent
}

// finish marks the message read and records it in the ledger. Dry-run only
// suppresses the reply, so a message is handled once either way.
func (d *Dispatcher) finish(ctx context.Context, msg *core.Message, rep *MessageReport, logger *zap.Logger, record bool) {
	category := string(rep.Category)
	if category == "" {
		category = "unclassified"
	}
	d.metrics.Message(category, rep.Outcome)

	if err := d.transport.MarkRead(ctx, msg.ID); err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("mark read: %v", err))
		logger.Error("Failed to mark message read", zap.Error(err))
	}

	if !record || d.ledger == nil || msg.ID == "" {
		return
	}
	now := d.now()
	err := d.ledger.Record(ctx, &core.LedgerEntry{
		MessageID:   msg.ID,
		Sender:      rep.From,
		Category:    rep.Category,
		ProcessedAt: now,
		ExpiresAt:   now.Add(d.opts.LedgerRetention),
	})
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("ledger: %v", err))
		logger.Warn("Failed to record message in ledger", zap.Error(err))
	}
}
