// Package followup sends one reminder per quote once it has gone
// unanswered for long enough.
package followup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/metrics"
	"github.com/mikey/llm-mail-triage/internal/store"
	"go.uber.org/zap"
)

// Subject of every follow-up mail
const Subject = "Uppföljning på din offert"

// Item outcomes
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
	StatusDryRun = "dry_run"
)

// QuoteBook is the part of the quote store the scheduler needs
type QuoteBook interface {
	Pending() ([]store.IndexedQuote, error)
	MarkFollowedUp(index int) (bool, error)
}

// Options configures the scheduler
type Options struct {
	BusinessName string
	DryRun       bool
}

// Item is the outcome for one eligible quote
type Item struct {
	Index    int    `json:"index"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Body     string `json:"body,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Report summarizes one scan
type Report struct {
	Pending  int    `json:"pending"`
	Eligible int    `json:"eligible"`
	Sent     int    `json:"sent"`
	Failed   int    `json:"failed"`
	DryRun   bool   `json:"dry_run"`
	Items    []Item `json:"items"`
}

// Scheduler finds quotes due for a follow-up and sends it
type Scheduler struct {
	mu      sync.Mutex
	quotes  QuoteBook
	sender  core.Sender
	metrics *metrics.Metrics
	opts    Options
	logger  *zap.Logger
}

// NewScheduler creates a new follow-up scheduler
func NewScheduler(quotes QuoteBook, sender core.Sender, m *metrics.Metrics, opts Options, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		quotes:  quotes,
		sender:  sender,
		metrics: m,
		opts:    opts,
		logger:  logger,
	}
}

// CheckForFollowups sends a follow-up for every quote that is not yet
// followed up and is at least thresholdDays old at now, in store order.
// The flag of each quote is persisted right after its mail is sent, so a
// later scan never mails the same quote twice. A send failure is recorded
// and the scan continues; a failure to persist the flag stops the scan.
func (s *Scheduler) CheckForFollowups(ctx context.Context, now time.Time, thresholdDays int) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.quotes.Pending()
	if err != nil {
		return nil, fmt.Errorf("failed to load quotes: %w", err)
	}

	threshold := time.Duration(thresholdDays) * 24 * time.Hour
	report := &Report{Pending: len(pending), DryRun: s.opts.DryRun, Items: []Item{}}

	for _, q := range pending {
		if now.Sub(q.CreatedAt) < threshold {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Eligible++

		item := Item{Index: q.Index, Customer: q.Customer, Body: s.body(q.Quote)}
		if s.opts.DryRun {
			item.Status = StatusDryRun
			report.Items = append(report.Items, item)
			s.metrics.Followup(StatusDryRun)
			s.logger.Info("Dry run: follow-up not sent",
				zap.Int("quote_index", q.Index),
				zap.String("customer", q.Customer))
			continue
		}

		if err := s.sender.Send(ctx, q.Customer, Subject, item.Body); err != nil {
			item.Status = StatusFailed
			item.Error = err.Error()
			report.Failed++
			report.Items = append(report.Items, item)
			s.metrics.Followup(StatusFailed)
			s.logger.Error("Failed to send follow-up",
				zap.Int("quote_index", q.Index),
				zap.String("customer", q.Customer),
				zap.Error(err))
			continue
		}

		if _, err := s.quotes.MarkFollowedUp(q.Index); err != nil {
			item.Status = StatusSent
			item.Error = err.Error()
			report.Sent++
			report.Items = append(report.Items, item)
			s.metrics.Followup(StatusSent)
			return report, fmt.Errorf("failed to mark quote %d as followed up: %w", q.Index, err)
		}

		item.Status = StatusSent
		report.Sent++
		report.Items = append(report.Items, item)
		s.metrics.Followup(StatusSent)
		s.logger.Info("Follow-up sent",
			zap.Int("quote_index", q.Index),
			zap.String("customer", q.Customer))
	}

	return report, nil
}

func (s *Scheduler) body(q core.Quote) string {
	products := make([]string, 0, len(q.Products))
	for id := range q.Products {
		products = append(products, id)
	}
	sort.Strings(products)

	return fmt.Sprintf("Hej!\n\n"+
		"Vi skickade en offert på %s häromdagen. "+
		"Vill du att vi lägger in en beställning åt dig eller har du några frågor?\n\n"+
		"Vänliga hälsningar,\n%s",
		strings.Join(products, ", "), s.opts.BusinessName)
}
