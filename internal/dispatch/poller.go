package dispatch

import (
	"context"
	"time"

	"github.com/mikey/llm-mail-triage/internal/followup"
	"github.com/mikey/llm-mail-triage/internal/metrics"
	"go.uber.org/zap"
)

// BatchRunner processes one batch of unread mail
type BatchRunner interface {
	RunOnce(ctx context.Context) (*BatchReport, error)
}

// FollowupChecker scans quotes for due follow-ups
type FollowupChecker interface {
	CheckForFollowups(ctx context.Context, now time.Time, thresholdDays int) (*followup.Report, error)
}

// CycleReport is the outcome of one poll cycle
type CycleReport struct {
	Batch     *BatchReport     `json:"batch,omitempty"`
	Followups *followup.Report `json:"followups,omitempty"`
}

// Poller runs a batch followed by a follow-up scan on a fixed interval.
// Cycles never overlap; ticks that fall inside a long cycle are dropped.
type Poller struct {
	runner        BatchRunner
	followups     FollowupChecker
	interval      time.Duration
	thresholdDays int
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewPoller creates a new poller
func NewPoller(runner BatchRunner, followups FollowupChecker, interval time.Duration, thresholdDays int, m *metrics.Metrics, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		runner:        runner,
		followups:     followups,
		interval:      interval,
		thresholdDays: thresholdDays,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// Run starts with an immediate cycle and returns when ctx is done
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Poller started", zap.Duration("interval", p.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	next := p.now()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped")
			return ctx.Err()
		case <-timer.C:
		}

		started := p.now()
		p.Cycle(ctx)

		next = nextRun(next, p.interval, p.now())
		timer.Reset(next.Sub(p.now()))
		p.logger.Debug("Cycle finished",
			zap.Duration("took", p.now().Sub(started)),
			zap.Time("next", next))
	}
}

// nextRun returns the first slot of the fixed schedule that starts at prev
// and is strictly after now
func nextRun(prev time.Time, interval time.Duration, now time.Time) time.Time {
	next := prev.Add(interval)
	if !next.After(now) {
		missed := now.Sub(prev) / interval
		next = prev.Add((missed + 1) * interval)
	}
	return next
}

// Cycle runs one batch and then the follow-up scan. Errors are logged; a
// failed batch does not skip the follow-up scan.
func (p *Poller) Cycle(ctx context.Context) *CycleReport {
	started := p.now()
	defer func() {
		p.metrics.Cycle(p.now().Sub(started).Seconds())
	}()

	report := &CycleReport{}

	batch, err := p.runner.RunOnce(ctx)
	report.Batch = batch
	if err != nil {
		p.logger.Error("Batch failed", zap.Error(err))
	}
	if ctx.Err() != nil {
		return report
	}

	if p.followups != nil {
		fu, err := p.followups.CheckForFollowups(ctx, p.now(), p.thresholdDays)
		report.Followups = fu
		if err != nil {
			p.logger.Error("Follow-up scan failed", zap.Error(err))
		} else if fu.Eligible > 0 {
			p.logger.Info("Follow-up scan finished",
				zap.Int("eligible", fu.Eligible),
				zap.Int("sent", fu.Sent),
				zap.Int("failed", fu.Failed))
		}
	}
	return report
}
