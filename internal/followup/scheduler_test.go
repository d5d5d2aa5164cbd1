package followup

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/metrics"
	"github.com/mikey/llm-mail-triage/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	sent    []sentMail
	failFor map[string]bool
}

func (s *fakeSender) Send(_ context.Context, to, subject, body string) error {
	if s.failFor[to] {
		return errors.New("smtp: 451 try again later")
	}
	s.sent = append(s.sent, sentMail{to, subject, body})
	return nil
}

var now = time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

func newQuoteStore(t *testing.T, ages ...time.Duration) *store.QuoteStore {
	t.Helper()
	qs := store.NewQuoteStore(filepath.Join(t.TempDir(), "sent_quotes.json"), time.UTC, zap.NewNop())
	for i, age := range ages {
		_, err := qs.Append(core.Quote{
			Customer:  []string{"anna@example.se", "erik@example.se", "lisa@example.se"}[i%3],
			Subject:   "Offertförfrågan",
			Products:  map[string]int{"regel_45x145_3m": 10, "plywood_12mm": 2},
			CreatedAt: now.Add(-age),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return qs
}

func TestCheckForFollowups_Threshold(t *testing.T) {
	t.Parallel()

	qs := newQuoteStore(t, 23*time.Hour, 25*time.Hour)
	sender := &fakeSender{}
	s := NewScheduler(qs, sender, nil, Options{BusinessName: "Bengtssons Trävaror"}, zap.NewNop())

	report, err := s.CheckForFollowups(context.Background(), now, 1)
	if err != nil {
		t.Fatalf("CheckForFollowups: %v", err)
	}
	if report.Eligible != 1 || report.Sent != 1 {
		t.Errorf("report = %+v, want one eligible and sent", report)
	}
	if len(sender.sent) != 1 || sender.sent[0].to != "erik@example.se" {
		t.Fatalf("sent = %+v", sender.sent)
	}
	if sender.sent[0].subject != Subject {
		t.Errorf("subject = %q", sender.sent[0].subject)
	}
	if !strings.Contains(sender.sent[0].body, "plywood_12mm, regel_45x145_3m") {
		t.Errorf("body = %q", sender.sent[0].body)
	}

	quotes, err := qs.Load()
	if err != nil {
		t.Fatal(err)
	}
	if quotes[0].FollowedUp || !quotes[1].FollowedUp {
		t.Errorf("followed_up flags = %v, %v; want false, true", quotes[0].FollowedUp, quotes[1].FollowedUp)
	}
}

func TestCheckForFollowups_Idempotent(t *testing.T) {
	t.Parallel()

	qs := newQuoteStore(t, 48*time.Hour, 72*time.Hour)
	sender := &fakeSender{}
	s := NewScheduler(qs, sender, nil, Options{BusinessName: "Bengtssons Trävaror"}, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := s.CheckForFollowups(context.Background(), now.Add(time.Duration(i)*time.Hour), 1); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent %d follow-ups over two runs, want 2", len(sender.sent))
	}
}

func TestCheckForFollowups_SendFailureContinues(t *testing.T) {
	t.Parallel()

	qs := newQuoteStore(t, 48*time.Hour, 48*time.Hour, 48*time.Hour)
	sender := &fakeSender{failFor: map[string]bool{"anna@example.se": true}}
	m := metrics.NewUnregistered()
	s := NewScheduler(qs, sender, m, Options{BusinessName: "Bengtssons Trävaror"}, zap.NewNop())

	report, err := s.CheckForFollowups(context.Background(), now, 1)
	if err != nil {
		t.Fatalf("CheckForFollowups: %v", err)
	}
	if report.Failed != 1 || report.Sent != 2 {
		t.Errorf("report = %+v, want 1 failed and 2 sent", report)
	}
	if report.Items[0].Status != StatusFailed || report.Items[0].Error == "" {
		t.Errorf("first item = %+v", report.Items[0])
	}

	quotes, _ := qs.Load()
	if quotes[0].FollowedUp {
		t.Error("failed follow-up was marked as done")
	}
	if got := testutil.ToFloat64(m.FollowupsTotal.WithLabelValues(StatusFailed)); got != 1 {
		t.Errorf("failed metric = %v, want 1", got)
	}

	// the failed quote is retried on the next scan
	sender.failFor = nil
	report, err = s.CheckForFollowups(context.Background(), now, 1)
	if err != nil {
		t.Fatal(err)
	}
	if report.Sent != 1 || report.Items[0].Index != 0 {
		t.Errorf("retry report = %+v", report)
	}
}

func TestCheckForFollowups_DryRun(t *testing.T) {
	t.Parallel()

	qs := newQuoteStore(t, 48*time.Hour)
	sender := &fakeSender{}
	s := NewScheduler(qs, sender, nil, Options{BusinessName: "Bengtssons Trävaror", DryRun: true}, zap.NewNop())

	report, err := s.CheckForFollowups(context.Background(), now, 1)
	if err != nil {
		t.Fatalf("CheckForFollowups: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("dry run sent mail")
	}
	if len(report.Items) != 1 || report.Items[0].Status != StatusDryRun || report.Items[0].Body == "" {
		t.Errorf("report = %+v", report)
	}
	quotes, _ := qs.Load()
	if quotes[0].FollowedUp {
		t.Error("dry run flipped the follow-up flag")
	}
}

func TestCheckForFollowups_EmptyStore(t *testing.T) {
	t.Parallel()

	qs := newQuoteStore(t)
	s := NewScheduler(qs, &fakeSender{}, nil, Options{}, zap.NewNop())

	report, err := s.CheckForFollowups(context.Background(), now, 1)
	if err != nil {
		t.Fatalf("CheckForFollowups: %v", err)
	}
	if report.Pending != 0 || len(report.Items) != 0 {
		t.Errorf("report = %+v", report)
	}
}

type brokenBook struct {
	pending []store.IndexedQuote
}

func (b *brokenBook) Pending() ([]store.IndexedQuote, error) { return b.pending, nil }

func (b *brokenBook) MarkFollowedUp(int) (bool, error) {
	return false, errors.New("read-only file system")
}

func TestCheckForFollowups_PersistFailureAborts(t *testing.T) {
	t.Parallel()

	old := core.Quote{Customer: "anna@example.se", Products: map[string]int{"plywood_12mm": 1}, CreatedAt: now.Add(-72 * time.Hour)}
	book := &brokenBook{pending: []store.IndexedQuote{{Index: 0, Quote: old}, {Index: 1, Quote: old}}}
	sender := &fakeSender{}
	s := NewScheduler(book, sender, nil, Options{}, zap.NewNop())

	if _, err := s.CheckForFollowups(context.Background(), now, 1); err == nil {
		t.Fatal("CheckForFollowups succeeded despite persist failure")
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent = %d, want the scan to stop after the first quote", len(sender.sent))
	}
}
