package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewFromViper(NewEmptyViper())

	if got := cfg.GetLLM().Provider; got != "openai" {
		t.Errorf("llm.provider = %q, want openai", got)
	}
	if got := cfg.GetLLM().Timeout; got != 60*time.Second {
		t.Errorf("oracle.timeout = %v, want 60s", got)
	}
	temps := cfg.GetTemperatures()
	if temps.Structured != 0.3 || temps.Text != 0.5 {
		t.Errorf("temperatures = %+v, want 0.3/0.5", temps)
	}
	if !cfg.GetDispatcher().DryRun {
		t.Error("dispatcher.dry_run should default to true")
	}
	if got := cfg.GetDispatcher().PollInterval; got != 5*time.Minute {
		t.Errorf("poll_interval = %v, want 5m", got)
	}
	if got := cfg.GetFollowup().ThresholdDays; got != 1 {
		t.Errorf("threshold_days = %d, want 1", got)
	}
	stores := cfg.GetStores()
	if stores.ComplaintsPath != "logs/complaints.json" || stores.QuotesPath != "logs/sent_quotes.json" || stores.ConversationsPath != "conversations.json" {
		t.Errorf("stores = %+v", stores)
	}
	if stores.HistorySize != 5 || stores.MaxMessageChars != 500 {
		t.Errorf("conversation limits = %d/%d, want 5/500", stores.HistorySize, stores.MaxMessageChars)
	}
	if got := cfg.GetCalendar().Location.String(); got != "Europe/Stockholm" {
		t.Errorf("calendar location = %q", got)
	}
	if got := cfg.GetBusiness().Name; got != "Bengtssons Trävaror" {
		t.Errorf("business.name = %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: anthropic
dispatcher:
  dry_run: false
  poll_interval: 30s
  ignored_domains:
    - bengtssons.se
followup:
  threshold_days: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	if got := cfg.GetLLM().Provider; got != "anthropic" {
		t.Errorf("provider = %q, want anthropic", got)
	}
	d := cfg.GetDispatcher()
	if d.DryRun || d.PollInterval != 30*time.Second {
		t.Errorf("dispatcher = %+v", d)
	}
	if len(d.IgnoredDomains) != 1 || d.IgnoredDomains[0] != "bengtssons.se" {
		t.Errorf("ignored_domains = %v", d.IgnoredDomains)
	}
	if got := cfg.GetFollowup().ThresholdDays; got != 3 {
		t.Errorf("threshold_days = %d, want 3", got)
	}
	// untouched keys keep their defaults
	if got := cfg.GetStores().QuotesPath; got != "logs/sent_quotes.json" {
		t.Errorf("quotes_path = %q", got)
	}
}

func TestValidate_JoinsAllProblems(t *testing.T) {
	t.Parallel()

	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("llm.provider", "eliza")
	cfg.Set("transport.type", "pigeon")
	cfg.Set("calendar.timezone", "Mars/Olympus")
	cfg.Set("dispatcher.poll_interval", "soon")

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"llm.provider", "transport.type", "calendar.timezone", "dispatcher.poll_interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %s", err, want)
		}
	}
}

func TestValidate_SMTPNeedsHost(t *testing.T) {
	t.Parallel()

	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("transport.type", "smtp")

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "smtp.host") {
		t.Errorf("Validate() = %v, want smtp.host error", err)
	}
}
