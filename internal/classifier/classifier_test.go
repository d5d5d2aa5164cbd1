package classifier

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mikey/llm-mail-triage/internal/catalog"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/metrics"
	"github.com/mikey/llm-mail-triage/internal/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeOracle struct {
	response    string
	err         error
	prompt      string
	temperature float32
}

func (f *fakeOracle) Generate(_ context.Context, prompt string, temperature float32) (string, error) {
	f.prompt = prompt
	f.temperature = temperature
	return f.response, f.err
}

func newClassifier(t *testing.T, oracle core.Oracle, m *metrics.Metrics, logger *zap.Logger) *Classifier {
	t.Helper()
	svc := core.NewOracleService(oracle, time.Minute, m, logger)
	c := New(svc, catalog.Default(), utils.NewTextProcessor(logger, 0), m, Options{
		BusinessName: "Bengtssons Trävaror",
		Temperature:  0.3,
	}, logger)
	c.now = func() time.Time { return time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC) }
	return c
}

var testMessage = &core.Message{
	ID:      "m1",
	From:    "anders@example.se",
	Subject: "Prisförfrågan plywood",
	Body:    "Vad kostar plywood 12mm hos er? Behöver 20 skivor.",
}

func TestClassify_Decisions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		want     core.Decision
	}{
		{
			name:     "support",
			response: `{"type": "support"}`,
			want:     core.SupportDecision{},
		},
		{
			name:     "sales with quantities",
			response: "```json\n{\"type\": \"sales\", \"products\": {\"plywood_12mm\": 20, \"osb_11mm\": \"2\", \"skruv\": 0}}\n```",
			want:     core.SalesDecision{Products: map[string]int{"plywood_12mm": 20, "osb_11mm": 2}},
		},
		{
			name:     "sales with product list",
			response: `{"type": "Sales", "products": ["plywood_12mm"]}`,
			want:     core.SalesDecision{Products: map[string]int{"plywood_12mm": 1}},
		},
		{
			name:     "estimate",
			response: `{"type": "estimate", "project_description": "garage 40 kvm"}`,
			want:     core.EstimateDecision{ProjectDescription: "garage 40 kvm"},
		},
		{
			name:     "estimate without description uses body",
			response: `{"type": "estimate"}`,
			want:     core.EstimateDecision{ProjectDescription: testMessage.Body},
		},
		{
			name:     "meeting",
			response: `Här är svaret: {"type": "meeting", "meeting_time": "2025-03-14T14:00"}`,
			want:     core.MeetingDecision{Time: "2025-03-14T14:00"},
		},
		{
			name:     "meeting with null time",
			response: `{"type": "meeting", "meeting_time": null}`,
			want:     core.MeetingDecision{},
		},
		{
			name:     "other",
			response: `{"type": "other"}`,
			want:     core.OtherDecision{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newClassifier(t, &fakeOracle{response: tt.response}, nil, zap.NewNop())
			got := c.Classify(context.Background(), testMessage)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestClassify_UndecodableFallsBackToOther(t *testing.T) {
	t.Parallel()

	zcore, logs := observer.New(zapcore.WarnLevel)
	m := metrics.NewUnregistered()
	c := newClassifier(t, &fakeOracle{response: "Det här är nog en offertförfrågan."}, m, zap.New(zcore))

	got := c.Classify(context.Background(), testMessage)
	if _, ok := got.(core.OtherDecision); !ok {
		t.Fatalf("Classify = %#v, want OtherDecision", got)
	}
	if n := testutil.ToFloat64(m.OracleDecodeFailures.WithLabelValues("classify")); n != 1 {
		t.Errorf("decode failures = %v, want 1", n)
	}
	raw := logs.FilterField(zap.String("raw_response", "Det här är nog en offertförfrågan.")).Len()
	if raw != 1 {
		t.Errorf("raw response logged %d times, want 1", raw)
	}
}

func TestClassify_UnknownLabelFallsBackToOther(t *testing.T) {
	t.Parallel()

	m := metrics.NewUnregistered()
	c := newClassifier(t, &fakeOracle{response: `{"type": "spam"}`}, m, zap.NewNop())

	if got := c.Classify(context.Background(), testMessage); got.Category() != core.CategoryOther {
		t.Errorf("Classify category = %q, want other", got.Category())
	}
	if n := testutil.ToFloat64(m.OracleDecodeFailures.WithLabelValues("classify")); n != 1 {
		t.Errorf("decode failures = %v, want 1", n)
	}
}

func TestClassify_OracleErrorFallsBackToOther(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, &fakeOracle{err: errors.New("connection refused")}, nil, zap.NewNop())
	if got := c.Classify(context.Background(), testMessage); got.Category() != core.CategoryOther {
		t.Errorf("Classify category = %q, want other", got.Category())
	}
}

func TestClassify_Prompt(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: `{"type": "other"}`}
	c := newClassifier(t, oracle, nil, zap.NewNop())
	c.Classify(context.Background(), testMessage)

	if oracle.temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", oracle.temperature)
	}
	for _, want := range []string{"Bengtssons Trävaror", testMessage.Subject, testMessage.Body, "plywood_12mm", "2025-03-12", "Wednesday"} {
		if !strings.Contains(oracle.prompt, want) {
			t.Errorf("prompt does not contain %q", want)
		}
	}
}
