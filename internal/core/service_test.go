package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubOracle struct {
	response string
	err      error
	deadline bool
}

func (o *stubOracle) Generate(ctx context.Context, _ string, _ float32) (string, error) {
	_, o.deadline = ctx.Deadline()
	return o.response, o.err
}

type countingObserver struct {
	calls    map[string]int
	failures map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{calls: map[string]int{}, failures: map[string]int{}}
}

func (c *countingObserver) ObserveOracle(purpose string, _ float64, err error) {
	key := purpose + "/ok"
	if err != nil {
		key = purpose + "/err"
	}
	c.calls[key]++
}

func (c *countingObserver) DecodeFailure(purpose string) {
	c.failures[purpose]++
}

func TestOracleService_TextAppliesTimeout(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{response: "```\nHej!\n```"}
	obs := newCountingObserver()
	svc := NewOracleService(oracle, time.Minute, obs, zap.NewNop())

	got, err := svc.Text(context.Background(), "complaint", "prompt", 0.5)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Hej!" {
		t.Errorf("Text = %q, want %q", got, "Hej!")
	}
	if !oracle.deadline {
		t.Error("oracle context had no deadline")
	}
	if obs.calls["complaint/ok"] != 1 {
		t.Errorf("observer calls = %v", obs.calls)
	}
}

func TestOracleService_TextError(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	obs := newCountingObserver()
	svc := NewOracleService(&stubOracle{err: boom}, 0, obs, zap.NewNop())

	_, err := svc.Text(context.Background(), "sales", "prompt", 0.3)
	if !errors.Is(err, boom) {
		t.Errorf("Text error = %v, want wrapping %v", err, boom)
	}
	if obs.calls["sales/err"] != 1 {
		t.Errorf("observer calls = %v", obs.calls)
	}
}

func TestOracleService_JSONDecodeFailureLogsRawOutput(t *testing.T) {
	t.Parallel()

	zcore, logs := observer.New(zapcore.WarnLevel)
	obs := newCountingObserver()
	svc := NewOracleService(&stubOracle{response: "I think this is sales."}, 0, obs, zap.New(zcore))

	var out map[string]any
	err := svc.JSON(context.Background(), "classify", "prompt", 0.3, &out)
	if !errors.Is(err, ErrOracleDecode) {
		t.Fatalf("JSON error = %v, want ErrOracleDecode", err)
	}
	if obs.failures["classify"] != 1 {
		t.Errorf("decode failures = %v", obs.failures)
	}

	entries := logs.FilterField(zap.String("raw_response", "I think this is sales.")).All()
	if len(entries) != 1 {
		t.Errorf("raw output logged %d times, want 1", len(entries))
	}
}

func TestOracleService_JSON(t *testing.T) {
	t.Parallel()

	svc := NewOracleService(&stubOracle{response: "```json\n{\"type\": \"sales\"}\n```"}, 0, nil, zap.NewNop())

	var out struct {
		Type string `json:"type"`
	}
	if err := svc.JSON(context.Background(), "classify", "prompt", 0.3, &out); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if out.Type != "sales" {
		t.Errorf("type = %q, want sales", out.Type)
	}
}
