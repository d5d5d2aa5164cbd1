package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[{"type":"text","text":"Hej Erik,"},{"type":"text","text":" vi beklagar."}],"stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":6}}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("test-key", "claude-3-5-haiku-latest", 500, zap.NewNop(),
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	out, err := c.Generate(context.Background(), "Skriv ett svar", 0.5)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "Hej Erik, vi beklagar." {
		t.Errorf("Generate = %q", out)
	}
	if got["model"] != "claude-3-5-haiku-latest" || got["temperature"] != 0.5 || got["max_tokens"] != float64(500) {
		t.Errorf("request = %v", got)
	}
}

func TestGenerate_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"type":"error","error":{"type":"api_error","message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClaudeClient("test-key", "claude-3-5-haiku-latest", 500, zap.NewNop(),
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	if _, err := c.Generate(context.Background(), "hej", 0.5); err == nil {
		t.Error("Generate succeeded on server error")
	}
}
