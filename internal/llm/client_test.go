package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stillhq/still/internal/config"
)

// captureServer records the last request's headers and decoded JSON body and
// replies with the given status and payload.
func captureServer(t *testing.T, status int, response string) (*httptest.Server, *http.Header, *map[string]any) {
	t.Helper()
	var (
		headers http.Header
		body    map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &headers, &body
}

func TestGroqComplete(t *testing.T) {
	srv, headers, body := captureServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"{\"a\":1}"}}],"usage":{"total_tokens":42}}`)

	g := NewGroq("gsk-test", "llama-3.3-70b-versatile")
	g.url = srv.URL

	resp, err := g.Complete(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"a":1}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Provider != "groq" || resp.TokensUsed != 42 {
		t.Errorf("response = %+v", resp)
	}

	if got := headers.Get("Authorization"); got != "Bearer gsk-test" {
		t.Errorf("Authorization = %q", got)
	}
	if (*body)["model"] != "llama-3.3-70b-versatile" {
		t.Errorf("model = %v", (*body)["model"])
	}
	if (*body)["max_tokens"] != float64(500) || (*body)["temperature"] != 0.3 {
		t.Errorf("sampling params = %v / %v", (*body)["max_tokens"], (*body)["temperature"])
	}
	msgs, _ := (*body)["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v", (*body)["messages"])
	}
	msg, _ := msgs[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "classify this" {
		t.Errorf("message = %v", msg)
	}
}

func TestGroqErrorStatus(t *testing.T) {
	srv, _, _ := captureServer(t, http.StatusTooManyRequests, `{"error":"rate limited"}`)

	g := NewGroq("gsk-test", "m")
	g.url = srv.URL

	if _, err := g.Complete(context.Background(), "p"); err == nil {
		t.Error("expected error on 429")
	}
}

func TestAnthropicComplete(t *testing.T) {
	srv, headers, body := captureServer(t, http.StatusOK,
		`{"content":[{"text":"answer text"}],"usage":{"input_tokens":10,"output_tokens":5}}`)

	a := NewAnthropic("sk-ant-test", "claude-haiku-4-5")
	a.url = srv.URL

	resp, err := a.Complete(context.Background(), "assess this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "answer text" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Provider != "anthropic" || resp.TokensUsed != 15 {
		t.Errorf("response = %+v", resp)
	}

	if got := headers.Get("x-api-key"); got != "sk-ant-test" {
		t.Errorf("x-api-key = %q", got)
	}
	if got := headers.Get("anthropic-version"); got != "2023-06-01" {
		t.Errorf("anthropic-version = %q", got)
	}
	if (*body)["model"] != "claude-haiku-4-5" || (*body)["max_tokens"] != float64(500) {
		t.Errorf("body = %v", *body)
	}
}

func TestAnthropicErrorStatus(t *testing.T) {
	srv, _, _ := captureServer(t, http.StatusUnauthorized, `{"error":"bad key"}`)

	a := NewAnthropic("sk-ant-test", "m")
	a.url = srv.URL

	if _, err := a.Complete(context.Background(), "p"); err == nil {
		t.Error("expected error on 401")
	}
}

func TestOllamaComplete(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "llama3.2" || body["stream"] != false {
			t.Errorf("body = %v", body)
		}
		opts, _ := body["options"].(map[string]any)
		if opts["num_predict"] != float64(500) {
			t.Errorf("options = %v", opts)
		}
		w.Write([]byte(`{"response":"local answer"}`))
	}))
	t.Cleanup(srv.Close)

	o := NewOllama(srv.URL, "llama3.2")
	resp, err := o.Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if path != "/api/generate" {
		t.Errorf("path = %q, want /api/generate", path)
	}
	if resp.Content != "local answer" || resp.Provider != "ollama" {
		t.Errorf("response = %+v", resp)
	}
}

func TestNewClientProviderSelection(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr bool
	}{
		{"groq with key", config.LLMConfig{Provider: "groq", GroqKey: "k"}, false},
		{"groq without key", config.LLMConfig{Provider: "groq"}, true},
		{"anthropic with key", config.LLMConfig{Provider: "anthropic", AnthropicKey: "k"}, false},
		{"anthropic without key", config.LLMConfig{Provider: "anthropic"}, true},
		{"ollama needs no key", config.LLMConfig{Provider: "ollama"}, false},
		{"unknown provider", config.LLMConfig{Provider: "openai"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			if client == nil {
				t.Error("client is nil")
			}
		})
	}
}
