package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveExplicitProviders(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "test-key")
	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{"anthropic", "anthropic:claude-sonnet-4-6", "anthropic"},
		{"auto", "claude-sonnet-4-6", "anthropic"},
		{"openai", "", "openai"},
		{"auto", "gpt-4o", "openai"},
		{"auto", "openai:gpt-4o", "openai"},
	}
	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.model, func(t *testing.T) {
			n, err := Resolve(Options{Provider: tt.provider, Model: tt.model})
			if err != nil {
				t.Fatal(err)
			}
			m, ok := n.(Model)
			if !ok {
				t.Fatalf("expected Model narrator, got %T", n)
			}
			if m.Provider.Name() != tt.want {
				t.Errorf("expected %s provider, got %s", tt.want, m.Provider.Name())
			}
			if strings.Contains(m.Settings.Model, ":") {
				t.Errorf("provider prefix not stripped: %q", m.Settings.Model)
			}
		})
	}
}

func TestResolveAutoDetect(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "test-key")
	n, err := Resolve(Options{Provider: "auto"})
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := n.(Model); !ok || m.Provider.Name() != "openai" {
		t.Errorf("expected openai, got %#v", n)
	}
}

func TestResolveNone(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	for _, p := range []string{"", "auto", "none"} {
		n, err := Resolve(Options{Provider: p})
		if err != nil {
			t.Fatalf("%q: %v", p, err)
		}
		if n != nil {
			t.Errorf("%q: expected nil narrator, got %T", p, n)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := Resolve(Options{Provider: "anthropic"}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := Resolve(Options{Provider: "http"}); err == nil {
		t.Error("expected error without endpoint")
	}
	if _, err := Resolve(Options{Provider: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	n, err := Resolve(Options{Provider: "http", Endpoint: "http://localhost:9/summarize"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.(Service); !ok {
		t.Errorf("expected Service narrator, got %T", n)
	}
}

func TestMockProviderSequence(t *testing.T) {
	m := &MockProvider{Responses: []string{"first", "second"}}
	for _, want := range []string{"first", "second", "second"} {
		got, err := m.Generate(context.Background(), "p", Settings{})
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if len(m.Prompts) != 3 {
		t.Errorf("expected 3 recorded prompts, got %d", len(m.Prompts))
	}
}

func TestAnthropicProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Error("missing API key header")
		}
		if r.Header.Get("Anthropic-Version") == "" {
			t.Error("missing Anthropic-Version header")
		}
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.System == "" {
			t.Error("expected system prompt")
		}
		if req.MaxTokens != defaultMaxTokens {
			t.Errorf("max tokens = %d", req.MaxTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContentBlock{{Type: "text", Text: `{"summary": "ok"}`}},
		})
	}))
	defer srv.Close()

	p := &AnthropicProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	got, err := p.Generate(context.Background(), "test prompt", Settings{Temperature: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"summary": "ok"}` {
		t.Errorf("unexpected response: %s", got)
	}
}

func TestAnthropicErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"non-200", http.StatusTooManyRequests, `{"error": "rate limited"}`, "429"},
		{"malformed", http.StatusOK, `not json at all`, "parse response"},
		{"no text", http.StatusOK, `{"content": [{"type": "image"}]}`, "no text content"},
		{"empty", http.StatusOK, `{"content": []}`, "no text content"},
		{"truncated", http.StatusOK, `{"content": [{"type": "text", "text": "{"}], "stop_reason": "max_tokens"}`, "truncated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := &AnthropicProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
			_, err := p.Generate(context.Background(), "prompt", Settings{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should contain %q, got: %s", tt.wantErr, err)
			}
		})
	}
}

func TestOpenAIProviderGenerate(t *testing.T) {
	seed := 42
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("missing Authorization header")
		}
		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Error("expected json_object response format")
		}
		if req.Seed == nil || *req.Seed != 42 {
			t.Error("expected seed 42")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: openaiMessage{Content: `{"summary": "ok"}`}}},
		})
	}))
	defer srv.Close()

	p := &OpenAIProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	got, err := p.Generate(context.Background(), "test prompt", Settings{Seed: &seed})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"summary": "ok"}` {
		t.Errorf("unexpected response: %s", got)
	}
}

func TestOpenAISeedOmittedWhenNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&raw)
		if _, ok := raw["seed"]; ok {
			t.Error("seed should be omitted when nil")
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: openaiMessage{Content: `{}`}}},
		})
	}))
	defer srv.Close()

	p := &OpenAIProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	if _, err := p.Generate(context.Background(), "prompt", Settings{}); err != nil {
		t.Fatal(err)
	}
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"non-200", http.StatusInternalServerError, `{"error": "server error"}`, "500"},
		{"malformed", http.StatusOK, `not json`, "parse response"},
		{"no choices", http.StatusOK, `{"choices": []}`, "no choices"},
		{"truncated", http.StatusOK, `{"choices": [{"message": {"content": "{"}, "finish_reason": "length"}]}`, "truncated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := &OpenAIProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
			_, err := p.Generate(context.Background(), "prompt", Settings{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should contain %q, got: %s", tt.wantErr, err)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain JSON", `{"key": "value"}`, `{"key": "value"}`},
		{"json code fence", "```json\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"bare code fence", "```\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"whitespace around fences", "  \n```json\n{\"key\": \"value\"}\n```\n  ", `{"key": "value"}`},
		{"no closing fence", "```json\n{\"key\": \"value\"}", `{"key": "value"}`},
		{"already trimmed", "  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
