package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func clearKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
}

// --- ResolveProvider tests ---

func TestResolveProviderByModel(t *testing.T) {
	tests := []struct {
		model string
		env   string
		want  string
	}{
		{"gemini:gemini-1.5-pro", "GEMINI_API_KEY", "gemini"},
		{"gemini-pro", "GOOGLE_API_KEY", "gemini"},
		{"anthropic:claude-sonnet-4-6", "ANTHROPIC_API_KEY", "anthropic"},
		{"claude-sonnet-4-6", "ANTHROPIC_API_KEY", "anthropic"},
		{"openai:gpt-4o", "OPENAI_API_KEY", "openai"},
		{"gpt-4o", "OPENAI_API_KEY", "openai"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			clearKeys(t)
			t.Setenv(tt.env, "test-key")
			p, err := ResolveProvider(tt.model)
			if err != nil {
				t.Fatal(err)
			}
			if p.Name() != tt.want {
				t.Errorf("expected %s provider, got %s", tt.want, p.Name())
			}
		})
	}
}

func TestResolveProviderStripsPrefix(t *testing.T) {
	clearKeys(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	p, err := ResolveProvider("gemini:gemini-1.5-flash")
	if err != nil {
		t.Fatal(err)
	}
	mo, ok := p.(*modelOverride)
	if !ok {
		t.Fatalf("expected model override wrapper, got %T", p)
	}
	if mo.model != "gemini-1.5-flash" {
		t.Errorf("model = %q", mo.model)
	}
}

func TestResolveProviderAutoDetectOrder(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("ANTHROPIC_API_KEY", "k")
	p, err := ResolveProvider("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("expected anthropic before openai, got %s", p.Name())
	}

	t.Setenv("GEMINI_API_KEY", "k")
	p, err = ResolveProvider("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "gemini" {
		t.Errorf("expected gemini first, got %s", p.Name())
	}
}

func TestResolveProviderNone(t *testing.T) {
	clearKeys(t)
	_, err := ResolveProvider("")
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider, got %v", err)
	}
}

func TestResolveProviderMissingCredential(t *testing.T) {
	clearKeys(t)
	_, err := ResolveProvider("claude-sonnet-4-6")
	var ce *CredentialError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CredentialError, got %v", err)
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("error should name the variable, got: %s", err)
	}
}

func TestResolveProviderAtEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: chatMessage{Role: "assistant", Content: "routed"}}},
		})
	}))
	defer srv.Close()

	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "k")
	p, err := ResolveProviderAt("openai:gpt-4o-mini", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Generate(context.Background(), "hi", Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "routed" {
		t.Errorf("got %q", got)
	}
}

func TestResolveProviderAtNoEndpointKeepsDefault(t *testing.T) {
	clearKeys(t)
	t.Setenv("ANTHROPIC_API_KEY", "k")
	p, err := ResolveProviderAt("", "")
	if err != nil {
		t.Fatal(err)
	}
	a, ok := p.(*AnthropicProvider)
	if !ok {
		t.Fatalf("got %T", p)
	}
	if a.apiURL != anthropicAPIURL {
		t.Errorf("apiURL = %q", a.apiURL)
	}
}

func TestMockProvider(t *testing.T) {
	m := &MockProvider{Response: `{"test": true}`}
	got, err := m.Generate(context.Background(), "prompt", Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"test": true}` {
		t.Errorf("unexpected response: %s", got)
	}
	if m.Calls != 1 || m.LastPrompt != "prompt" {
		t.Errorf("calls = %d, last prompt = %q", m.Calls, m.LastPrompt)
	}
}

// --- ExtractJSON table-driven tests ---

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
		{"prose is kept", "Here you go: {\"a\": 1}", `Here you go: {"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			if got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- Gemini ---

func TestGeminiProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("missing key query parameter")
		}
		if !strings.HasSuffix(r.URL.Path, "/gemini-pro:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var reqBody geminiRequest
		json.NewDecoder(r.Body).Decode(&reqBody)
		if len(reqBody.Contents) != 1 || reqBody.Contents[0].Parts[0].Text != "test prompt" {
			t.Errorf("prompt not forwarded: %+v", reqBody)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"mcs\": 90}"}]}}]}`))
	}))
	defer srv.Close()

	p := &GeminiProvider{apiKey: "test-key", apiBase: srv.URL, client: srv.Client()}
	got, err := p.Generate(context.Background(), "test prompt", Settings{Temperature: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"mcs": 90}` {
		t.Errorf("unexpected response: %s", got)
	}
}

func TestGeminiNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	p := &GeminiProvider{apiKey: "k", apiBase: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "prompt", Settings{})
	if err == nil || !strings.Contains(err.Error(), "no candidates") {
		t.Errorf("expected no candidates error, got %v", err)
	}
}

func TestGeminiNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "API key not valid"}}`))
	}))
	defer srv.Close()

	p := &GeminiProvider{apiKey: "k", apiBase: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "prompt", Settings{})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", se.StatusCode)
	}
}

func TestNewGeminiFallsBackToGoogleKey(t *testing.T) {
	clearKeys(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")
	p, err := NewGemini()
	if err != nil {
		t.Fatal(err)
	}
	if p.apiKey != "google-key" {
		t.Errorf("apiKey = %q", p.apiKey)
	}
}

// --- Anthropic ---

func TestAnthropicProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Error("missing API key header")
		}
		if r.Header.Get("Anthropic-Version") == "" {
			t.Error("missing Anthropic-Version header")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("missing Content-Type header")
		}
		resp := anthropicResponse{
			Content: []anthropicContentBlock{{Type: "text", Text: `{"result": "ok"}`}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := &AnthropicProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	got, err := p.Generate(context.Background(), "test prompt", Settings{Temperature: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"result": "ok"}` {
		t.Errorf("unexpected response: %s", got)
	}
}

func TestAnthropicNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	p := &AnthropicProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "prompt", Settings{})
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should contain status code 429, got: %s", err.Error())
	}
}

func TestAnthropicMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	p := &AnthropicProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "prompt", Settings{})
	if err == nil || !strings.Contains(err.Error(), "parse response") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestAnthropicNoTextContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicContentBlock{{Type: "image"}}})
	}))
	defer srv.Close()

	p := &AnthropicProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "prompt", Settings{})
	if err == nil || !strings.Contains(err.Error(), "no text content") {
		t.Errorf("expected no text content error, got %v", err)
	}
}

func TestAnthropicTruncation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{
			Content:    []anthropicContentBlock{{Type: "text", Text: `{"mcs":`}},
			StopReason: "max_tokens",
		})
	}))
	defer srv.Close()

	p := &AnthropicProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "prompt", Settings{})
	if err == nil || !strings.Contains(err.Error(), "truncated") {
		t.Errorf("expected truncation error, got %v", err)
	}
}

// --- OpenAI ---

func TestOpenAIProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("missing Authorization header")
		}
		var reqBody openaiRequest
		json.NewDecoder(r.Body).Decode(&reqBody)
		if reqBody.ResponseFormat == nil || reqBody.ResponseFormat.Type != "json_object" {
			t.Error("expected json_object response format")
		}
		resp := openaiResponse{
			Choices: []openaiChoice{{Message: chatMessage{Content: `{"result": "ok"}`}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := &OpenAIProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	got, err := p.Generate(context.Background(), "test prompt", Settings{Temperature: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"result": "ok"}` {
		t.Errorf("unexpected response: %s", got)
	}
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openaiResponse{Choices: []openaiChoice{}})
	}))
	defer srv.Close()

	p := &OpenAIProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "prompt", Settings{})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("expected no choices error, got %v", err)
	}
}

func TestOpenAITruncation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: chatMessage{Content: `{"partial": true}`}, FinishReason: "length"}},
		})
	}))
	defer srv.Close()

	p := &OpenAIProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "prompt", Settings{MaxTokens: 100})
	if err == nil || !strings.Contains(err.Error(), "truncated") {
		t.Errorf("expected truncation error, got %v", err)
	}
}

func TestOpenAISeedOmittedWhenNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&raw)
		if _, hasSeed := raw["seed"]; hasSeed {
			t.Error("seed should be omitted from request when nil")
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: chatMessage{Content: `{"ok": true}`}}},
		})
	}))
	defer srv.Close()

	p := &OpenAIProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	if _, err := p.Generate(context.Background(), "prompt", Settings{}); err != nil {
		t.Fatal(err)
	}
}

// --- transport ---

func TestPostJSONTruncatesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 4*maxErrorBody)))
	}))
	defer srv.Close()

	var out struct{}
	err := postJSON(context.Background(), srv.Client(), "test", srv.URL, nil, struct{}{}, &out)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if len(se.Body) != maxErrorBody {
		t.Errorf("body length = %d, want %d", len(se.Body), maxErrorBody)
	}
}

func TestPostJSONContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out struct{}
	err := postJSON(ctx, srv.Client(), "test", srv.URL, nil, struct{}{}, &out)
	if err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Errorf("expected request failure, got %v", err)
	}
}
