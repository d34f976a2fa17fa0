package httpgen

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	cleave "github.com/avesind/cleave"
)

const keyEnv = "HTTPGEN_TEST_API_KEY"

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		APIKeyEnv: keyEnv,
		Model:     "test-model",
		Timeout:   5 * time.Second,
	}
}

func setKey(t *testing.T) {
	t.Helper()
	t.Setenv(keyEnv, "sk-test-123")
}

func TestGeneratePlainProtocol(t *testing.T) {
	setKey(t)
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"text": "generated"})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	out, err := c.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "generated" {
		t.Errorf("output = %q, want %q", out, "generated")
	}
	if gotAuth != "Bearer sk-test-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["prompt"] != "hello" || gotBody["model"] != "test-model" {
		t.Errorf("request body = %v", gotBody)
	}
}

func TestGenerateChatCompletionsShape(t *testing.T) {
	setKey(t)
	var gotBody map[string]any
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "chat reply"}}},
		})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.GeneratePath = "/chat/completions"
	c := New(cfg)
	out, err := c.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if out != "chat reply" {
		t.Errorf("output = %q", out)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if _, ok := gotBody["messages"]; !ok {
		t.Errorf("chat endpoint got body without messages: %v", gotBody)
	}
	if _, ok := gotBody["prompt"]; ok {
		t.Errorf("chat endpoint got a prompt field: %v", gotBody)
	}
}

func TestGenerateAnthropicShape(t *testing.T) {
	setKey(t)
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "claude reply"}},
		})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL + "/anthropic")
	cfg.AuthType = "x-api-key"
	c := New(cfg)
	out, err := c.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if out != "claude reply" {
		t.Errorf("output = %q", out)
	}
	if gotBody["max_tokens"] != float64(1024) {
		t.Errorf("messages body missing max_tokens: %v", gotBody)
	}
}

func TestGenerateCustomAuthHeader(t *testing.T) {
	setKey(t)
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		json.NewEncoder(w).Encode(map[string]any{"text": "ok"})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.AuthType = "X-Api-Key"
	c := New(cfg)
	if _, err := c.Generate(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	if gotKey != "sk-test-123" {
		t.Errorf("X-Api-Key = %q, want the raw key", gotKey)
	}
}

func TestGenerateURLInference(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"v1 suffix", Config{BaseURL: "https://api.example.com/v1"}, "https://api.example.com/v1/generate"},
		{"anthropic suffix", Config{BaseURL: "https://gw.example.com/anthropic"}, "https://gw.example.com/anthropic/v1/messages"},
		{"bare base", Config{BaseURL: "https://api.example.com/custom"}, "https://api.example.com/custom"},
		{"explicit path wins", Config{BaseURL: "https://api.example.com/v1", GeneratePath: "/chat/completions"}, "https://api.example.com/v1/chat/completions"},
		{"path without slash", Config{BaseURL: "https://api.example.com", GeneratePath: "gen"}, "https://api.example.com/gen"},
		{"trailing slash trimmed", Config{BaseURL: "https://api.example.com/v1/"}, "https://api.example.com/v1/generate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(tc.cfg)
			if got := c.generateURL(); got != tc.want {
				t.Errorf("generateURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerateRetriesErrorStatus(t *testing.T) {
	setKey(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"text": "recovered"})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 2
	c := New(cfg)
	out, err := c.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if out != "recovered" {
		t.Errorf("output = %q", out)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestGenerateExhaustedRetriesReturnErrHTTP(t *testing.T) {
	setKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.Generate(context.Background(), "hi")
	var httpErr *cleave.ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("got err %v, want ErrHTTP", err)
	}
	if httpErr.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", httpErr.Status)
	}
}

func TestGenerateMissingAPIKey(t *testing.T) {
	t.Setenv(keyEnv, "")
	t.Setenv("HOME", t.TempDir()) // no secrets file either
	c := New(testConfig("https://api.example.com"))
	if _, err := c.Generate(context.Background(), "hi"); err == nil {
		t.Error("expected an error for a missing API key")
	}
}

func TestReadAPIKeyFromSecretsFile(t *testing.T) {
	t.Setenv(keyEnv, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, home+"/"+secretsFile, "# comment\nOTHER=zzz\n"+keyEnv+" = from-file \n")

	c := New(testConfig("https://api.example.com"))
	key, err := c.readAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	if key != "from-file" {
		t.Errorf("key = %q, want %q", key, "from-file")
	}
}

func TestExtractTextShapes(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want string
	}{
		{"top-level text", map[string]any{"text": "a"}, "a"},
		{"chat message", map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": "b"}}}}, "b"},
		{"completion text", map[string]any{"choices": []any{map[string]any{"text": "c"}}}, "c"},
		{"content blocks", map[string]any{"content": []any{map[string]any{"type": "text", "text": "d"}}}, "d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractText(tc.data)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("extractText = %q, want %q", got, tc.want)
			}
		})
	}

	if _, err := extractText(map[string]any{"unrelated": true}); err == nil {
		t.Error("expected an error for an unparsable response")
	}
}

func TestScorePerplexity(t *testing.T) {
	setKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["input_text"] != "score me" {
			t.Errorf("request body = %v, want custom text field", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"lp": []float64{-1.0, -3.0}})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), WithPerplexity(srv.URL+"/score", "input_text", "lp"))
	got, err := c.ScorePerplexity(context.Background(), "score me")
	if err != nil {
		t.Fatal(err)
	}
	want := math.Exp(2.0) // -mean(-1, -3)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("perplexity = %f, want %f", got, want)
	}
}

func TestScorePerplexityUnconfigured(t *testing.T) {
	c := New(testConfig("https://api.example.com"))
	if _, err := c.ScorePerplexity(context.Background(), "x"); err == nil {
		t.Error("expected an error when scoring is not configured")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{BaseURL: "https://x", APIKeyEnv: "K", Model: "m", Timeout: time.Second}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.BaseURL = "" }},
		{"empty key env", func(c *Config) { c.APIKeyEnv = " " }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
