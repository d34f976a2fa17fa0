// Package httpgen implements cleave.Generator against a configurable HTTP
// text-generation endpoint. It speaks three wire shapes — a plain
// prompt/text protocol, OpenAI-style chat completions, and Anthropic-style
// messages — choosing by the resolved request URL, and retries transient
// failures with exponential backoff.
package httpgen

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	cleave "github.com/avesind/cleave"
)

// secretsFile is the fallback API key location under the user's home
// directory, one KEY=VALUE pair per line.
const secretsFile = ".cleave_secrets"

// Config describes the generation endpoint.
type Config struct {
	// BaseURL is the API base, e.g. "https://api.example.com/v1".
	BaseURL string
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string
	// Model is sent in every request body.
	Model string
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// GeneratePath, when set, is appended to BaseURL verbatim and disables
	// path inference.
	GeneratePath string
	// AuthType is "bearer" (Authorization: Bearer <key>) or the literal
	// name of a header to carry the raw key. Empty means bearer.
	AuthType string
}

// Validate reports the first configuration error, if any.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("httpgen: base_url must not be empty")
	}
	if strings.TrimSpace(c.APIKeyEnv) == "" {
		return errors.New("httpgen: api_key_env must not be empty")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("httpgen: model must not be empty")
	}
	if c.Timeout <= 0 {
		return errors.New("httpgen: timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("httpgen: max_retries must not be negative")
	}
	return nil
}

// Client calls a text-generation endpoint. It implements cleave.Generator
// and, when perplexity scoring is configured, cleave.PerplexityScorer.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	perplexityEndpoint string
	textField          string
	logprobsField      string
}

var _ cleave.Generator = (*Client)(nil)
var _ cleave.PerplexityScorer = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a structured logger for request retries. If not set, no
// logs are emitted.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithPerplexity configures perplexity scoring: the endpoint URL, the
// request-body field carrying the text, and the response field carrying the
// logprobs list. Field names adapt the client to different scoring APIs.
func WithPerplexity(endpoint, textField, logprobsField string) Option {
	return func(c *Client) {
		c.perplexityEndpoint = endpoint
		c.textField = textField
		c.logprobsField = logprobsField
	}
}

// New creates a Client. The configuration must already be valid.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.New(discardHandler{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate sends the prompt to the generation endpoint and returns the
// extracted text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	apiKey, err := c.readAPIKey()
	if err != nil {
		return "", err
	}
	url := c.generateURL()
	payload := c.generatePayload(url, prompt)

	data, err := c.postWithRetry(ctx, url, apiKey, payload)
	if err != nil {
		return "", fmt.Errorf("httpgen: generate: %w", err)
	}
	return extractText(data)
}

// readAPIKey reads the key from the configured environment variable,
// falling back to ~/.cleave_secrets.
func (c *Client) readAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(c.cfg.APIKeyEnv)); key != "" {
		return key, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		if key := readSecretsFile(filepath.Join(home, secretsFile), c.cfg.APIKeyEnv); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("httpgen: API key missing: %s", c.cfg.APIKeyEnv)
}

func readSecretsFile(path, name string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(k) == name && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// authHeaders builds the request headers. AuthType "bearer" (or its aliases
// "authorization" and "auth") produces a standard bearer token; any other
// value is used as the header name for the raw key.
func (c *Client) authHeaders(apiKey string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	authType := strings.TrimSpace(c.cfg.AuthType)
	if authType == "" {
		authType = "bearer"
	}
	switch strings.ToLower(authType) {
	case "bearer", "authorization", "auth":
		h.Set("Authorization", "Bearer "+apiKey)
	default:
		h.Set(authType, apiKey)
	}
	return h
}

// generateURL resolves the request URL. An explicit GeneratePath wins;
// otherwise the path is inferred conservatively from the base URL so "/v1"
// is never appended twice.
func (c *Client) generateURL() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	path := strings.TrimSpace(c.cfg.GeneratePath)
	if path != "" {
		if strings.HasPrefix(path, "/") {
			return base + path
		}
		return base + "/" + path
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/generate"
	}
	if strings.HasSuffix(base, "/anthropic") {
		return base + "/v1/messages"
	}
	return base
}

// generatePayload picks the wire shape by URL: messages for Anthropic and
// chat-completions endpoints, a plain prompt field otherwise.
func (c *Client) generatePayload(url, prompt string) map[string]any {
	lowered := strings.ToLower(url)
	if strings.Contains(lowered, "/anthropic/v1/messages") || strings.HasSuffix(lowered, "/v1/messages") {
		return map[string]any{
			"model":      c.cfg.Model,
			"max_tokens": 1024,
			"messages":   []map[string]any{{"role": "user", "content": prompt}},
		}
	}
	if strings.Contains(lowered, "/chat/completions") {
		return map[string]any{
			"model":    c.cfg.Model,
			"messages": []map[string]any{{"role": "user", "content": prompt}},
		}
	}
	return map[string]any{
		"model":  c.cfg.Model,
		"prompt": prompt,
	}
}

// postWithRetry sends the payload, retrying error statuses and transport
// failures with exponential backoff capped at 8 seconds per wait.
func (c *Client) postWithRetry(ctx context.Context, url, apiKey string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header = c.authHeaders(apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("httpgen: request failed", "attempt", attempt, "error", err)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if resp.StatusCode >= 400 {
			lastErr = &cleave.ErrHTTP{Status: resp.StatusCode, Body: string(respBody)}
			c.logger.Warn("httpgen: error status", "attempt", attempt, "status", resp.StatusCode)
			continue
		}

		var data map[string]any
		if err := json.Unmarshal(respBody, &data); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return data, nil
	}
	return nil, lastErr
}

// sleepBackoff waits min(2^attempt, 8) seconds or until ctx is done.
func sleepBackoff(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > 8*time.Second {
		delay = 8 * time.Second
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// extractText pulls generated text out of any of the supported response
// shapes: a top-level "text" field, OpenAI-style choices, or Anthropic-style
// content blocks.
func extractText(data map[string]any) (string, error) {
	if text, ok := data["text"].(string); ok && strings.TrimSpace(text) != "" {
		return text, nil
	}

	if choices, ok := data["choices"].([]any); ok && len(choices) > 0 {
		if first, ok := choices[0].(map[string]any); ok {
			if msg, ok := first["message"].(map[string]any); ok {
				if content, ok := msg["content"].(string); ok && strings.TrimSpace(content) != "" {
					return content, nil
				}
			}
			if text, ok := first["text"].(string); ok && strings.TrimSpace(text) != "" {
				return text, nil
			}
		}
	}

	if blocks, ok := data["content"].([]any); ok {
		for _, b := range blocks {
			if block, ok := b.(map[string]any); ok {
				if text, ok := block["text"].(string); ok && strings.TrimSpace(text) != "" {
					return text, nil
				}
			}
		}
	}

	return "", errors.New("httpgen: response carries no parsable text field")
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
