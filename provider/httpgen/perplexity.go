package httpgen

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ScorePerplexity posts the text to the configured scoring endpoint and
// returns exp(-mean(logprobs)). WithPerplexity must have been set.
func (c *Client) ScorePerplexity(ctx context.Context, text string) (float64, error) {
	if c.perplexityEndpoint == "" {
		return 0, errors.New("httpgen: perplexity scoring not configured")
	}

	apiKey, err := c.readAPIKey()
	if err != nil {
		return 0, err
	}

	payload := map[string]any{
		"model":     c.cfg.Model,
		c.textField: text,
	}
	data, err := c.postWithRetry(ctx, c.perplexityEndpoint, apiKey, payload)
	if err != nil {
		return 0, fmt.Errorf("httpgen: perplexity: %w", err)
	}

	raw, ok := data[c.logprobsField].([]any)
	if !ok || len(raw) == 0 {
		return 0, fmt.Errorf("httpgen: response missing logprobs field %q", c.logprobsField)
	}
	sum := 0.0
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("httpgen: logprobs field %q holds a non-numeric entry", c.logprobsField)
		}
		sum += f
	}
	mean := sum / float64(len(raw))
	return math.Exp(-mean), nil
}
