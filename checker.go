package cleave

import (
	"context"
	"unicode/utf8"
)

// SelfChecker computes basic quality metrics for a generated output: length
// and the ratio of distinct runes, plus an optional perplexity score from an
// external scorer.
type SelfChecker struct {
	scorer PerplexityScorer
}

// CheckerOption configures a SelfChecker.
type CheckerOption func(*SelfChecker)

// WithPerplexityScorer enables perplexity scoring.
func WithPerplexityScorer(s PerplexityScorer) CheckerOption {
	return func(c *SelfChecker) { c.scorer = s }
}

// NewSelfChecker creates a SelfChecker.
func NewSelfChecker(opts ...CheckerOption) *SelfChecker {
	c := &SelfChecker{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check scores output. A scorer failure is returned as-is; the caller
// decides whether diagnostics are worth aborting for.
func (c *SelfChecker) Check(ctx context.Context, output string) (Metrics, error) {
	length := utf8.RuneCountInString(output)
	unique := make(map[rune]struct{}, length)
	for _, r := range output {
		unique[r] = struct{}{}
	}
	m := Metrics{Length: length}
	if length > 0 {
		m.UniqueRatio = float64(len(unique)) / float64(length)
	}
	if c.scorer != nil {
		score, err := c.scorer.ScorePerplexity(ctx, output)
		if err != nil {
			return Metrics{}, err
		}
		m.Perplexity = &score
	}
	return m, nil
}
