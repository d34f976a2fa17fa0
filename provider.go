package cleave

import "context"

// Generator abstracts the text-generation backend.
type Generator interface {
	// Generate produces text for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// PerplexityScorer scores how fluent a text is, as exp(-mean(logprobs)).
// Implementations typically call a scoring HTTP endpoint.
type PerplexityScorer interface {
	ScorePerplexity(ctx context.Context, text string) (float64, error)
}
