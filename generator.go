package cleave

import (
	"context"
	"fmt"
	"strings"
)

// TextGenerator produces the output text from a plan. With a nil provider
// it composes a placeholder sectioned output locally, which keeps the
// pipeline runnable and debuggable without network access.
type TextGenerator struct {
	provider Generator
}

// NewTextGenerator creates a TextGenerator. provider may be nil.
func NewTextGenerator(provider Generator) *TextGenerator {
	return &TextGenerator{provider: provider}
}

// Generate renders the plan into output text, delegating to the provider
// when one is configured.
func (g *TextGenerator) Generate(ctx context.Context, instruction string, plan Plan) (string, error) {
	if g.provider != nil {
		return g.provider.Generate(ctx, buildPrompt(instruction, plan))
	}

	sections := make([]string, 0, len(plan))
	for _, item := range plan {
		sections = append(sections, fmt.Sprintf(
			"[Part %d]\nInstruction: %s\nSummary: %s\nContent: %s\n",
			item.Index+1, instruction, item.Summary, item.Chunk,
		))
	}
	return strings.Join(sections, "\n"), nil
}

// buildPrompt lays the plan out as structured context for the provider.
func buildPrompt(instruction string, plan Plan) string {
	lines := []string{"Instruction:", instruction, "", "Plan:"}
	for _, item := range plan {
		lines = append(lines, fmt.Sprintf("- index=%d summary=%s", item.Index, item.Summary))
	}
	lines = append(lines, "", "Generate the complete long-form text from the plan above.")
	return strings.Join(lines, "\n")
}
