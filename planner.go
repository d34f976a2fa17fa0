package cleave

// Planner turns segmented chunks into a generation plan. The summary is a
// plain rune-truncation of the chunk; a smarter strategy can replace this
// without touching the rest of the pipeline.
type Planner struct {
	summaryChars int
}

// NewPlanner creates a Planner that truncates summaries to summaryChars
// runes. summaryChars must be positive; the configuration layer validates
// this before an agent is built.
func NewPlanner(summaryChars int) *Planner {
	return &Planner{summaryChars: summaryChars}
}

// Build returns one plan item per chunk, in chunk order.
func (p *Planner) Build(instruction string, chunks []string) Plan {
	plan := make(Plan, 0, len(chunks))
	for i, chunk := range chunks {
		plan = append(plan, PlanItem{
			Index:       i,
			Summary:     truncateRunes(chunk, p.summaryChars),
			Chunk:       chunk,
			Instruction: instruction,
		})
	}
	return plan
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
