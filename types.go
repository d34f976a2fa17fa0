package cleave

import "time"

// PlanItem is one unit of the generation plan: a chunk, its truncated
// summary, and the instruction it serves.
type PlanItem struct {
	Index       int    `json:"index"`
	Summary     string `json:"summary"`
	Chunk       string `json:"chunk"`
	Instruction string `json:"instruction"`
}

// Plan is the ordered generation plan built from the segmented chunks.
type Plan []PlanItem

// Metrics holds self-check results for a generated output.
type Metrics struct {
	// Length is the output length in runes.
	Length int `json:"length"`
	// UniqueRatio is the ratio of distinct runes to total runes; a crude
	// repetition signal.
	UniqueRatio float64 `json:"unique_ratio"`
	// Perplexity is set only when perplexity scoring is enabled.
	Perplexity *float64 `json:"perplexity,omitempty"`
}

// Stats summarizes one run.
type Stats struct {
	ChunkCount         int     `json:"chunk_count"`
	AverageChunkLength float64 `json:"average_chunk_length"`
	OutputLength       int     `json:"output_length"`
}

// Result is the full outcome of one Agent.Run call.
type Result struct {
	Output  string   `json:"output"`
	Chunks  []string `json:"chunks,omitempty"`
	Plan    Plan     `json:"plan,omitempty"`
	Metrics *Metrics `json:"metrics,omitempty"`
	Stats   Stats    `json:"stats"`
}

// RunRecord captures one completed run for later inspection.
type RunRecord struct {
	ID           string    `json:"id"`
	Instruction  string    `json:"instruction"`
	ChunkCount   int       `json:"chunk_count"`
	OutputLength int       `json:"output_length"`
	CreatedAt    time.Time `json:"created_at"`
	Chunks       []string  `json:"chunks,omitempty"`
}
