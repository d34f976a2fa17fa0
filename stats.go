package cleave

import "unicode/utf8"

// BuildStats summarizes a run from its chunks and output. Lengths count
// runes, consistent with the segmentation engine.
func BuildStats(chunks []string, output string) Stats {
	s := Stats{
		ChunkCount:   len(chunks),
		OutputLength: utf8.RuneCountInString(output),
	}
	if len(chunks) > 0 {
		total := 0
		for _, c := range chunks {
			total += utf8.RuneCountInString(c)
		}
		s.AverageChunkLength = float64(total) / float64(len(chunks))
	}
	return s
}
