package segment

import (
	"strings"
	"unicode/utf8"
)

// Assembler greedily merges fragments into chunks bounded by the configured
// maximum rune length, slices any residually oversized unit at a fixed
// stride, and optionally prepends a trailing slice of the previous chunk to
// each chunk.
type Assembler struct {
	maxChars      int
	overlapChars  int
	enableOverlap bool
}

// NewAssembler creates an Assembler from a validated Config.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{
		maxChars:      cfg.MaxChunkChars,
		overlapChars:  cfg.OverlapChars,
		enableOverlap: cfg.EnableOverlap,
	}
}

// Assemble merges sentence-level fragments into bounded chunks and applies
// the finalization pass. The merge concatenates fragments directly, with no
// separator, so the primary pass never drops or inserts a character.
func (a *Assembler) Assemble(fragments []string) []string {
	return a.Finalize(a.merge(fragments))
}

// Finalize slices any chunk still exceeding the bound at a fixed stride and
// then applies overlap when enabled. It runs on every splitter's output, so
// a clean structural match wider than the bound is still cut into
// stride-aligned pieces; only the pre-overlap length is bounded.
func (a *Assembler) Finalize(chunks []string) []string {
	processed := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk) <= a.maxChars {
			processed = append(processed, chunk)
			continue
		}
		processed = append(processed, splitStride(chunk, a.maxChars)...)
	}
	if a.enableOverlap && a.overlapChars > 0 {
		processed = a.applyOverlap(processed)
	}
	return processed
}

// merge is the primary accumulation pass. A fragment longer than the bound
// is first cut at the fixed stride and each slice fed through the same
// accumulation rule.
func (a *Assembler) merge(fragments []string) []string {
	var chunks []string
	var buf strings.Builder
	bufLen := 0 // rune length of buf

	accumulate := func(part string) {
		n := utf8.RuneCountInString(part)
		switch {
		case bufLen == 0:
			buf.WriteString(part)
			bufLen = n
		case bufLen+n <= a.maxChars:
			buf.WriteString(part)
			bufLen += n
		default:
			chunks = append(chunks, buf.String())
			buf.Reset()
			buf.WriteString(part)
			bufLen = n
		}
	}

	for _, fragment := range fragments {
		if utf8.RuneCountInString(fragment) > a.maxChars {
			for _, part := range splitStride(fragment, a.maxChars) {
				accumulate(part)
			}
			continue
		}
		accumulate(fragment)
	}
	if bufLen > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// applyOverlap prepends the last overlapChars runes of each chunk's
// predecessor. The first chunk is never modified.
func (a *Assembler) applyOverlap(chunks []string) []string {
	overlapped := make([]string, len(chunks))
	for i, chunk := range chunks {
		if i == 0 {
			overlapped[i] = chunk
			continue
		}
		prev := []rune(chunks[i-1])
		start := len(prev) - a.overlapChars
		if start < 0 {
			start = 0
		}
		overlapped[i] = string(prev[start:]) + chunk
	}
	return overlapped
}

// splitStride cuts s into slices of exactly maxChars runes; the last slice
// may be shorter.
func splitStride(s string, maxChars int) []string {
	runes := []rune(s)
	parts := make([]string, 0, (len(runes)+maxChars-1)/maxChars)
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
