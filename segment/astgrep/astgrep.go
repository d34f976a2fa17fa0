// Package astgrep splits code-like text along syntactic boundaries reported
// by the ast-grep command-line tool. It is one implementation of
// segment.StructuralSplitter; the assembler and orchestration never see the
// tool, only the fragments.
package astgrep

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"unicode/utf8"

	cleave "github.com/avesind/cleave"
	"github.com/avesind/cleave/segment"
)

// Config describes the external tool invocation.
type Config struct {
	// Command is the ast-grep entry point, e.g. "sg" or "ast-grep".
	Command string
	// Language is the tool's language identifier, e.g. "python" or "go".
	Language string
	// Patterns are the structural patterns matched one invocation each.
	Patterns []string
}

// Validate reports the first configuration error, if any.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return errors.New("astgrep: command must not be empty")
	}
	if strings.TrimSpace(c.Language) == "" {
		return errors.New("astgrep: language must not be empty")
	}
	if len(c.Patterns) == 0 {
		return errors.New("astgrep: at least one pattern is required")
	}
	for i, p := range c.Patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("astgrep: pattern %d must not be empty", i)
		}
	}
	return nil
}

// Splitter invokes ast-grep once per configured pattern, converts the
// reported line/column ranges to rune offsets, merges overlapping ranges,
// and slices the source text. It holds no per-call state; each invocation
// owns a freshly named temporary file, so concurrent Split calls do not
// contend.
type Splitter struct {
	cfg    Config
	logger *slog.Logger
}

var _ segment.StructuralSplitter = (*Splitter)(nil)

// Option configures a Splitter.
type Option func(*Splitter)

// WithLogger sets a structured logger for tool invocations. If not set, no
// logs are emitted.
func WithLogger(l *slog.Logger) Option {
	return func(s *Splitter) { s.logger = l }
}

// New creates a Splitter. The configuration must already be valid.
func New(cfg Config, opts ...Option) *Splitter {
	s := &Splitter{cfg: cfg, logger: slog.New(discardHandler{})}
	for _, o := range opts {
		o(s)
	}
	return s
}

// span is a half-open rune-offset interval [start, end).
type span struct {
	start int
	end   int
}

// Split returns the merged structural fragments of text in document order.
// It returns an empty result only when no pattern produced a match; tool
// failures are returned as errors, never swallowed.
func (s *Splitter) Split(ctx context.Context, text string) ([]string, error) {
	offsets := buildLineOffsets(text)
	total := utf8.RuneCountInString(text)

	var spans []span
	for _, pattern := range s.cfg.Patterns {
		doc, err := s.run(ctx, pattern, text)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("astgrep: pattern matched", "pattern", pattern, "matches", len(doc.Matches))
		for _, m := range doc.Matches {
			start := toOffset(offsets, total, m.Range.Start)
			end := toOffset(offsets, total, m.Range.End)
			if end > start {
				spans = append(spans, span{start: start, end: end})
			}
		}
	}
	if len(spans) == 0 {
		return nil, nil
	}

	runes := []rune(text)
	merged := mergeSpans(spans)
	fragments := make([]string, 0, len(merged))
	for _, sp := range merged {
		if sp.end > sp.start {
			fragments = append(fragments, string(runes[sp.start:sp.end]))
		}
	}
	return fragments, nil
}

// Tool output shape: {"matches": [{"range": {"start": {"line", "column"},
// "end": {...}}}, ...]}. Lines are 1-based, columns 0-based.
type matchDocument struct {
	Matches []match `json:"matches"`
}

type match struct {
	Range matchRange `json:"range"`
}

type matchRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

type position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// run executes one tool invocation: the text goes verbatim into a temporary
// file, which is removed again no matter how the invocation ends.
func (s *Splitter) run(ctx context.Context, pattern, text string) (*matchDocument, error) {
	tmp, err := os.CreateTemp("", "cleave-astgrep-*")
	if err != nil {
		return nil, fmt.Errorf("astgrep: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("astgrep: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("astgrep: close temp file: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.cfg.Command,
		"--json", "-p", pattern, "--lang", s.cfg.Language, tmp.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// A bare name that is not on PATH surfaces as exec.ErrNotFound; a
		// path-qualified command that does not exist surfaces as ErrNotExist.
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, &cleave.ErrToolNotFound{Command: s.cfg.Command}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &cleave.ErrToolExec{
				Command: s.cfg.Command,
				Output:  strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("astgrep: run %s: %w", s.cfg.Command, err)
	}

	var doc matchDocument
	if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
		return nil, &cleave.ErrToolExec{
			Command: s.cfg.Command,
			Output:  "malformed JSON output: " + err.Error(),
		}
	}
	return &doc, nil
}

// buildLineOffsets returns the rune offset of the start of each line, the
// terminating newline counting toward the line it ends. When the text does
// not end in a newline one extra offset is appended so the final line is
// addressable.
func buildLineOffsets(text string) []int {
	var offsets []int
	runeIdx := 0
	atLineStart := true
	for _, r := range text {
		if atLineStart {
			offsets = append(offsets, runeIdx)
			atLineStart = false
		}
		runeIdx++
		if r == '\n' {
			atLineStart = true
		}
	}
	if !strings.HasSuffix(text, "\n") {
		offsets = append(offsets, runeIdx)
	}
	return offsets
}

// toOffset converts a 1-based line / 0-based column location to an absolute
// rune offset. Locations past the known line table clamp to the end of the
// text rather than erroring; slightly malformed tool output degrades
// gracefully.
func toOffset(offsets []int, total int, p position) int {
	line := p.Line - 1
	if line < 0 {
		line = 0
	}
	if line >= len(offsets) {
		return total
	}
	idx := offsets[line] + p.Column
	if idx > total {
		return total
	}
	return idx
}

// mergeSpans sorts spans by start and folds any span whose start lies at or
// before the running merged end, keeping the maximum end. Adjacent spans
// merge too. Merging an already merged, sorted list returns it unchanged.
func mergeSpans(spans []span) []span {
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	merged := make([]span, 0, len(sorted))
	for _, sp := range sorted {
		if len(merged) == 0 {
			merged = append(merged, sp)
			continue
		}
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
		} else {
			merged = append(merged, sp)
		}
	}
	return merged
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
