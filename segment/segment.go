// Package segment splits long documents into bounded-size chunks while
// trying to respect semantic boundaries rather than cutting text at
// arbitrary offsets.
//
// The pipeline classifies the input as code-like or natural-language-like,
// asks the matching structural splitter for semantically bounded fragments
// (syntactic ranges for code, heading sections or paragraphs for prose),
// falls back to sentence splitting when the preferred splitter yields
// nothing, and finally assembles fragments into chunks no longer than the
// configured maximum, optionally prefixing each chunk with a trailing slice
// of its predecessor for context continuity.
//
// All lengths and offsets count Unicode code points, not bytes, so CJK text
// is bounded the same way as ASCII.
package segment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// StructuralSplitter produces semantically bounded fragments of code-like
// text. Implementations may shell out to external tools and can fail; a nil
// error with an empty result means "nothing matched" and tells the caller to
// fall back to sentence splitting.
type StructuralSplitter interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// Config bounds the assembly stage.
type Config struct {
	// MaxChunkChars is the maximum chunk length in runes, pre-overlap.
	MaxChunkChars int
	// OverlapChars is the number of trailing runes of the previous chunk
	// prepended to each subsequent chunk when EnableOverlap is set.
	OverlapChars int
	// EnableOverlap turns on overlap prefixing.
	EnableOverlap bool
}

// Validate reports the first configuration error, if any.
func (c Config) Validate() error {
	if c.MaxChunkChars <= 0 {
		return fmt.Errorf("segment: max_chunk_chars must be positive, got %d", c.MaxChunkChars)
	}
	if c.OverlapChars < 0 {
		return fmt.Errorf("segment: overlap_chars must not be negative, got %d", c.OverlapChars)
	}
	if c.OverlapChars >= c.MaxChunkChars {
		return fmt.Errorf("segment: overlap_chars (%d) must be smaller than max_chunk_chars (%d)", c.OverlapChars, c.MaxChunkChars)
	}
	return nil
}

// Segmenter turns a document into an ordered sequence of bounded chunks.
// It holds no state across calls and is safe for concurrent use.
type Segmenter struct {
	cfg        Config
	classifier *Classifier
	hier       *HierarchicalSplitter
	assembler  *Assembler
	structural StructuralSplitter
	logger     *slog.Logger
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithStructuralSplitter installs a structural splitter for code-like input.
// Without one, code-like input goes straight to sentence splitting.
func WithStructuralSplitter(ss StructuralSplitter) Option {
	return func(s *Segmenter) { s.structural = ss }
}

// WithLogger sets a structured logger for branch decisions. If not set, no
// logs are emitted.
func WithLogger(l *slog.Logger) Option {
	return func(s *Segmenter) { s.logger = l }
}

// New creates a Segmenter. The classifier configuration is compiled up
// front so that malformed patterns surface here rather than mid-split.
func New(cfg Config, classifierCfg ClassifierConfig, opts ...Option) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(classifierCfg)
	if err != nil {
		return nil, err
	}
	s := &Segmenter{
		cfg:        cfg,
		classifier: classifier,
		hier:       &HierarchicalSplitter{},
		assembler:  NewAssembler(cfg),
		logger:     nopLogger,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Segment splits text into ordered chunks.
//
// A structural splitter failure aborts the whole call; only an empty match
// set falls back to sentence splitting. Masking a broken tool integration
// behind a silent fallback would make misconfiguration invisible.
func (s *Segmenter) Segment(ctx context.Context, text string) ([]string, error) {
	if s.classifier.IsProbablyCode(text) {
		if s.structural != nil {
			fragments, err := s.structural.Split(ctx, text)
			if err != nil {
				return nil, err
			}
			if len(fragments) > 0 {
				s.logger.Debug("segment: structural split", "fragments", len(fragments))
				return s.assembler.Finalize(fragments), nil
			}
			s.logger.Debug("segment: structural splitter found nothing, falling back to sentences")
		}
		return s.assembler.Assemble(SplitSentences(text)), nil
	}

	fragments := s.hier.Split(text)
	if len(fragments) > 0 {
		s.logger.Debug("segment: hierarchical split", "fragments", len(fragments))
		return s.assembler.Finalize(fragments), nil
	}
	return s.assembler.Assemble(SplitSentences(text)), nil
}

// nopLogger discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// splitLines splits text into lines the way the rest of the package counts
// them: no trailing empty line for text that ends in a newline, and no lines
// at all for empty text. Carriage returns before a newline are stripped.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
