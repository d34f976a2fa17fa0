package segment

import (
	"fmt"
	"regexp"
	"strings"
)

// ClassifierConfig tunes the code-versus-prose heuristic. All patterns and
// weights come from configuration so deployments can adapt the detector to
// their corpus without touching logic.
type ClassifierConfig struct {
	// MinScore is the floor of the code threshold.
	MinScore int
	// LineRatioDivisor scales the threshold with document size: the score
	// must reach max(MinScore, lineCount/LineRatioDivisor).
	LineRatioDivisor int

	KeywordWeight int
	SymbolWeight  int
	LineWeight    int

	// KeywordPattern and SymbolPattern are counted over the whole text.
	KeywordPattern string
	SymbolPattern  string
	// LineStartPattern, CallLikePattern, and CommentPattern are matched
	// against the start of each trimmed non-blank line; a line may hit more
	// than one.
	LineStartPattern string
	CallLikePattern  string
	CommentPattern   string
}

// Validate reports the first configuration error, if any.
func (c ClassifierConfig) Validate() error {
	if c.MinScore <= 0 {
		return fmt.Errorf("classifier: min_score must be positive, got %d", c.MinScore)
	}
	if c.LineRatioDivisor <= 0 {
		return fmt.Errorf("classifier: line_ratio_divisor must be positive, got %d", c.LineRatioDivisor)
	}
	if c.KeywordWeight <= 0 {
		return fmt.Errorf("classifier: keyword_weight must be positive, got %d", c.KeywordWeight)
	}
	if c.SymbolWeight <= 0 {
		return fmt.Errorf("classifier: symbol_weight must be positive, got %d", c.SymbolWeight)
	}
	if c.LineWeight <= 0 {
		return fmt.Errorf("classifier: line_weight must be positive, got %d", c.LineWeight)
	}
	for name, pat := range map[string]string{
		"keyword_pattern":    c.KeywordPattern,
		"symbol_pattern":     c.SymbolPattern,
		"line_start_pattern": c.LineStartPattern,
		"call_like_pattern":  c.CallLikePattern,
		"comment_pattern":    c.CommentPattern,
	} {
		if strings.TrimSpace(pat) == "" {
			return fmt.Errorf("classifier: %s must not be empty", name)
		}
	}
	return nil
}

// Classifier scores text as code-like or natural-language-like using
// weighted regex hit counts and line-shape heuristics. False positives are
// acceptable: both branches of the segmenter fall back to sentence
// splitting.
type Classifier struct {
	cfg       ClassifierConfig
	keyword   *regexp.Regexp
	symbol    *regexp.Regexp
	lineStart *regexp.Regexp
	callLike  *regexp.Regexp
	comment   *regexp.Regexp
}

// NewClassifier compiles the configured patterns.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{cfg: cfg}
	var err error
	if c.keyword, err = regexp.Compile(cfg.KeywordPattern); err != nil {
		return nil, fmt.Errorf("classifier: keyword_pattern: %w", err)
	}
	if c.symbol, err = regexp.Compile(cfg.SymbolPattern); err != nil {
		return nil, fmt.Errorf("classifier: symbol_pattern: %w", err)
	}
	if c.lineStart, err = compileAnchored(cfg.LineStartPattern); err != nil {
		return nil, fmt.Errorf("classifier: line_start_pattern: %w", err)
	}
	if c.callLike, err = compileAnchored(cfg.CallLikePattern); err != nil {
		return nil, fmt.Errorf("classifier: call_like_pattern: %w", err)
	}
	if c.comment, err = compileAnchored(cfg.CommentPattern); err != nil {
		return nil, fmt.Errorf("classifier: comment_pattern: %w", err)
	}
	return c, nil
}

// compileAnchored anchors a pattern at the start of its input. Line-shape
// patterns only count when they match from the first character of the
// trimmed line.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)`)
}

// IsProbablyCode reports whether text looks like source code. Empty input
// classifies as natural language.
func (c *Classifier) IsProbablyCode(text string) bool {
	lines := splitLines(text)
	if len(lines) == 0 {
		return false
	}

	keywordHits := len(c.keyword.FindAllStringIndex(text, -1))
	symbolHits := len(c.symbol.FindAllStringIndex(text, -1))

	lineHits := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if c.lineStart.MatchString(trimmed) {
			lineHits++
		}
		if c.callLike.MatchString(trimmed) {
			lineHits++
		}
		if c.comment.MatchString(trimmed) {
			lineHits++
		}
	}

	score := keywordHits*c.cfg.KeywordWeight +
		symbolHits*c.cfg.SymbolWeight +
		lineHits*c.cfg.LineWeight

	divisor := c.cfg.LineRatioDivisor
	if divisor < 1 {
		divisor = 1
	}
	threshold := c.cfg.MinScore
	if byLines := len(lines) / divisor; byLines > threshold {
		threshold = byLines
	}
	return score >= threshold
}
