package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/avesind/cleave/provider/httpgen"
	"github.com/avesind/cleave/segment"
	"github.com/avesind/cleave/segment/astgrep"
)

type Config struct {
	Segment    SegmentConfig    `toml:"segment"`
	TextType   TextTypeConfig   `toml:"text_type"`
	AstGrep    AstGrepConfig    `toml:"ast_grep"`
	LLM        LLMConfig        `toml:"llm"`
	Perplexity PerplexityConfig `toml:"perplexity"`
	Store      StoreConfig      `toml:"store"`
	Observer   ObserverConfig   `toml:"observer"`
}

type SegmentConfig struct {
	MaxChunkChars   int  `toml:"max_chunk_chars"`
	OverlapChars    int  `toml:"overlap_chars"`
	EnableOverlap   bool `toml:"enable_overlap"`
	SummaryChars    int  `toml:"summary_chars"`
	EnableSelfCheck bool `toml:"enable_self_check"`
}

type TextTypeConfig struct {
	MinScore         int    `toml:"min_score"`
	LineRatioDivisor int    `toml:"line_ratio_divisor"`
	KeywordWeight    int    `toml:"keyword_weight"`
	SymbolWeight     int    `toml:"symbol_weight"`
	LineWeight       int    `toml:"line_weight"`
	KeywordPattern   string `toml:"keyword_pattern"`
	SymbolPattern    string `toml:"symbol_pattern"`
	LineStartPattern string `toml:"line_start_pattern"`
	CallLikePattern  string `toml:"call_like_pattern"`
	CommentPattern   string `toml:"comment_pattern"`
}

type AstGrepConfig struct {
	Enabled  bool     `toml:"enabled"`
	Command  string   `toml:"command"`
	Language string   `toml:"language"`
	Patterns []string `toml:"patterns"`
}

type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKeyEnv      string `toml:"api_key_env"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
	GeneratePath   string `toml:"generate_path"`
	AuthType       string `toml:"auth_type"`
}

type PerplexityConfig struct {
	Enabled       bool   `toml:"enabled"`
	Endpoint      string `toml:"endpoint"`
	TextField     string `toml:"text_field"`
	LogprobsField string `toml:"logprobs_field"`
}

type StoreConfig struct {
	// Driver selects the run store backend: "none", "sqlite", or "postgres".
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Segment: SegmentConfig{
			MaxChunkChars: 1000,
			OverlapChars:  50,
			SummaryChars:  80,
		},
		TextType: TextTypeConfig{
			MinScore:         5,
			LineRatioDivisor: 10,
			KeywordWeight:    2,
			SymbolWeight:     1,
			LineWeight:       1,
			KeywordPattern:   `\b(def|class|import|from|func|return|package|public|private|static|void|const|let|var)\b`,
			SymbolPattern:    `[{}()\[\];=<>]`,
			LineStartPattern: `(def |class |import |from |func |package |public |private |if |for |while |return )`,
			CallLikePattern:  `\w+\s*\(`,
			CommentPattern:   `(#|//|/\*)`,
		},
		AstGrep: AstGrepConfig{
			Command:  "ast-grep",
			Language: "python",
			Patterns: []string{"function_definition", "class_definition"},
		},
		LLM: LLMConfig{
			APIKeyEnv:      "CLEAVE_API_KEY",
			TimeoutSeconds: 60,
			MaxRetries:     2,
			AuthType:       "bearer",
		},
		Perplexity: PerplexityConfig{
			TextField:     "text",
			LogprobsField: "logprobs",
		},
		Store: StoreConfig{
			Driver: "none",
			Path:   "cleave.db",
		},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = "cleave.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	ApplyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first configuration error, if any. Section-level
// validation is delegated to the packages that own the settings.
func (c Config) Validate() error {
	if err := c.SegmentConfig().Validate(); err != nil {
		return err
	}
	if err := c.ClassifierConfig().Validate(); err != nil {
		return err
	}
	if c.Segment.SummaryChars <= 0 {
		return fmt.Errorf("config: summary_chars must be positive, got %d", c.Segment.SummaryChars)
	}
	if c.AstGrep.Enabled {
		if err := c.AstGrepConfig().Validate(); err != nil {
			return err
		}
	}
	if c.LLM.BaseURL != "" {
		if err := c.HTTPGenConfig().Validate(); err != nil {
			return err
		}
	}
	switch c.Store.Driver {
	case "", "none", "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("config: store driver postgres requires dsn")
	}
	return nil
}

// SegmentConfig converts the segment section into the segmenter's own config.
func (c Config) SegmentConfig() segment.Config {
	return segment.Config{
		MaxChunkChars: c.Segment.MaxChunkChars,
		OverlapChars:  c.Segment.OverlapChars,
		EnableOverlap: c.Segment.EnableOverlap,
	}
}

// ClassifierConfig converts the text_type section into the classifier config.
func (c Config) ClassifierConfig() segment.ClassifierConfig {
	return segment.ClassifierConfig{
		MinScore:         c.TextType.MinScore,
		LineRatioDivisor: c.TextType.LineRatioDivisor,
		KeywordWeight:    c.TextType.KeywordWeight,
		SymbolWeight:     c.TextType.SymbolWeight,
		LineWeight:       c.TextType.LineWeight,
		KeywordPattern:   c.TextType.KeywordPattern,
		SymbolPattern:    c.TextType.SymbolPattern,
		LineStartPattern: c.TextType.LineStartPattern,
		CallLikePattern:  c.TextType.CallLikePattern,
		CommentPattern:   c.TextType.CommentPattern,
	}
}

// AstGrepConfig converts the ast_grep section into the splitter config.
func (c Config) AstGrepConfig() astgrep.Config {
	return astgrep.Config{
		Command:  c.AstGrep.Command,
		Language: c.AstGrep.Language,
		Patterns: c.AstGrep.Patterns,
	}
}

// HTTPGenConfig converts the llm section into the provider config.
func (c Config) HTTPGenConfig() httpgen.Config {
	return httpgen.Config{
		BaseURL:      c.LLM.BaseURL,
		APIKeyEnv:    c.LLM.APIKeyEnv,
		Model:        c.LLM.Model,
		Timeout:      time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		MaxRetries:   c.LLM.MaxRetries,
		GeneratePath: c.LLM.GeneratePath,
		AuthType:     c.LLM.AuthType,
	}
}
