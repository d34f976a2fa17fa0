package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides mutates cfg with any CLEAVE_-prefixed environment
// variables that are set. Values that fail to parse are ignored so a stray
// export cannot take down a run.
func ApplyEnvOverrides(cfg *Config) {
	envInt("CLEAVE_MAX_CHUNK_CHARS", &cfg.Segment.MaxChunkChars)
	envInt("CLEAVE_OVERLAP_CHARS", &cfg.Segment.OverlapChars)
	envBool("CLEAVE_ENABLE_OVERLAP", &cfg.Segment.EnableOverlap)
	envInt("CLEAVE_SUMMARY_CHARS", &cfg.Segment.SummaryChars)
	envBool("CLEAVE_ENABLE_SELF_CHECK", &cfg.Segment.EnableSelfCheck)

	envInt("CLEAVE_TEXT_TYPE_MIN_SCORE", &cfg.TextType.MinScore)
	envInt("CLEAVE_TEXT_TYPE_LINE_RATIO_DIVISOR", &cfg.TextType.LineRatioDivisor)

	envBool("CLEAVE_AST_GREP_ENABLED", &cfg.AstGrep.Enabled)
	envString("CLEAVE_AST_GREP_COMMAND", &cfg.AstGrep.Command)
	envString("CLEAVE_AST_GREP_LANG", &cfg.AstGrep.Language)
	if v := os.Getenv("CLEAVE_AST_GREP_PATTERNS"); v != "" {
		var patterns []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		if len(patterns) > 0 {
			cfg.AstGrep.Patterns = patterns
		}
	}

	envString("CLEAVE_LLM_BASE_URL", &cfg.LLM.BaseURL)
	envString("CLEAVE_LLM_API_KEY_ENV", &cfg.LLM.APIKeyEnv)
	envString("CLEAVE_LLM_MODEL", &cfg.LLM.Model)
	envInt("CLEAVE_LLM_TIMEOUT_SECONDS", &cfg.LLM.TimeoutSeconds)
	envInt("CLEAVE_LLM_MAX_RETRIES", &cfg.LLM.MaxRetries)
	envString("CLEAVE_LLM_GENERATE_PATH", &cfg.LLM.GeneratePath)
	envString("CLEAVE_LLM_AUTH_TYPE", &cfg.LLM.AuthType)

	envBool("CLEAVE_PERPLEXITY_ENABLED", &cfg.Perplexity.Enabled)
	envString("CLEAVE_PERPLEXITY_ENDPOINT", &cfg.Perplexity.Endpoint)
	envString("CLEAVE_PERPLEXITY_TEXT_FIELD", &cfg.Perplexity.TextField)
	envString("CLEAVE_PERPLEXITY_LOGPROBS_FIELD", &cfg.Perplexity.LogprobsField)

	envString("CLEAVE_STORE_DRIVER", &cfg.Store.Driver)
	envString("CLEAVE_STORE_PATH", &cfg.Store.Path)
	envString("CLEAVE_STORE_DSN", &cfg.Store.DSN)

	envBool("CLEAVE_OBSERVER_ENABLED", &cfg.Observer.Enabled)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	}
}
