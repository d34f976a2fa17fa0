package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"

	cleave "github.com/avesind/cleave"
	"github.com/avesind/cleave/input"
	"github.com/avesind/cleave/internal/config"
	"github.com/avesind/cleave/observer"
	"github.com/avesind/cleave/provider/httpgen"
	"github.com/avesind/cleave/segment"
	"github.com/avesind/cleave/segment/astgrep"
	"github.com/avesind/cleave/store/postgres"
	"github.com/avesind/cleave/store/sqlite"
)

func main() {
	var (
		configPath  = flag.String("config", os.Getenv("CLEAVE_CONFIG"), "path to TOML config file")
		inputPath   = flag.String("input", "", "input file (md, html, pdf, or plain text); reads stdin when empty")
		instruction = flag.String("instruction", "", "instruction describing what to produce")
		asJSON      = flag.Bool("json", false, "emit the full result as JSON instead of plain output")
		chunksOnly  = flag.Bool("chunks", false, "segment only: print chunks and exit")
	)
	flag.Parse()

	if err := run(context.Background(), *configPath, *inputPath, *instruction, *asJSON, *chunksOnly); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, configPath, inputPath, instruction string, asJSON, chunksOnly bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	text, err := readInput(inputPath)
	if err != nil {
		return err
	}

	// Segmenter, with the structural splitter attached only when enabled.
	segOpts := []segment.Option{segment.WithLogger(logger)}
	if cfg.AstGrep.Enabled {
		segOpts = append(segOpts, segment.WithStructuralSplitter(astgrep.New(cfg.AstGrepConfig())))
	}
	seg, err := segment.New(cfg.SegmentConfig(), cfg.ClassifierConfig(), segOpts...)
	if err != nil {
		return err
	}

	if chunksOnly {
		chunks, err := seg.Segment(ctx, text)
		if err != nil {
			return err
		}
		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(chunks)
		}
		for i, c := range chunks {
			fmt.Printf("--- chunk %d (%d chars) ---\n%s\n", i+1, utf8.RuneCountInString(c), c)
		}
		return nil
	}

	if strings.TrimSpace(instruction) == "" {
		return fmt.Errorf("cleave: -instruction is required (or use -chunks)")
	}

	// Provider is optional: without a base URL the generator composes a
	// placeholder output locally.
	var provider *httpgen.Client
	if cfg.LLM.BaseURL != "" {
		provOpts := []httpgen.Option{httpgen.WithLogger(logger)}
		if cfg.Perplexity.Enabled {
			provOpts = append(provOpts, httpgen.WithPerplexity(
				cfg.Perplexity.Endpoint, cfg.Perplexity.TextField, cfg.Perplexity.LogprobsField))
		}
		provider = httpgen.New(cfg.HTTPGenConfig(), provOpts...)
	}

	// A typed nil must not reach the Generator interface.
	var gen cleave.Generator
	if provider != nil {
		gen = provider
	}
	generator := cleave.NewTextGenerator(gen)

	agentOpts := []cleave.AgentOption{cleave.WithLogger(logger)}

	if cfg.Segment.EnableSelfCheck {
		var checkOpts []cleave.CheckerOption
		if provider != nil && cfg.Perplexity.Enabled {
			checkOpts = append(checkOpts, cleave.WithPerplexityScorer(provider))
		}
		agentOpts = append(agentOpts, cleave.WithSelfChecker(cleave.NewSelfChecker(checkOpts...)))
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		if err := store.Init(ctx); err != nil {
			return err
		}
		agentOpts = append(agentOpts, cleave.WithRunStore(store))
	}

	agent := cleave.NewAgent(seg, cleave.NewPlanner(cfg.Segment.SummaryChars), generator, agentOpts...)

	var runner observer.Runner = agent
	if cfg.Observer.Enabled {
		inst, shutdown, err := observer.Init(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.Background()) }()
		runner = observer.WrapAgent(agent, inst)
	}

	result, err := runner.Run(ctx, instruction, text)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Println(result.Output)
	return nil
}

func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("cleave: read stdin: %w", err)
		}
		return string(data), nil
	}
	return input.Load(path, input.WithNFC())
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (cleave.RunStore, error) {
	switch cfg.Store.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		return sqlite.New(cfg.Store.Path, sqlite.WithLogger(logger)), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("cleave: connect postgres: %w", err)
		}
		return postgres.New(pool), nil
	default:
		return nil, fmt.Errorf("cleave: unknown store driver %q", cfg.Store.Driver)
	}
}
