package cleave

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avesind/cleave/segment"
)

// Agent orchestrates the segment → plan → generate → self-check pipeline.
// Each stage is a separately constructed component so sub-strategies can be
// swapped without touching the flow.
type Agent struct {
	segmenter *segment.Segmenter
	planner   *Planner
	generator *TextGenerator
	checker   *SelfChecker
	store     RunStore
	logger    *slog.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithSelfChecker enables the self-check stage.
func WithSelfChecker(c *SelfChecker) AgentOption {
	return func(a *Agent) { a.checker = c }
}

// WithRunStore enables run-history persistence. Store failures are logged,
// not fatal: a broken history database should not lose a finished run.
func WithRunStore(s RunStore) AgentOption {
	return func(a *Agent) { a.store = s }
}

// WithLogger sets a structured logger for pipeline stages. If not set, no
// logs are emitted.
func WithLogger(l *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = l }
}

// NewAgent wires the pipeline together. All components must already be
// constructed from validated configuration.
func NewAgent(seg *segment.Segmenter, planner *Planner, generator *TextGenerator, opts ...AgentOption) *Agent {
	a := &Agent{
		segmenter: seg,
		planner:   planner,
		generator: generator,
		logger:    slog.New(discardHandler{}),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run executes the full pipeline for one instruction and context document.
func (a *Agent) Run(ctx context.Context, instruction, contextText string) (Result, error) {
	if strings.TrimSpace(instruction) == "" {
		return Result{}, errors.New("cleave: instruction must not be blank")
	}
	if strings.TrimSpace(contextText) == "" {
		return Result{}, errors.New("cleave: context text must not be blank")
	}

	chunks, err := a.segmenter.Segment(ctx, contextText)
	if err != nil {
		return Result{}, err
	}
	a.logger.Debug("cleave: segmented", "chunks", len(chunks))

	plan := a.planner.Build(instruction, chunks)

	output, err := a.generator.Generate(ctx, instruction, plan)
	if err != nil {
		return Result{}, err
	}

	var metrics *Metrics
	if a.checker != nil {
		m, err := a.checker.Check(ctx, output)
		if err != nil {
			return Result{}, err
		}
		metrics = &m
	}

	result := Result{
		Output:  output,
		Chunks:  chunks,
		Plan:    plan,
		Metrics: metrics,
		Stats:   BuildStats(chunks, output),
	}

	if a.store != nil {
		rec := RunRecord{
			ID:           uuid.NewString(),
			Instruction:  instruction,
			ChunkCount:   len(chunks),
			OutputLength: result.Stats.OutputLength,
			CreatedAt:    time.Now().UTC(),
			Chunks:       chunks,
		}
		if err := a.store.SaveRun(ctx, rec); err != nil {
			a.logger.Error("cleave: save run failed", "error", err)
		}
	}

	return result, nil
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
