package cleave

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/avesind/cleave/segment"
)

type memStore struct {
	records []RunRecord
	saveErr error
}

func (m *memStore) Init(ctx context.Context) error { return nil }
func (m *memStore) SaveRun(ctx context.Context, rec RunRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append(m.records, rec)
	return nil
}
func (m *memStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	return m.records, nil
}
func (m *memStore) Close() error { return nil }

func testClassifierConfig() segment.ClassifierConfig {
	return segment.ClassifierConfig{
		MinScore:         5,
		LineRatioDivisor: 10,
		KeywordWeight:    2,
		SymbolWeight:     1,
		LineWeight:       1,
		KeywordPattern:   `\b(def|func|return)\b`,
		SymbolPattern:    `[{}();=]`,
		LineStartPattern: `(def |func )`,
		CallLikePattern:  `\w+\(`,
		CommentPattern:   `(#|//)`,
	}
}

func testSegmenter(t *testing.T, opts ...segment.Option) *segment.Segmenter {
	t.Helper()
	s, err := segment.New(segment.Config{MaxChunkChars: 40}, testClassifierConfig(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

const testDocument = "# Intro\nSome opening prose.\n# Body\nThe rest of the document.\n"

func TestAgentRunPipeline(t *testing.T) {
	agent := NewAgent(testSegmenter(t), NewPlanner(10), NewTextGenerator(nil))
	result, err := agent.Run(context.Background(), "rewrite", testDocument)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("got %d chunks %q, want 2", len(result.Chunks), result.Chunks)
	}
	if len(result.Plan) != 2 {
		t.Errorf("got %d plan items, want 2", len(result.Plan))
	}
	if !strings.Contains(result.Output, "[Part 1]") {
		t.Errorf("output missing placeholder sections:\n%s", result.Output)
	}
	if result.Stats.ChunkCount != 2 {
		t.Errorf("Stats.ChunkCount = %d, want 2", result.Stats.ChunkCount)
	}
	if result.Metrics != nil {
		t.Error("Metrics set without a self-checker")
	}
}

func TestAgentRunValidatesInput(t *testing.T) {
	agent := NewAgent(testSegmenter(t), NewPlanner(10), NewTextGenerator(nil))
	if _, err := agent.Run(context.Background(), "  ", "text"); err == nil {
		t.Error("blank instruction accepted")
	}
	if _, err := agent.Run(context.Background(), "instruction", "\n \t"); err == nil {
		t.Error("blank context accepted")
	}
}

func TestAgentRunWithSelfChecker(t *testing.T) {
	agent := NewAgent(testSegmenter(t), NewPlanner(10), NewTextGenerator(nil),
		WithSelfChecker(NewSelfChecker()))
	result, err := agent.Run(context.Background(), "rewrite", testDocument)
	if err != nil {
		t.Fatal(err)
	}
	if result.Metrics == nil {
		t.Fatal("Metrics nil with a self-checker configured")
	}
	if result.Metrics.Length == 0 {
		t.Error("Metrics.Length = 0 for non-empty output")
	}
}

func TestAgentRunSavesHistory(t *testing.T) {
	store := &memStore{}
	agent := NewAgent(testSegmenter(t), NewPlanner(10), NewTextGenerator(nil),
		WithRunStore(store))
	result, err := agent.Run(context.Background(), "rewrite", testDocument)
	if err != nil {
		t.Fatal(err)
	}
	if len(store.records) != 1 {
		t.Fatalf("got %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.ID == "" {
		t.Error("record ID empty")
	}
	if rec.Instruction != "rewrite" {
		t.Errorf("record Instruction = %q", rec.Instruction)
	}
	if rec.ChunkCount != result.Stats.ChunkCount {
		t.Errorf("record ChunkCount = %d, want %d", rec.ChunkCount, result.Stats.ChunkCount)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("record CreatedAt unset")
	}
}

func TestAgentRunStoreFailureNotFatal(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	agent := NewAgent(testSegmenter(t), NewPlanner(10), NewTextGenerator(nil),
		WithRunStore(store))
	if _, err := agent.Run(context.Background(), "rewrite", testDocument); err != nil {
		t.Fatalf("store failure surfaced as run error: %v", err)
	}
}

type failSplitter struct{ err error }

func (f failSplitter) Split(ctx context.Context, text string) ([]string, error) {
	return nil, f.err
}

func TestAgentRunSegmenterErrorAborts(t *testing.T) {
	splitErr := errors.New("tool broke")
	seg := testSegmenter(t, segment.WithStructuralSplitter(failSplitter{err: splitErr}))
	agent := NewAgent(seg, NewPlanner(10), NewTextGenerator(nil))
	code := "def broken():\n    return fail(); x = (1); y = (2)\n"
	_, err := agent.Run(context.Background(), "rewrite", code)
	if !errors.Is(err, splitErr) {
		t.Fatalf("got err %v, want splitter error", err)
	}
}
