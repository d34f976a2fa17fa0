package cleave

import (
	"context"
	"errors"
	"math"
	"testing"
)

type fakeScorer struct {
	score float64
	err   error
}

func (f *fakeScorer) ScorePerplexity(ctx context.Context, text string) (float64, error) {
	return f.score, f.err
}

func TestCheckBasicMetrics(t *testing.T) {
	c := NewSelfChecker()
	m, err := c.Check(context.Background(), "aabb")
	if err != nil {
		t.Fatal(err)
	}
	if m.Length != 4 {
		t.Errorf("Length = %d, want 4", m.Length)
	}
	if math.Abs(m.UniqueRatio-0.5) > 1e-9 {
		t.Errorf("UniqueRatio = %f, want 0.5", m.UniqueRatio)
	}
	if m.Perplexity != nil {
		t.Error("Perplexity set without a scorer")
	}
}

func TestCheckCountsRunes(t *testing.T) {
	c := NewSelfChecker()
	m, err := c.Check(context.Background(), "汉汉字")
	if err != nil {
		t.Fatal(err)
	}
	if m.Length != 3 {
		t.Errorf("Length = %d, want 3 runes", m.Length)
	}
}

func TestCheckEmptyOutput(t *testing.T) {
	c := NewSelfChecker()
	m, err := c.Check(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if m.Length != 0 || m.UniqueRatio != 0 {
		t.Errorf("metrics = %+v, want zeros", m)
	}
}

func TestCheckWithScorer(t *testing.T) {
	c := NewSelfChecker(WithPerplexityScorer(&fakeScorer{score: 12.5}))
	m, err := c.Check(context.Background(), "text")
	if err != nil {
		t.Fatal(err)
	}
	if m.Perplexity == nil || *m.Perplexity != 12.5 {
		t.Errorf("Perplexity = %v, want 12.5", m.Perplexity)
	}
}

func TestCheckScorerErrorPropagates(t *testing.T) {
	scoreErr := errors.New("scoring endpoint down")
	c := NewSelfChecker(WithPerplexityScorer(&fakeScorer{err: scoreErr}))
	if _, err := c.Check(context.Background(), "text"); !errors.Is(err, scoreErr) {
		t.Fatalf("got err %v, want scorer error", err)
	}
}
