package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	cleave "github.com/avesind/cleave"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func record(id string, createdAt time.Time) cleave.RunRecord {
	return cleave.RunRecord{
		ID:           id,
		Instruction:  "expand the outline",
		ChunkCount:   2,
		OutputLength: 42,
		CreatedAt:    createdAt,
		Chunks:       []string{"first chunk", "second chunk"},
	}
}

func TestSaveAndListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.SaveRun(ctx, record("run-old", base)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRun(ctx, record("run-new", base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	recs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].ID != "run-new" || recs[1].ID != "run-old" {
		t.Errorf("order = %q, %q; want newest first", recs[0].ID, recs[1].ID)
	}
	got := recs[0]
	if got.Instruction != "expand the outline" || got.ChunkCount != 2 || got.OutputLength != 42 {
		t.Errorf("record round-trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base.Add(time.Hour))
	}
}

func TestListRunsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.SaveRun(ctx, record(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
}

func TestSaveRunDuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := record("dup", time.Now().UTC())
	if err := s.SaveRun(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRun(ctx, rec); err == nil {
		t.Error("duplicate primary key accepted")
	}
}

func TestInitIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
}
