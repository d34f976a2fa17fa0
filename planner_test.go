package cleave

import "testing"

func TestPlannerBuild(t *testing.T) {
	p := NewPlanner(5)
	plan := p.Build("summarize", []string{"first chunk body", "tiny"})
	if len(plan) != 2 {
		t.Fatalf("got %d items, want 2", len(plan))
	}
	if plan[0].Index != 0 || plan[1].Index != 1 {
		t.Errorf("indices = %d, %d; want 0, 1", plan[0].Index, plan[1].Index)
	}
	if plan[0].Summary != "first" {
		t.Errorf("summary = %q, want truncation to 5 runes", plan[0].Summary)
	}
	if plan[1].Summary != "tiny" {
		t.Errorf("short chunk summary = %q, want the chunk itself", plan[1].Summary)
	}
	if plan[0].Chunk != "first chunk body" {
		t.Errorf("chunk = %q, want the full chunk", plan[0].Chunk)
	}
	if plan[0].Instruction != "summarize" {
		t.Errorf("instruction = %q", plan[0].Instruction)
	}
}

func TestPlannerTruncatesRunes(t *testing.T) {
	p := NewPlanner(3)
	plan := p.Build("i", []string{"汉字测试文本"})
	if plan[0].Summary != "汉字测" {
		t.Errorf("summary = %q, want first 3 runes", plan[0].Summary)
	}
}

func TestPlannerEmptyChunks(t *testing.T) {
	p := NewPlanner(10)
	if plan := p.Build("i", nil); len(plan) != 0 {
		t.Errorf("got %d items, want 0", len(plan))
	}
}
