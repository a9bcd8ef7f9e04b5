package patternstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cbegin/subharmonicon-go/internal/sequencer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := sequencer.DefaultPattern()
	p.SetTrack(3, []float64{0, 0.25, 0, 0.75})
	if err := s.Save(ctx, "groove", p, 180*time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	e, err := s.Load(ctx, "groove")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Pattern != p {
		t.Fatalf("pattern mismatch:\n got %v\nwant %v", e.Pattern, p)
	}
	if e.StepDuration != 180*time.Millisecond {
		t.Fatalf("step = %v, want 180ms", e.StepDuration)
	}
	if e.UpdatedAt.IsZero() {
		t.Fatal("updated_at not set")
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_ = s.Save(ctx, "a", sequencer.FromSteps([]float64{1}), time.Second)
	if err := s.Save(ctx, "a", sequencer.FromSteps([]float64{0, 1}), 100*time.Millisecond); err != nil {
		t.Fatalf("second save: %v", err)
	}
	e, err := s.Load(ctx, "a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if w := e.Pattern.Weights(); w[0] != 0 || w[1] != 1 {
		t.Fatalf("pattern not replaced: %v", w)
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %d entries, %v; want 1", len(list), err)
	}
}

func TestListOrderedByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"verse", "bridge", "chorus"} {
		if err := s.Save(ctx, name, sequencer.DefaultPattern(), sequencer.DefaultStepDuration); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"bridge", "chorus", "verse"}
	if len(list) != len(want) {
		t.Fatalf("list = %d entries, want %d", len(list), len(want))
	}
	for i, e := range list {
		if e.Name != want[i] {
			t.Fatalf("entry %d = %q, want %q", i, e.Name, want[i])
		}
	}
}

func TestMissingPatterns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.Load(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete err = %v, want ErrNotFound", err)
	}
	_ = s.Save(ctx, "x", sequencer.DefaultPattern(), time.Second)
	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted pattern still loads: %v", err)
	}
	if err := s.Save(ctx, "  ", sequencer.DefaultPattern(), time.Second); err == nil {
		t.Fatal("expected error for blank name")
	}
}
