package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cbegin/subharmonicon-go"
	"github.com/cbegin/subharmonicon-go/internal/audio"
	"github.com/cbegin/subharmonicon-go/internal/keymap"
	"github.com/cbegin/subharmonicon-go/internal/patternstore"
)

func TestParseSequence(t *testing.T) {
	steps, err := parseSequence("1, 0,0.5,,0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []float64{1, 0, 0.5, 0}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}
	if _, err := parseSequence("1,x"); err == nil {
		t.Fatal("expected error for non-numeric step")
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := newLogger("debug"); err != nil {
		t.Fatalf("debug: %v", err)
	}
	if _, err := newLogger("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestApplyBindings(t *testing.T) {
	sink := audio.NewCapture()
	synth, err := subharmonicon.New(8000, subharmonicon.WithSink(sink))
	if err != nil {
		t.Fatalf("new synth: %v", err)
	}
	for _, key := range keymap.Decode([]byte("z\x1b[A 3")) {
		b, _ := keymap.Lookup(key)
		if apply(synth, b, options{sampleRate: 8000}) {
			t.Fatalf("key %q should not quit", key)
		}
	}
	st := synth.Snapshot()
	if sink.Len() != 1 || st.Effects.FilterCutoffHz != 2100 || !st.SequencePlaying || !st.Recording {
		t.Fatalf("state after keys = %+v, captured %d", st, sink.Len())
	}
	quit, _ := keymap.Lookup("q")
	if !apply(synth, quit, options{}) {
		t.Fatal("q should quit")
	}
}

func testOptions(dir string) options {
	return options{
		sampleRate: 8000,
		backend:    audio.BackendNull,
		step:       20 * time.Millisecond,
		note:       10 * time.Millisecond,
		ratio:      1.5,
		waveform:   "saw",
		logLevel:   "error",
		patternDB:  filepath.Join(dir, "bank.db"),
	}
}

func TestRunRendersAndSavesPattern(t *testing.T) {
	dir := t.TempDir()
	opt := testOptions(dir)
	opt.sequence = "1,0,0.5"
	opt.renderOut = filepath.Join(dir, "pass.wav")
	opt.savePattern = "groove"
	if err := run(opt); err != nil {
		t.Fatalf("run: %v", err)
	}
	info, err := os.Stat(opt.renderOut)
	if err != nil || info.Size() != 44+16*160*4 {
		t.Fatalf("render output = %v, %v; want %d bytes", info, err, 44+16*160*4)
	}
	store, err := patternstore.Open(opt.patternDB)
	if err != nil {
		t.Fatalf("reopen bank: %v", err)
	}
	defer store.Close()
	e, err := store.Load(context.Background(), "groove")
	if err != nil {
		t.Fatalf("load saved pattern: %v", err)
	}
	if w := e.Pattern.Weights(); w[0] != 1 || w[2] != 0.5 || e.StepDuration != 20*time.Millisecond {
		t.Fatalf("saved pattern = %v at %v", w, e.StepDuration)
	}
}

func TestRunReturnsErrorsInsteadOfExiting(t *testing.T) {
	dir := t.TempDir()
	opt := testOptions(dir)
	opt.renderOut = filepath.Join(dir, "pass.wav")
	opt.pattern = "missing"
	if err := run(opt); !errors.Is(err, patternstore.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	opt = testOptions(dir)
	opt.waveform = "noise"
	if err := run(opt); err == nil {
		t.Fatal("expected error for unknown waveform")
	}
}
