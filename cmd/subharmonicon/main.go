package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/cbegin/subharmonicon-go"
	"github.com/cbegin/subharmonicon-go/internal/audio"
	"github.com/cbegin/subharmonicon-go/internal/keymap"
	"github.com/cbegin/subharmonicon-go/internal/patternstore"
	"github.com/cbegin/subharmonicon-go/internal/wave"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

type options struct {
	sampleRate  int
	backend     string
	step        time.Duration
	note        time.Duration
	ratio       float64
	waveform    string
	sequence    string
	patternDB   string
	pattern     string
	savePattern string
	recordOut   string
	renderOut   string
	headless    time.Duration
	dump        bool
	logLevel    string
}

func main() {
	var opt options
	pflag.IntVarP(&opt.sampleRate, "sample-rate", "r", 44100, "output sample rate")
	pflag.StringVarP(&opt.backend, "backend", "b", audio.BackendEbiten, "audio backend: "+strings.Join(audio.Backends, "|"))
	pflag.DurationVar(&opt.step, "step", 250*time.Millisecond, "sequencer step duration")
	pflag.DurationVar(&opt.note, "note", subharmonicon.DefaultNoteDuration, "duration of keyboard notes")
	pflag.Float64Var(&opt.ratio, "ratio", subharmonicon.DefaultFifthRatio, "second oscillator frequency ratio")
	pflag.StringVarP(&opt.waveform, "waveform", "w", "saw", "initial waveform: saw|square|triangle|sine")
	pflag.StringVarP(&opt.sequence, "sequence", "s", "", "comma-separated step weights for the first track")
	pflag.StringVar(&opt.patternDB, "pattern-db", "", "SQLite pattern bank path")
	pflag.StringVarP(&opt.pattern, "pattern", "p", "", "pattern to load from the bank")
	pflag.StringVar(&opt.savePattern, "save-pattern", "", "save the pattern under this name on exit")
	pflag.StringVar(&opt.recordOut, "record-out", "", "write stopped recordings to this WAV file")
	pflag.StringVar(&opt.renderOut, "render-out", "", "render one pass of the pattern to this WAV file and exit")
	pflag.DurationVar(&opt.headless, "headless", 0, "play the sequence for this long without reading the keyboard")
	pflag.BoolVar(&opt.dump, "dump", false, "dump the engine state on exit")
	pflag.StringVar(&opt.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	pflag.Parse()

	if err := run(opt); err != nil {
		log.Fatal(err)
	}
}

// run owns every resource it opens, so deferred closes run on all exit paths.
func run(opt options) error {
	logger, err := newLogger(opt.logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	shape, ok := wave.ParseShape(opt.waveform)
	if !ok {
		return fmt.Errorf("invalid --waveform %q (expected saw|square|triangle|sine)", opt.waveform)
	}
	steps, err := parseSequence(opt.sequence)
	if err != nil {
		return err
	}

	backend := opt.backend
	if opt.renderOut != "" {
		backend = audio.BackendNull
	}
	synth, err := subharmonicon.New(opt.sampleRate,
		subharmonicon.WithBackend(backend),
		subharmonicon.WithLogger(logger),
		subharmonicon.WithStepDuration(opt.step),
		subharmonicon.WithNoteDuration(opt.note),
		subharmonicon.WithFifthRatio(opt.ratio),
	)
	if err != nil {
		return err
	}
	defer synth.Close()
	synth.SetWaveform(shape)
	if len(steps) > 0 {
		synth.SetSequence(steps)
	}

	var store *patternstore.Store
	if opt.patternDB != "" {
		store, err = patternstore.Open(opt.patternDB)
		if err != nil {
			return err
		}
		defer store.Close()
		if opt.pattern != "" {
			entry, err := store.Load(context.Background(), opt.pattern)
			if err != nil {
				return err
			}
			synth.LoadPattern(entry.Pattern)
			synth.SetStepDuration(entry.StepDuration)
			green.Printf("loaded pattern %q (%v/step)\n", entry.Name, entry.StepDuration)
		}
	}

	switch {
	case opt.renderOut != "":
		buf := synth.RenderPattern()
		if err := writeWAV(opt.renderOut, buf, opt.sampleRate); err != nil {
			return err
		}
		green.Printf("rendered %d samples to %s\n", len(buf), opt.renderOut)
	case opt.headless > 0:
		if err := runHeadless(synth, opt.headless); err != nil {
			return err
		}
	default:
		if err := runInteractive(synth, opt); err != nil {
			return err
		}
	}

	if store != nil && opt.savePattern != "" {
		if err := store.Save(context.Background(), opt.savePattern, synth.Pattern(), synth.StepDuration()); err != nil {
			return err
		}
		green.Printf("saved pattern %q\n", opt.savePattern)
	}
	if opt.dump {
		spew.Fdump(os.Stdout, synth.Snapshot())
	}
	return nil
}

func runHeadless(synth *subharmonicon.Synth, d time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if !synth.SequencePlaying() {
		synth.ToggleSequence()
	}
	if err := synth.Start(); err != nil {
		return err
	}
	cyan.Printf("playing sequence for %v\n", d)
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
	return synth.Stop()
}

func runInteractive(synth *subharmonicon.Synth, opt options) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("stdin is not a terminal; use --headless or --render-out")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	go printEvents(synth.Watch())
	if err := synth.Start(); err != nil {
		return err
	}
	defer synth.Stop()

	status("keys z..' play notes, 1 waveform, 2 effects, 3 record, space sequence, arrows filter/reverb, q quit")
	buf := make([]byte, 16)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return fmt.Errorf("read keyboard: %w", err)
		}
		for _, key := range keymap.Decode(buf[:n]) {
			b, ok := keymap.Lookup(key)
			if !ok {
				continue
			}
			if quit := apply(synth, b, opt); quit {
				return nil
			}
		}
	}
}

// apply performs one key binding and reports whether the program should exit.
func apply(synth *subharmonicon.Synth, b keymap.Binding, opt options) bool {
	switch b.Action {
	case keymap.ActionNote:
		// Failures are logged and reported through Watch.
		_, _ = synth.TriggerNote(b.Frequency)
	case keymap.ActionCycleWaveform:
		status("waveform: %v", synth.CycleWaveform())
	case keymap.ActionCycleEffects:
		status("effects: %v", synth.CycleEffects())
	case keymap.ActionToggleRecording:
		recording, samples := synth.ToggleRecording()
		if recording {
			status("recording")
			break
		}
		status("recording stopped: %d samples", len(samples))
		if opt.recordOut != "" && len(samples) > 0 {
			if err := writeWAV(opt.recordOut, samples, opt.sampleRate); err != nil {
				yellow.Printf("write %s: %v\r\n", opt.recordOut, err)
			} else {
				status("wrote %s", opt.recordOut)
			}
		}
	case keymap.ActionToggleSequence:
		if synth.ToggleSequence() {
			status("sequence playing")
		} else {
			status("sequence stopped")
		}
	case keymap.ActionFilter:
		status("filter cutoff: %.0f Hz", synth.AdjustFilterCutoff(b.Delta))
	case keymap.ActionReverb:
		status("reverb amount: %.1f", synth.AdjustReverb(b.Delta))
	case keymap.ActionQuit:
		return true
	}
	return false
}

func printEvents(ch <-chan subharmonicon.Event) {
	for ev := range ch {
		if ev.Kind == subharmonicon.EventDropped {
			yellow.Printf("dropped buffer (%d samples): %v\r\n", ev.Samples, ev.Err)
		}
	}
}

// status prints a line that stays aligned while the terminal is in raw mode.
func status(format string, args ...any) {
	green.Printf(format+"\r\n", args...)
}

func writeWAV(path string, samples []float64, sampleRate int) error {
	wav := subharmonicon.EncodeWAVFloat32LE(subharmonicon.Float32(samples), sampleRate, 1)
	return os.WriteFile(path, wav, 0o644)
}

func parseSequence(s string) ([]float64, error) {
	var steps []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --sequence step %q: %w", field, err)
		}
		steps = append(steps, v)
	}
	return steps, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
