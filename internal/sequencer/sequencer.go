package sequencer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultStepDuration = 250 * time.Millisecond
	MinStepDuration     = 10 * time.Millisecond
	// idlePoll is how often a stopped sequencer checks whether it was started.
	idlePoll = 10 * time.Millisecond
)

// StepFunc renders and plays one step. A returned error drops that step only.
type StepFunc func(step int, weight float64) error

// StepResult describes one tick.
type StepResult struct {
	Step      int
	Weight    float64
	Running   bool
	Triggered bool
	Err       error
}

type Options struct {
	StepDuration time.Duration
	OnStep       StepFunc
	// OnTick observes every tick made while running, after OnStep returns.
	OnTick func(StepResult)
	Logger *slog.Logger
}

// Sequencer is a 16-step pattern player with its own wall-clock schedule.
// All methods are safe for concurrent use.
type Sequencer struct {
	mu           sync.Mutex
	pattern      Pattern
	current      int
	stepDuration time.Duration
	running      bool
	onStep       StepFunc
	onTick       func(StepResult)
	log          *slog.Logger
}

func New() *Sequencer {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Sequencer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sequencer{
		onStep: opts.OnStep,
		onTick: opts.OnTick,
		log:    logger,
	}
	s.stepDuration = normalizeStep(opts.StepDuration)
	return s
}

// Toggle flips between running and stopped and returns the new state. Starting
// on an all-zero pattern installs DefaultPattern first.
func (s *Sequencer) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRunningLocked(!s.running)
	return s.running
}

func (s *Sequencer) SetRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRunningLocked(running)
}

func (s *Sequencer) setRunningLocked(running bool) {
	if running && !s.running && s.pattern.Empty() {
		s.pattern = DefaultPattern()
		s.log.Debug("sequencer pattern empty, installed default pattern")
	}
	s.running = running
}

func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetSequence replaces the pattern with steps on the first track. Short input is
// zero-padded and long input truncated to Steps.
func (s *Sequencer) SetSequence(steps []float64) {
	p := FromSteps(steps)
	s.SetPattern(p)
}

func (s *Sequencer) SetTrack(track int, steps []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pattern.SetTrack(track, steps)
}

// SetRhythm refills a track so it fires every division steps.
func (s *Sequencer) SetRhythm(track int, division int) {
	s.SetTrack(track, Rhythm(division))
}

func (s *Sequencer) SetPattern(p Pattern) {
	for i := range p {
		for t := range p[i] {
			p[i][t] = clampWeight(p[i][t])
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pattern = p
}

func (s *Sequencer) Pattern() Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pattern
}

func (s *Sequencer) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetStep moves the playhead; any integer is wrapped into 0..Steps-1.
func (s *Sequencer) SetStep(step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = wrapStep(step)
}

func (s *Sequencer) StepDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepDuration
}

// SetStepDuration changes the step period from the next tick on. Values below
// MinStepDuration are raised to it.
func (s *Sequencer) SetStepDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepDuration = normalizeStep(d)
}

// Tick plays the current step if it is active and advances the playhead by one,
// wrapping from the last step to 0. A stopped sequencer does nothing. A failing
// OnStep is logged; the playhead advances regardless.
func (s *Sequencer) Tick() StepResult {
	s.mu.Lock()
	if !s.running {
		res := StepResult{Step: s.current}
		s.mu.Unlock()
		return res
	}
	step := s.current
	weight := s.pattern.Weight(step)
	s.current = (step + 1) % Steps
	onStep, onTick := s.onStep, s.onTick
	s.mu.Unlock()

	res := StepResult{Step: step, Weight: weight, Running: true}
	if weight > 0 && onStep != nil {
		res.Err = onStep(step, weight)
		res.Triggered = res.Err == nil
		if res.Err != nil {
			s.log.Warn("sequencer step dropped", "step", step, "weight", weight, "error", res.Err)
		}
	}
	if onTick != nil {
		onTick(res)
	}
	return res
}

// Run ticks on a wall-clock schedule until ctx is cancelled. Step playback does
// not block the schedule; a tick that overruns its period pushes the schedule
// forward instead of bunching up late ticks.
func (s *Sequencer) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	next := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		res := s.Tick()
		now := time.Now()
		if res.Running {
			next = next.Add(s.StepDuration())
			if next.Before(now) {
				next = now
			}
		} else {
			next = now.Add(idlePoll)
		}
		timer.Reset(next.Sub(now))
	}
}

func normalizeStep(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultStepDuration
	}
	if d < MinStepDuration {
		return MinStepDuration
	}
	return d
}
