package subharmonicon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	intaudio "github.com/cbegin/subharmonicon-go/internal/audio"
	intfx "github.com/cbegin/subharmonicon-go/internal/effects"
	intenv "github.com/cbegin/subharmonicon-go/internal/envelope"
	intseq "github.com/cbegin/subharmonicon-go/internal/sequencer"
	"github.com/cbegin/subharmonicon-go/internal/voice"
	"github.com/cbegin/subharmonicon-go/internal/wave"
)

const (
	DefaultFifthRatio   = 1.5
	DefaultNoteDuration = 100 * time.Millisecond
	// NumOscillators is the number of voice slots; the second tracks the first at FifthRatio.
	NumOscillators = 2
	eventBuffer    = 16
	// stopGrace is added to two step periods when waiting for the loop to exit.
	stopGrace = time.Second
)

var (
	ErrInvalidSampleRate = errors.New("sampleRate must be positive")
	ErrInvalidFrequency  = errors.New("frequency must be positive")
	ErrStopTimeout       = errors.New("sequencer loop did not exit in time")
	ErrLoopBusy          = errors.New("previous sequencer loop is still running")
	ErrNoSuchOscillator  = errors.New("oscillator index out of range")
)

// EventKind identifies an Event delivered through Watch.
type EventKind int

const (
	EventNotePlayed EventKind = iota
	EventStepPlayed
	EventDropped
	EventRecordingStarted
	EventRecordingStopped
	EventSequenceToggled
)

func (k EventKind) String() string {
	switch k {
	case EventNotePlayed:
		return "note"
	case EventStepPlayed:
		return "step"
	case EventDropped:
		return "dropped"
	case EventRecordingStarted:
		return "recording-started"
	case EventRecordingStopped:
		return "recording-stopped"
	case EventSequenceToggled:
		return "sequence-toggled"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event carries what happened to the engine. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Frequency float64
	Step      int
	Weight    float64
	Samples   int
	Running   bool
	Err       error
}

// EffectsPreset is one position of the CycleEffects rotation.
type EffectsPreset int

const (
	EffectsNone EffectsPreset = iota
	EffectsFilter
	EffectsReverb
	EffectsFilterReverb
	numEffectsPresets
)

var effectsPresetNames = [numEffectsPresets]string{"none", "filter", "reverb", "filter+reverb"}

func (p EffectsPreset) String() string {
	if p < 0 || p >= numEffectsPresets {
		return fmt.Sprintf("EffectsPreset(%d)", int(p))
	}
	return effectsPresetNames[p]
}

// cutoff and reverb amount installed by each preset.
func (p EffectsPreset) settings() (cutoff, reverb float64) {
	switch p {
	case EffectsFilter:
		return 800, 0
	case EffectsReverb:
		return 2000, 0.3
	case EffectsFilterReverb:
		return 800, 0.3
	default:
		return 2000, 0
	}
}

// EffectParams is the effect state used by the chain. Values are stored as set
// and clamped only when a buffer is processed.
type EffectParams = intfx.Params

// DefaultEffects returns the power-on effect settings.
func DefaultEffects() EffectParams {
	return intfx.DefaultParams()
}

type Option func(*config)

type config struct {
	sink         intaudio.Sink
	backend      string
	logger       *slog.Logger
	fifthRatio   float64
	noteDuration time.Duration
	stepDuration time.Duration
	effects      intfx.Params
	sampleTap    func([]float64)
}

func defaultConfig() config {
	return config{
		backend:      intaudio.BackendEbiten,
		fifthRatio:   DefaultFifthRatio,
		noteDuration: DefaultNoteDuration,
		stepDuration: intseq.DefaultStepDuration,
		effects:      intfx.DefaultParams(),
	}
}

// WithSink sends rendered buffers to sink instead of opening an audio backend.
// The Synth takes ownership and closes it in Close.
func WithSink(sink intaudio.Sink) Option {
	return func(cfg *config) {
		cfg.sink = sink
	}
}

// WithBackend selects the audio backend opened by New when no sink is given.
func WithBackend(name string) Option {
	return func(cfg *config) {
		cfg.backend = name
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithFifthRatio sets the frequency ratio of the second oscillator to the first.
func WithFifthRatio(ratio float64) Option {
	return func(cfg *config) {
		if ratio > 0 {
			cfg.fifthRatio = ratio
		}
	}
}

// WithNoteDuration sets the length of buffers rendered by TriggerNote.
func WithNoteDuration(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.noteDuration = d
		}
	}
}

func WithStepDuration(d time.Duration) Option {
	return func(cfg *config) {
		cfg.stepDuration = d
	}
}

func WithEffects(p EffectParams) Option {
	return func(cfg *config) {
		cfg.effects = p
	}
}

// WithSampleTap installs a callback invoked with each rendered buffer before it
// is enqueued. It runs on the triggering goroutine; keep work brief.
func WithSampleTap(tap func([]float64)) Option {
	return func(cfg *config) {
		cfg.sampleTap = tap
	}
}

// State is a point-in-time copy of the engine's settings.
type State struct {
	SampleRate      int
	Oscillators     []voice.Oscillator
	Effects         intfx.Params
	EffectsPreset   EffectsPreset
	FifthRatio      float64
	NoteDuration    time.Duration
	StepDuration    time.Duration
	CurrentStep     int
	Pattern         intseq.Pattern
	Recording       bool
	RecordedBuffers int
	SequencePlaying bool
	Running         bool
}

// Synth is the subharmonic synthesizer engine. It renders voices on demand from
// note triggers and from its sequencer, and hands the buffers to an audio sink.
type Synth struct {
	mu           sync.Mutex
	sampleRate   int
	oscs         []voice.Oscillator
	params       intfx.Params
	preset       EffectsPreset
	fifthRatio   float64
	noteDuration time.Duration
	chain        *intfx.Chain
	masterEQ     *intfx.EQ5Band
	seq          *intseq.Sequencer
	sink         intaudio.Sink
	sampleTap    func([]float64)
	log          *slog.Logger

	recMu     sync.Mutex
	recording bool
	takes     [][]float64

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	eventCh   chan Event
	eventChMu sync.Mutex
}

func New(sampleRate int, opts ...Option) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := cfg.sink
	if sink == nil {
		var err error
		sink, err = intaudio.Open(cfg.backend, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("open audio backend: %w", err)
		}
	}
	chain, eq := intfx.NewDefaultChain(sampleRate)
	s := &Synth{
		sampleRate:   sampleRate,
		oscs:         defaultOscillators(),
		params:       cfg.effects,
		fifthRatio:   cfg.fifthRatio,
		noteDuration: cfg.noteDuration,
		chain:        chain,
		masterEQ:     eq,
		sink:         sink,
		sampleTap:    cfg.sampleTap,
		log:          logger,
	}
	s.seq = intseq.NewWithOptions(intseq.Options{
		StepDuration: cfg.stepDuration,
		OnStep:       s.playStep,
		Logger:       logger,
	})
	return s, nil
}

func defaultOscillators() []voice.Oscillator {
	oscs := make([]voice.Oscillator, NumOscillators)
	for i := range oscs {
		oscs[i] = voice.NewOscillator(440, wave.Saw, 0.4, 0.3, 0.3)
	}
	return oscs
}

func (s *Synth) SampleRate() int {
	return s.sampleRate
}

// TriggerNote tunes the first oscillator to freq and the second to freq times the
// fifth ratio, renders one note and enqueues it. The rendered buffer is returned
// even when the sink rejects it; the error then reports the dropped buffer.
func (s *Synth) TriggerNote(freq float64) ([]float64, error) {
	if !(freq > 0) {
		return nil, ErrInvalidFrequency
	}
	s.mu.Lock()
	s.oscs[0].Frequency = freq
	if len(s.oscs) > 1 {
		s.oscs[1].Frequency = freq * s.fifthRatio
	}
	dur := s.noteDuration
	s.mu.Unlock()

	buf := s.render(dur, 1)
	s.appendRecording(buf)
	if err := s.output(buf); err != nil {
		s.log.Warn("note dropped", "frequency", freq, "samples", len(buf), "error", err)
		s.sendEvent(Event{Kind: EventDropped, Frequency: freq, Samples: len(buf), Err: err})
		return buf, err
	}
	s.log.Debug("note played", "frequency", freq, "samples", len(buf))
	s.sendEvent(Event{Kind: EventNotePlayed, Frequency: freq, Samples: len(buf)})
	return buf, nil
}

// playStep is the sequencer's step callback: a voice lasting one step period,
// scaled by the step weight.
func (s *Synth) playStep(step int, weight float64) error {
	buf := s.render(s.seq.StepDuration(), weight)
	if err := s.output(buf); err != nil {
		s.sendEvent(Event{Kind: EventDropped, Step: step, Weight: weight, Samples: len(buf), Err: err})
		return err
	}
	s.sendEvent(Event{Kind: EventStepPlayed, Step: step, Weight: weight, Samples: len(buf)})
	return nil
}

// render mixes the current oscillators for d, scales by gain and runs the
// envelope and effects chain. Oscillator and effect state is copied under the
// lock so rendering runs unlocked.
func (s *Synth) render(d time.Duration, gain float64) []float64 {
	s.mu.Lock()
	oscs := make([]voice.Oscillator, len(s.oscs))
	for i, o := range s.oscs {
		oscs[i] = o.Clone()
	}
	params := s.params
	s.mu.Unlock()

	buf := voice.MixAll(oscs, d.Seconds(), s.sampleRate)
	if gain != 1 {
		for i := range buf {
			buf[i] *= gain
		}
	}
	intenv.ApplyInPlace(buf)
	s.chain.Process(buf, params)
	return buf
}

func (s *Synth) output(buf []float64) error {
	if s.sampleTap != nil {
		s.sampleTap(buf)
	}
	return s.sink.Enqueue(buf)
}

func (s *Synth) appendRecording(buf []float64) {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	if s.recording {
		s.takes = append(s.takes, buf)
	}
}

// SetWaveform sets the shape of every oscillator. Invalid shapes are ignored.
func (s *Synth) SetWaveform(shape wave.Shape) {
	if !shape.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.oscs {
		s.oscs[i].Shape = shape
	}
}

// CycleWaveform advances every oscillator to the shape after the first one's and
// returns it.
func (s *Synth) CycleWaveform() wave.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.oscs[0].Shape.Next()
	for i := range s.oscs {
		s.oscs[i].Shape = next
	}
	return next
}

// AdjustFilterCutoff adds delta Hz to the stored cutoff. The stored value is not
// clamped; the filter clamps what it reads.
func (s *Synth) AdjustFilterCutoff(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.FilterCutoffHz += delta
	return s.params.FilterCutoffHz
}

// AdjustReverb adds delta to the stored reverb amount, unclamped.
func (s *Synth) AdjustReverb(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.ReverbAmount += delta
	return s.params.ReverbAmount
}

func (s *Synth) SetFilterResonance(res float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.FilterResonance = res
}

func (s *Synth) SetDelay(seconds, feedback float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.DelayTimeSeconds = seconds
	s.params.DelayFeedback = feedback
}

func (s *Synth) SetEffects(p EffectParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
}

func (s *Synth) Effects() EffectParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// CycleEffects rotates none -> filter -> reverb -> filter+reverb and installs the
// cutoff and reverb amount of the new preset.
func (s *Synth) CycleEffects() EffectsPreset {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preset = (s.preset + 1) % numEffectsPresets
	s.params.FilterCutoffHz, s.params.ReverbAmount = s.preset.settings()
	return s.preset
}

func (s *Synth) SetOscillatorFrequency(osc int, freq float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if osc < 0 || osc >= len(s.oscs) {
		return ErrNoSuchOscillator
	}
	s.oscs[osc].Frequency = freq
	return nil
}

func (s *Synth) SetLevel(osc int, level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if osc < 0 || osc >= len(s.oscs) {
		return ErrNoSuchOscillator
	}
	s.oscs[osc].Level = level
	return nil
}

// SetSubLevel sets the level of subharmonic sub on oscillator osc.
func (s *Synth) SetSubLevel(osc, sub int, level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if osc < 0 || osc >= len(s.oscs) {
		return ErrNoSuchOscillator
	}
	o := &s.oscs[osc]
	if sub < 0 || sub >= len(o.SubLevels) {
		return fmt.Errorf("subharmonic %d out of range", sub)
	}
	o.SubLevels[sub] = level
	return nil
}

// SetDivisor sets the divisor of subharmonic sub on oscillator osc, clamped to 1..16.
func (s *Synth) SetDivisor(osc, sub, divisor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if osc < 0 || osc >= len(s.oscs) {
		return ErrNoSuchOscillator
	}
	o := &s.oscs[osc]
	if sub < 0 || sub >= len(o.SubLevels) {
		return fmt.Errorf("subharmonic %d out of range", sub)
	}
	for len(o.Divisors) <= sub {
		o.Divisors = append(o.Divisors, o.Divisor(len(o.Divisors)))
	}
	o.Divisors[sub] = min(max(divisor, voice.MinDivisor), voice.MaxDivisor)
	return nil
}

// StartRecording begins a new take, discarding any unreturned one.
func (s *Synth) StartRecording() {
	s.recMu.Lock()
	s.recording = true
	s.takes = nil
	s.recMu.Unlock()
	s.sendEvent(Event{Kind: EventRecordingStarted})
}

// StopRecording ends the take and returns every recorded note concatenated in
// trigger order. It returns nil if nothing was recorded.
func (s *Synth) StopRecording() []float64 {
	s.recMu.Lock()
	takes := s.takes
	s.recording = false
	s.takes = nil
	s.recMu.Unlock()

	var n int
	for _, b := range takes {
		n += len(b)
	}
	var out []float64
	if n > 0 {
		out = make([]float64, 0, n)
		for _, b := range takes {
			out = append(out, b...)
		}
	}
	s.sendEvent(Event{Kind: EventRecordingStopped, Samples: n})
	return out
}

// ToggleRecording starts or stops recording. When it stops, the recorded samples
// are returned.
func (s *Synth) ToggleRecording() (recording bool, samples []float64) {
	if s.Recording() {
		return false, s.StopRecording()
	}
	s.StartRecording()
	return true, nil
}

func (s *Synth) Recording() bool {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	return s.recording
}

// SetSequence replaces the pattern with steps on the first track.
func (s *Synth) SetSequence(steps []float64) {
	s.seq.SetSequence(steps)
}

func (s *Synth) SetRhythm(track, division int) {
	s.seq.SetRhythm(track, division)
}

func (s *Synth) Pattern() intseq.Pattern {
	return s.seq.Pattern()
}

func (s *Synth) LoadPattern(p intseq.Pattern) {
	s.seq.SetPattern(p)
}

// ToggleSequence starts or stops step playback and returns whether it is now
// playing. Steps are only heard while the loop started by Start is running.
func (s *Synth) ToggleSequence() bool {
	playing := s.seq.Toggle()
	s.sendEvent(Event{Kind: EventSequenceToggled, Running: playing})
	return playing
}

func (s *Synth) SequencePlaying() bool {
	return s.seq.Running()
}

func (s *Synth) SetStepDuration(d time.Duration) {
	s.seq.SetStepDuration(d)
}

func (s *Synth) StepDuration() time.Duration {
	return s.seq.StepDuration()
}

func (s *Synth) CurrentStep() int {
	return s.seq.CurrentStep()
}

// Start launches the background sequencer loop. Calling Start on a running
// engine does nothing. If an earlier Stop timed out and that loop has still not
// exited, Start returns ErrLoopBusy instead of launching a second loop.
func (s *Synth) Start() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return nil
	}
	if s.done != nil {
		select {
		case <-s.done:
			s.done = nil
		default:
			return ErrLoopBusy
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func() {
		defer close(done)
		s.seq.Run(ctx)
	}()
	s.log.Debug("sequencer loop started", "step", s.seq.StepDuration())
	return nil
}

// Stop cancels the background loop and waits for it to exit, for at most two
// step periods plus a second. After a timeout the loop stays tracked, so a
// later Stop waits for it again and Start refuses to run alongside it.
func (s *Synth) Stop() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.done == nil {
		return nil
	}

	bound := 2*s.seq.StepDuration() + stopGrace
	select {
	case <-s.done:
		s.done = nil
		s.log.Debug("sequencer loop stopped")
		return nil
	case <-time.After(bound):
		s.log.Error("sequencer loop did not stop", "waited", bound)
		return ErrStopTimeout
	}
}

func (s *Synth) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cancel != nil
}

// Close stops the loop and closes the sink.
func (s *Synth) Close() error {
	return errors.Join(s.Stop(), s.sink.Close())
}

// Watch returns a channel that receives engine events: notes played, sequencer
// steps played, dropped buffers, recording and sequence state changes.
//
// The channel is buffered (cap 16); events are dropped while it is full.
// Only the most recent Watch() channel receives events.
func (s *Synth) Watch() <-chan Event {
	ch := make(chan Event, eventBuffer)
	s.eventChMu.Lock()
	s.eventCh = ch
	s.eventChMu.Unlock()
	return ch
}

func (s *Synth) sendEvent(ev Event) {
	s.eventChMu.Lock()
	ch := s.eventCh
	s.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

func (s *Synth) Snapshot() State {
	s.mu.Lock()
	oscs := make([]voice.Oscillator, len(s.oscs))
	for i, o := range s.oscs {
		oscs[i] = o.Clone()
	}
	st := State{
		SampleRate:    s.sampleRate,
		Oscillators:   oscs,
		Effects:       s.params,
		EffectsPreset: s.preset,
		FifthRatio:    s.fifthRatio,
		NoteDuration:  s.noteDuration,
	}
	s.mu.Unlock()

	s.recMu.Lock()
	st.Recording = s.recording
	st.RecordedBuffers = len(s.takes)
	s.recMu.Unlock()

	st.StepDuration = s.seq.StepDuration()
	st.CurrentStep = s.seq.CurrentStep()
	st.Pattern = s.seq.Pattern()
	st.SequencePlaying = s.seq.Running()
	st.Running = s.Running()
	return st
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// Takes effect from the next rendered buffer.
func (s *Synth) SetEQBand(band int, gain float64) {
	s.masterEQ.SetGain(band, gain)
}

func (s *Synth) EQBand(band int) float64 {
	return s.masterEQ.Gain(band)
}
