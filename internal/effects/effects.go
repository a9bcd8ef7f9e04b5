package effects

import "math"

// Params is the mutable effect state owned by the synth. Values are stored as the
// caller set them; every stage clamps what it reads at process time.
type Params struct {
	FilterCutoffHz   float64
	FilterResonance  float64
	ReverbAmount     float64
	DelayTimeSeconds float64
	DelayFeedback    float64
}

// DefaultParams returns the power-on effect settings.
func DefaultParams() Params {
	return Params{
		FilterCutoffHz:   2000,
		FilterResonance:  1,
		ReverbAmount:     0.2,
		DelayTimeSeconds: 0.25,
		DelayFeedback:    0.3,
	}
}

// Effector processes a mono buffer in place using the current params.
type Effector interface {
	Process(buf []float64, p Params)
}

// Chain applies a sequence of effects in order and clamps the result to [-1,1].
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

// NewDefaultChain builds filter, reverb, delay and the master tone EQ, in that order.
// The EQ is returned so callers can adjust its bands.
func NewDefaultChain(sampleRate int) (*Chain, *EQ5Band) {
	eq := NewEQ5Band(sampleRate)
	return NewChain(
		NewFilter(sampleRate),
		NewReverb(sampleRate),
		NewDelay(sampleRate),
		eq,
	), eq
}

// Process runs every effect over buf in place. The buffer length never changes;
// tails that would extend past the end are dropped.
func (c *Chain) Process(buf []float64, p Params) {
	for _, e := range c.effects {
		e.Process(buf, p)
	}
	clampBuffer(buf)
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func clamp(v, lo, hi float64) float64 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampBuffer limits every sample to [-1,1]; NaN becomes silence.
func clampBuffer(buf []float64) {
	for i, s := range buf {
		switch {
		case math.IsNaN(s):
			buf[i] = 0
		case s > 1:
			buf[i] = 1
		case s < -1:
			buf[i] = -1
		}
	}
}
