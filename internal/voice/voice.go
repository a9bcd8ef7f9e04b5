package voice

import (
	"github.com/cbegin/subharmonicon-go/internal/wave"
)

const (
	MinDivisor = 1
	MaxDivisor = 16
)

// DefaultDivisors are the subharmonic divisors of a freshly created oscillator.
var DefaultDivisors = []int{2, 3}

// Oscillator is one voice slot: a main oscillator plus its subharmonics.
// SubLevels and Divisors are parallel; a subharmonic without a divisor entry
// falls back to DefaultDivisors or, past those, to its index+2.
type Oscillator struct {
	Frequency float64
	Shape     wave.Shape
	Level     float64
	Phase     float64
	SubLevels []float64
	Divisors  []int
}

// NewOscillator returns an oscillator with the default two subharmonics.
func NewOscillator(freq float64, shape wave.Shape, level float64, subLevels ...float64) Oscillator {
	o := Oscillator{
		Frequency: freq,
		Shape:     shape,
		Level:     level,
		SubLevels: append([]float64(nil), subLevels...),
	}
	o.Divisors = make([]int, len(o.SubLevels))
	for i := range o.Divisors {
		o.Divisors[i] = o.Divisor(i)
	}
	return o
}

// Divisor returns the divisor used by subharmonic i.
func (o Oscillator) Divisor(i int) int {
	if i < len(o.Divisors) && o.Divisors[i] >= MinDivisor {
		return clampInt(o.Divisors[i], MinDivisor, MaxDivisor)
	}
	if i < len(DefaultDivisors) {
		return DefaultDivisors[i]
	}
	return clampInt(i+2, MinDivisor, MaxDivisor)
}

// SubFrequencies derives the subharmonic frequencies from the current main
// frequency. The result is computed on every call.
func (o Oscillator) SubFrequencies() []float64 {
	out := make([]float64, len(o.SubLevels))
	for i := range out {
		out[i] = o.Frequency / float64(o.Divisor(i))
	}
	return out
}

// Clone returns a deep copy safe to use outside the owner's lock.
func (o Oscillator) Clone() Oscillator {
	o.SubLevels = append([]float64(nil), o.SubLevels...)
	o.Divisors = append([]int(nil), o.Divisors...)
	return o
}

// Mix renders the oscillator and its subharmonics for the given duration and
// normalizes by 1+len(SubLevels), so with levels in [0,1] the result stays in [-1,1].
func Mix(o Oscillator, seconds float64, sampleRate int) []float64 {
	n := wave.Len(seconds, sampleRate)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	addWeighted(out, wave.Generate(o.Shape, o.Frequency, o.Phase, seconds, sampleRate), clamp(o.Level, 0, 1))
	for i, sub := range o.SubFrequencies() {
		addWeighted(out, wave.Generate(o.Shape, sub, o.Phase, seconds, sampleRate), clamp(o.SubLevels[i], 0, 1))
	}
	norm := 1 / float64(1+len(o.SubLevels))
	for i := range out {
		out[i] *= norm
	}
	return out
}

// MixAll sums Mix over every oscillator and divides by the oscillator count.
func MixAll(oscs []Oscillator, seconds float64, sampleRate int) []float64 {
	n := wave.Len(seconds, sampleRate)
	out := make([]float64, n)
	if len(oscs) == 0 || n == 0 {
		return out
	}
	for _, o := range oscs {
		addWeighted(out, Mix(o, seconds, sampleRate), 1)
	}
	norm := 1 / float64(len(oscs))
	for i := range out {
		out[i] *= norm
	}
	return out
}

// addWeighted accumulates src*gain into dst. A nil src (silent oscillator) adds nothing.
func addWeighted(dst, src []float64, gain float64) {
	if gain == 0 {
		return
	}
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] += src[i] * gain
	}
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

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
