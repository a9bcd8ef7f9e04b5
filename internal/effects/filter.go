package effects

import "math"

// maxResonance bounds the resonant component so its gain stays finite.
const maxResonance = 100

// Filter is a 2nd-order Butterworth low-pass with an optional resonant partial at
// the cutoff. Filter state starts from rest on every buffer.
type Filter struct {
	sampleRate float64
}

func NewFilter(sampleRate int) *Filter {
	return &Filter{sampleRate: float64(sampleRate)}
}

// Cutoff returns the effective cutoff for a requested value, clamped to
// [1 Hz, 0.99*nyquist].
func (f *Filter) Cutoff(requested float64) float64 {
	nyquist := f.sampleRate / 2
	return clamp(requested, 1, nyquist*0.99)
}

func (f *Filter) Process(buf []float64, p Params) {
	if len(buf) == 0 || f.sampleRate <= 0 {
		return
	}
	fc := f.Cutoff(p.FilterCutoffHz)
	b0, b1, b2, a1, a2 := butterworthLowpass(fc / f.sampleRate)

	var x1, x2, y1, y2 float64
	for i, x := range buf {
		y := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		buf[i] = y
	}

	if res := p.FilterResonance; res > 1 {
		gain := (clamp(res, 1, maxResonance) - 1) * 0.1
		w := 2 * math.Pi * fc / f.sampleRate
		for i := range buf {
			buf[i] += math.Sin(w*float64(i)) * gain
		}
	}
	clampBuffer(buf)
}

// butterworthLowpass designs a 2-pole Butterworth low-pass by bilinear transform.
// norm is the cutoff divided by the sample rate, in (0, 0.5).
func butterworthLowpass(norm float64) (b0, b1, b2, a1, a2 float64) {
	k := math.Tan(math.Pi * norm)
	k2 := k * k
	scale := 1 / (1 + math.Sqrt2*k + k2)
	b0 = k2 * scale
	b1 = 2 * b0
	b2 = b0
	a1 = 2 * (k2 - 1) * scale
	a2 = (1 - math.Sqrt2*k + k2) * scale
	return
}
