package effects

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

const (
	reverbSeconds = 0.1
	reverbDecay   = 10.0
)

// Reverb convolves the signal with a short decaying exponential impulse response
// and adds the result, scaled by the reverb amount, on top of the dry signal.
// The impulse is normalized to unit sum so the wet path has unity DC gain; the
// amount is therefore a wet-mix level, not a scale applied to the raw impulse.
type Reverb struct {
	impulse []float64
}

func NewReverb(sampleRate int) *Reverb {
	n := int(float64(sampleRate) * reverbSeconds)
	if n < 1 {
		n = 1
	}
	ir := make([]float64, n)
	var sum float64
	for i := range ir {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		ir[i] = math.Exp(-reverbDecay * t)
		sum += ir[i]
	}
	for i := range ir {
		ir[i] /= sum
	}
	return &Reverb{impulse: ir}
}

// ImpulseLen returns the impulse response length in samples.
func (r *Reverb) ImpulseLen() int {
	return len(r.impulse)
}

func (r *Reverb) Process(buf []float64, p Params) {
	amount := clamp(p.ReverbAmount, 0, 1)
	if amount == 0 || len(buf) == 0 {
		return
	}
	wet := convolve(buf, r.impulse)
	for i := range buf {
		buf[i] += wet[i] * amount
	}
}

// convolve returns the first len(x) samples of the linear convolution x*h, computed
// in the frequency domain on a power-of-two length.
func convolve(x, h []float64) []float64 {
	size := nextPow2(len(x) + len(h) - 1)
	xp := make([]float64, size)
	hp := make([]float64, size)
	copy(xp, x)
	copy(hp, h)

	X := fft.FFTReal(xp)
	H := fft.FFTReal(hp)
	for i := range X {
		X[i] *= H[i]
	}
	y := fft.IFFT(X)

	out := make([]float64, len(x))
	for i := range out {
		out[i] = real(y[i])
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
