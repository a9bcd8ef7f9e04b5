package effects

import (
	"math"
	"sync/atomic"
)

// EQ5Band is the master tone control: a 5-band equalizer with runtime-adjustable
// gains. Bands are split at 200Hz, 800Hz, 2.5kHz, and 8kHz.
// Gains are stored as uint64 (bit-cast float64) so they can be changed from any
// goroutine while buffers are being rendered.
type EQ5Band struct {
	gains  [5]atomic.Uint64 // float64 bit patterns; 1.0 = unity
	alphas [4]float64       // crossover filter coefficients
}

var defaultCrossovers = [4]float64{200, 800, 2500, 8000}

const eqBands = 5

// NewEQ5Band creates a 5-band EQ with all gains at unity.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1.0 / float64(sampleRate)
	for i, freq := range defaultCrossovers {
		rc := 1.0 / (2.0 * math.Pi * freq)
		eq.alphas[i] = dt / (rc + dt)
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float64bits(1.0))
	}
	return eq
}

// SetGain sets the gain for band (0-4). 1.0 = unity, 0.0 = silence, 2.0 = +6dB.
// Negative and NaN gains are treated as 0.
func (eq *EQ5Band) SetGain(band int, gain float64) {
	if band >= 0 && band < eqBands {
		eq.gains[band].Store(math.Float64bits(clamp(gain, 0, 4)))
	}
}

// Gain returns the current gain for band (0-4).
func (eq *EQ5Band) Gain(band int) float64 {
	if band >= 0 && band < eqBands {
		return math.Float64frombits(eq.gains[band].Load())
	}
	return 1.0
}

func (eq *EQ5Band) flat(gains *[eqBands]float64) bool {
	flat := true
	for i := range gains {
		gains[i] = eq.Gain(i)
		if gains[i] != 1 {
			flat = false
		}
	}
	return flat
}

// Process splits each sample into 5 bands with 4 cascaded one-pole crossovers and
// recombines them with the band gains. Unity gains leave the buffer untouched.
func (eq *EQ5Band) Process(buf []float64, _ Params) {
	var gains [eqBands]float64
	if eq.flat(&gains) {
		return
	}
	var lp [4]float64
	for n, x := range buf {
		var out float64
		rem := x
		for i := 0; i < 4; i++ {
			lp[i] += eq.alphas[i] * (rem - lp[i])
			out += lp[i] * gains[i]
			rem -= lp[i]
		}
		out += rem * gains[4]
		buf[n] = out
	}
}
