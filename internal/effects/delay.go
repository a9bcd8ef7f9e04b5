package effects

import "math"

const (
	delayTaps       = 3
	maxFeedback     = 0.95
	maxDelaySeconds = 10.0
)

// Delay adds three feedback taps of the dry signal. Taps wrap around the end of the
// buffer instead of extending it, so the output keeps the input length.
type Delay struct {
	sampleRate float64
}

func NewDelay(sampleRate int) *Delay {
	return &Delay{sampleRate: float64(sampleRate)}
}

// Feedback returns the effective feedback for a requested value.
func (d *Delay) Feedback(requested float64) float64 {
	return clamp(requested, 0, maxFeedback)
}

func (d *Delay) Process(buf []float64, p Params) {
	fb := d.Feedback(p.DelayFeedback)
	n := len(buf)
	if fb == 0 || n == 0 {
		return
	}
	shift := int(clamp(p.DelayTimeSeconds, 0, maxDelaySeconds) * d.sampleRate)

	dry := make([]float64, n)
	copy(dry, buf)

	for k := 1; k <= delayTaps; k++ {
		gain := math.Pow(fb, float64(k))
		offset := (k * shift) % n
		for i := range buf {
			j := i - offset
			if j < 0 {
				j += n
			}
			buf[i] += dry[j] * gain
		}
	}
}
