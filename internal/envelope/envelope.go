// Package envelope shapes a rendered buffer with a fixed proportional ADSR contour.
package envelope

const (
	AttackFrac   = 0.05
	DecayFrac    = 0.10
	SustainFrac  = 0.50
	SustainLevel = 0.7
)

// Segments holds the sample counts of each envelope stage for one buffer.
type Segments struct {
	Attack, Decay, Sustain, Release int
}

// Split partitions n samples into attack/decay/sustain/release. Every segment is
// non-negative and they sum to n. For n >= 1 the attack holds at least one sample
// so the contour starts at zero; for n >= 2 the release holds at least one so it
// ends at zero.
func Split(n int) Segments {
	if n <= 0 {
		return Segments{}
	}
	s := Segments{
		Attack:  int(AttackFrac * float64(n)),
		Decay:   int(DecayFrac * float64(n)),
		Sustain: int(SustainFrac * float64(n)),
	}
	if s.Attack < 1 {
		s.Attack = 1
	}
	minRelease := 0
	if n >= 2 {
		minRelease = 1
	}
	s.Release = n - s.Attack - s.Decay - s.Sustain
	if s.Release < minRelease {
		s.Sustain -= minRelease - s.Release
		s.Release = minRelease
		if s.Sustain < 0 {
			s.Decay += s.Sustain
			s.Sustain = 0
		}
	}
	return s
}

// Curve returns the n-sample envelope.
func Curve(n int) []float64 {
	env := make([]float64, n)
	seg := Split(n)
	i := ramp(env, 0, seg.Attack, 0, 1)
	i = ramp(env, i, seg.Decay, 1, SustainLevel)
	for end := i + seg.Sustain; i < end; i++ {
		env[i] = SustainLevel
	}
	ramp(env, i, seg.Release, SustainLevel, 0)
	if seg.Release > 0 {
		env[n-1] = 0
	}
	return env
}

// Apply returns a copy of buf multiplied by the envelope.
func Apply(buf []float64) []float64 {
	out := make([]float64, len(buf))
	copy(out, buf)
	ApplyInPlace(out)
	return out
}

// ApplyInPlace multiplies buf by the envelope.
func ApplyInPlace(buf []float64) {
	for i, g := range Curve(len(buf)) {
		buf[i] *= g
	}
}

// ramp writes n evenly spaced values from a to b (both inclusive) starting at
// dst[start] and returns the index after the last written sample. A single-sample
// ramp holds a.
func ramp(dst []float64, start, n int, a, b float64) int {
	if n <= 0 {
		return start
	}
	if n == 1 {
		dst[start] = a
		return start + 1
	}
	step := (b - a) / float64(n-1)
	for k := 0; k < n-1; k++ {
		dst[start+k] = a + step*float64(k)
	}
	dst[start+n-1] = b
	return start + n
}
