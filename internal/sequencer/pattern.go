package sequencer

const (
	Steps  = 16
	Tracks = 4
)

// Pattern holds the trigger weights of every step for each of the four rhythm
// tracks. Weights are kept in [0,1].
type Pattern [Steps][Tracks]float64

// Weight returns the effective weight of a step: the loudest of its tracks.
func (p Pattern) Weight(step int) float64 {
	step = wrapStep(step)
	var w float64
	for _, v := range p[step] {
		if v > w {
			w = v
		}
	}
	return w
}

// Empty reports whether no step on any track is active.
func (p Pattern) Empty() bool {
	for i := range p {
		if p.Weight(i) > 0 {
			return false
		}
	}
	return true
}

// SetTrack overwrites one track with steps, truncating or zero-padding to Steps.
func (p *Pattern) SetTrack(track int, steps []float64) {
	if track < 0 || track >= Tracks {
		return
	}
	for i := 0; i < Steps; i++ {
		var v float64
		if i < len(steps) {
			v = clampWeight(steps[i])
		}
		p[i][track] = v
	}
}

// Track returns a copy of one track's weights.
func (p Pattern) Track(track int) []float64 {
	out := make([]float64, Steps)
	if track < 0 || track >= Tracks {
		return out
	}
	for i := range out {
		out[i] = p[i][track]
	}
	return out
}

// Weights returns the effective weight of every step.
func (p Pattern) Weights() []float64 {
	out := make([]float64, Steps)
	for i := range out {
		out[i] = p.Weight(i)
	}
	return out
}

// FromSteps builds a pattern whose first track holds steps and whose other tracks
// are silent. Malformed input is truncated or zero-padded to Steps.
func FromSteps(steps []float64) Pattern {
	var p Pattern
	p.SetTrack(0, steps)
	return p
}

// DefaultPattern is the fill used when playback starts on an empty pattern:
// track 0 on every fourth step, track 1 on every third.
func DefaultPattern() Pattern {
	var p Pattern
	p.SetTrack(0, Rhythm(4))
	p.SetTrack(1, Rhythm(3))
	return p
}

// Rhythm returns a track that fires on every step divisible by division.
// The division is clamped to 1..Steps.
func Rhythm(division int) []float64 {
	if division < 1 {
		division = 1
	}
	if division > Steps {
		division = Steps
	}
	out := make([]float64, Steps)
	for i := range out {
		if i%division == 0 {
			out[i] = 1
		}
	}
	return out
}

func clampWeight(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func wrapStep(step int) int {
	step %= Steps
	if step < 0 {
		step += Steps
	}
	return step
}
