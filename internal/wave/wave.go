package wave

import (
	"math"
	"strings"
)

const twoPi = math.Pi * 2

// Shape selects the periodic waveform an oscillator produces.
type Shape int

const (
	Saw Shape = iota
	Square
	Triangle
	Sine
	numShapes
)

var shapeNames = [numShapes]string{"saw", "square", "triangle", "sine"}

// sampleFuncs maps each shape to its sample function; phase is in cycles.
var sampleFuncs = [numShapes]func(p float64) float64{
	Saw: func(p float64) float64 {
		return 2*p - 1
	},
	Square: func(p float64) float64 {
		if p < 0.5 {
			return 1
		}
		return -1
	},
	Triangle: func(p float64) float64 {
		if p < 0.5 {
			return 4*p - 1
		}
		return 3 - 4*p
	},
	Sine: func(p float64) float64 {
		return math.Sin(twoPi * p)
	},
}

func (s Shape) String() string {
	if s.Valid() {
		return shapeNames[s]
	}
	return "unknown"
}

func (s Shape) Valid() bool {
	return s >= 0 && s < numShapes
}

// Next returns the shape that follows s in the saw, square, triangle, sine cycle.
func (s Shape) Next() Shape {
	if !s.Valid() {
		return Saw
	}
	return (s + 1) % numShapes
}

// ParseShape maps a shape name to a Shape.
func ParseShape(name string) (Shape, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "saw", "sawtooth":
		return Saw, true
	case "square":
		return Square, true
	case "triangle", "tri":
		return Triangle, true
	case "sine", "sin":
		return Sine, true
	}
	return Saw, false
}

// Sample returns the value of shape at phase (in cycles). Any phase is accepted;
// only its fractional part matters. Invalid shapes fall back to Saw.
func Sample(shape Shape, phase float64) float64 {
	p := phase - math.Floor(phase)
	if !shape.Valid() {
		shape = Saw
	}
	return sampleFuncs[shape](p)
}

// Cycle renders one cycle of shape at freq. The buffer holds floor(sampleRate/freq)
// samples, at most one second's worth; below 1 Hz only the first second of the
// cycle is rendered. A non-positive frequency yields nil.
func Cycle(shape Shape, freq, phase float64, sampleRate int) []float64 {
	freq, ok := usableFreq(freq, sampleRate)
	if !ok {
		return nil
	}
	n := sampleRate
	if freq >= 1 {
		n = int(float64(sampleRate) / freq)
	}
	return render(make([]float64, n), shape, freq, phase, sampleRate)
}

// Generate renders floor(sampleRate*seconds) samples of shape at freq starting at
// the given phase offset. A non-positive frequency yields nil.
func Generate(shape Shape, freq, phase, seconds float64, sampleRate int) []float64 {
	n := Len(seconds, sampleRate)
	freq, ok := usableFreq(freq, sampleRate)
	if !ok || n == 0 {
		return nil
	}
	return render(make([]float64, n), shape, freq, phase, sampleRate)
}

// Len returns the sample count for a duration, floor(sampleRate*seconds).
func Len(seconds float64, sampleRate int) int {
	if sampleRate <= 0 || !(seconds > 0) || math.IsInf(seconds, 1) {
		return 0
	}
	return int(float64(sampleRate) * seconds)
}

func render(dst []float64, shape Shape, freq, phase float64, sampleRate int) []float64 {
	inc := freq / float64(sampleRate)
	for i := range dst {
		dst[i] = Sample(shape, phase+float64(i)*inc)
	}
	return dst
}

// usableFreq rejects non-positive or NaN frequencies and clamps the rest to Nyquist.
func usableFreq(freq float64, sampleRate int) (float64, bool) {
	if sampleRate <= 0 || !(freq > 0) {
		return 0, false
	}
	nyquist := float64(sampleRate) / 2
	if freq > nyquist {
		freq = nyquist
	}
	return freq, true
}
