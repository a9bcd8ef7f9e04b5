package wave

import (
	"math"
	"testing"
)

var allShapes = []Shape{Saw, Square, Triangle, Sine}

func TestCycleLengthAndRange(t *testing.T) {
	freqs := []float64{20, 55, 110, 441, 1000, 4410, 22050}
	for _, shape := range allShapes {
		for _, f := range freqs {
			buf := Cycle(shape, f, 0, 44100)
			want := int(44100 / f)
			if len(buf) != want {
				t.Fatalf("%s @ %v Hz: len = %d, want %d", shape, f, len(buf), want)
			}
			for i, s := range buf {
				if s < -1 || s > 1 {
					t.Fatalf("%s @ %v Hz: sample %d = %f out of range", shape, f, i, s)
				}
			}
		}
	}
}

func TestGenerateLength(t *testing.T) {
	buf := Generate(Sine, 440, 0, 0.1, 44100)
	if len(buf) != 4410 {
		t.Fatalf("len = %d, want 4410", len(buf))
	}
}

func TestNonPositiveFrequencyIsSilent(t *testing.T) {
	for _, f := range []float64{0, -10, math.NaN()} {
		if buf := Cycle(Saw, f, 0, 44100); buf != nil {
			t.Errorf("Cycle(%v) = %d samples, want nil", f, len(buf))
		}
		if buf := Generate(Saw, f, 0, 0.1, 44100); buf != nil {
			t.Errorf("Generate(%v) = %d samples, want nil", f, len(buf))
		}
	}
}

func TestFrequencyAboveNyquistIsClamped(t *testing.T) {
	buf := Cycle(Square, 100000, 0, 48000)
	if len(buf) != 2 {
		t.Fatalf("len = %d, want 2 (one cycle at nyquist)", len(buf))
	}
}

func TestShapeValues(t *testing.T) {
	cases := []struct {
		shape Shape
		phase float64
		want  float64
	}{
		{Saw, 0, -1},
		{Saw, 0.5, 0},
		{Square, 0.25, 1},
		{Square, 0.75, -1},
		{Triangle, 0, -1},
		{Triangle, 0.25, 0},
		{Triangle, 0.5, 1},
		{Triangle, 0.75, 0},
		{Sine, 0.25, 1},
		{Sine, 1.25, 1},
	}
	for _, tc := range cases {
		got := Sample(tc.shape, tc.phase)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s at phase %v: got %f, want %f", tc.shape, tc.phase, got, tc.want)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(Triangle, 330, 0.3, 0.05, 48000)
	b := Generate(Triangle, 330, 0.3, 0.05, 48000)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestShapeCycleAndParse(t *testing.T) {
	s := Saw
	for i := 0; i < 4; i++ {
		s = s.Next()
	}
	if s != Saw {
		t.Fatalf("four Next calls should return to saw, got %s", s)
	}
	for _, name := range []string{"saw", "square", "triangle", "sine"} {
		shape, ok := ParseShape(name)
		if !ok || shape.String() != name {
			t.Errorf("ParseShape(%q) = %s, %v", name, shape, ok)
		}
	}
	if _, ok := ParseShape("noise"); ok {
		t.Error("noise should not parse")
	}
}

func TestCycleBelowOneHertzIsCappedAtOneSecond(t *testing.T) {
	for _, f := range []float64{1e-12, 1e-300, 0.5, math.SmallestNonzeroFloat64} {
		buf := Cycle(Saw, f, 0, 44100)
		if len(buf) != 44100 {
			t.Fatalf("Cycle(%g Hz) len = %d, want 44100", f, len(buf))
		}
		for i, s := range buf {
			if s < -1 || s > 1 || math.IsNaN(s) {
				t.Fatalf("Cycle(%g Hz) sample %d = %v", f, i, s)
			}
		}
	}
	if n := len(Cycle(Sine, 1, 0, 44100)); n != 44100 {
		t.Fatalf("Cycle(1 Hz) len = %d, want 44100", n)
	}
}
