package envelope

import (
	"math"
	"testing"
)

func ones(n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = 1
	}
	return buf
}

func TestSplitSumsToLength(t *testing.T) {
	for n := 0; n < 500; n++ {
		s := Split(n)
		if s.Attack < 0 || s.Decay < 0 || s.Sustain < 0 || s.Release < 0 {
			t.Fatalf("n=%d: negative segment %+v", n, s)
		}
		if got := s.Attack + s.Decay + s.Sustain + s.Release; got != n {
			t.Fatalf("n=%d: segments sum to %d (%+v)", n, got, s)
		}
	}
}

func TestSplitProportions(t *testing.T) {
	s := Split(1000)
	want := Segments{Attack: 50, Decay: 100, Sustain: 500, Release: 350}
	if s != want {
		t.Fatalf("Split(1000) = %+v, want %+v", s, want)
	}
}

func TestApplyStartsAndEndsAtZero(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 19, 20, 21, 100, 4410} {
		out := Apply(ones(n))
		if len(out) != n {
			t.Fatalf("n=%d: len = %d", n, len(out))
		}
		if out[0] != 0 {
			t.Errorf("n=%d: first sample = %f, want 0", n, out[0])
		}
		if out[n-1] != 0 {
			t.Errorf("n=%d: last sample = %f, want 0", n, out[n-1])
		}
	}
}

func TestCurveShape(t *testing.T) {
	env := Curve(1000)
	if env[49] != 1 {
		t.Errorf("end of attack = %f, want 1", env[49])
	}
	if math.Abs(env[149]-SustainLevel) > 1e-12 {
		t.Errorf("end of decay = %f, want %f", env[149], SustainLevel)
	}
	for i := 150; i < 650; i++ {
		if env[i] != SustainLevel {
			t.Fatalf("sustain sample %d = %f", i, env[i])
		}
	}
	for i := 651; i < 1000; i++ {
		if env[i] > env[i-1] {
			t.Fatalf("release rises at %d: %f > %f", i, env[i], env[i-1])
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := ones(64)
	Apply(in)
	for i, v := range in {
		if v != 1 {
			t.Fatalf("input sample %d modified to %f", i, v)
		}
	}
}
