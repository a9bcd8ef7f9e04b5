package voice

import (
	"math"
	"testing"

	"github.com/cbegin/subharmonicon-go/internal/wave"
)

func TestSubFrequenciesFollowMainFrequency(t *testing.T) {
	o := NewOscillator(660, wave.Saw, 0.4, 0.3, 0.3)
	subs := o.SubFrequencies()
	if len(subs) != 2 || subs[0] != 330 || subs[1] != 220 {
		t.Fatalf("unexpected subharmonics: %v", subs)
	}
	o.Frequency = 300
	subs = o.SubFrequencies()
	if subs[0] != 150 || subs[1] != 100 {
		t.Fatalf("subharmonics not recomputed: %v", subs)
	}
	o.Divisors[1] = 5
	if got := o.SubFrequencies()[1]; got != 60 {
		t.Fatalf("custom divisor: got %v, want 60", got)
	}
}

func TestDivisorClamping(t *testing.T) {
	o := NewOscillator(440, wave.Sine, 1, 1, 1, 1)
	o.Divisors = []int{40, 0}
	if d := o.Divisor(0); d != MaxDivisor {
		t.Errorf("divisor 0 = %d, want %d", d, MaxDivisor)
	}
	if d := o.Divisor(1); d != 3 {
		t.Errorf("divisor 1 = %d, want default 3", d)
	}
	if d := o.Divisor(2); d != 4 {
		t.Errorf("divisor 2 = %d, want 4", d)
	}
}

func TestMixStaysInRange(t *testing.T) {
	for _, shape := range []wave.Shape{wave.Saw, wave.Square, wave.Triangle, wave.Sine} {
		o := NewOscillator(220, shape, 1, 1, 1)
		buf := Mix(o, 0.05, 44100)
		if len(buf) != 2205 {
			t.Fatalf("len = %d, want 2205", len(buf))
		}
		for i, s := range buf {
			if s < -1 || s > 1 {
				t.Fatalf("%s sample %d = %f out of range", shape, i, s)
			}
		}
	}
}

func TestMixAllAveragesOscillators(t *testing.T) {
	a := NewOscillator(441, wave.Square, 1)
	b := NewOscillator(441, wave.Square, 1)
	one := Mix(a, 0.01, 44100)
	both := MixAll([]Oscillator{a, b}, 0.01, 44100)
	for i := range one {
		if math.Abs(one[i]-both[i]) > 1e-12 {
			t.Fatalf("sample %d: two identical oscillators should average to one, got %f vs %f", i, both[i], one[i])
		}
	}
}

func TestMixOutOfRangeLevelsAreClamped(t *testing.T) {
	o := NewOscillator(300, wave.Square, 50, 50, 50)
	for i, s := range Mix(o, 0.02, 48000) {
		if math.Abs(s) > 1 {
			t.Fatalf("sample %d = %f exceeds unity", i, s)
		}
	}
}

func TestMixSilentForZeroFrequency(t *testing.T) {
	o := NewOscillator(0, wave.Saw, 1, 1, 1)
	for i, s := range Mix(o, 0.01, 44100) {
		if s != 0 {
			t.Fatalf("sample %d = %f, want silence", i, s)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	o := NewOscillator(100, wave.Saw, 1, 0.5, 0.5)
	c := o.Clone()
	c.SubLevels[0] = 0
	c.Divisors[0] = 7
	if o.SubLevels[0] != 0.5 || o.Divisors[0] != 2 {
		t.Fatal("clone shares slices with original")
	}
}
