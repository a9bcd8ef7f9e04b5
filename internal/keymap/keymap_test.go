package keymap

import (
	"math"
	"reflect"
	"testing"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"z", []string{"z"}},
		{"zx ", []string{"z", "x", "space"}},
		{"\x1b[A\x1b[B", []string{"up", "down"}},
		{"\x1bOC\x1bOD", []string{"right", "left"}},
		{"\x1b", []string{"esc"}},
		{"\x1b[Zq", []string{"esc", "[", "Z", "q"}},
		{"\x03", []string{"ctrl+c"}},
		{"\r\x7f\x01", []string{"enter"}},
	}
	for _, tc := range cases {
		got := Decode([]byte(tc.in))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Decode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNoteKeysAscendBySemitone(t *testing.T) {
	b, ok := Lookup("z")
	if !ok || b.Action != ActionNote || b.Frequency != BaseFrequency {
		t.Fatalf("z = %+v, %v", b, ok)
	}
	octave, _ := Lookup(",")
	if math.Abs(octave.Frequency-2*BaseFrequency) > 1e-9 {
		t.Fatalf(", = %v, want one octave above C4", octave.Frequency)
	}
	prev := 0.0
	for _, k := range NoteKeys {
		b, ok := Lookup(k)
		if !ok || b.Frequency <= prev {
			t.Fatalf("key %q = %+v, want ascending note", k, b)
		}
		prev = b.Frequency
	}
}

func TestControls(t *testing.T) {
	cases := []struct {
		key    string
		action Action
		delta  float64
	}{
		{"1", ActionCycleWaveform, 0},
		{"2", ActionCycleEffects, 0},
		{"3", ActionToggleRecording, 0},
		{"space", ActionToggleSequence, 0},
		{"up", ActionFilter, 100},
		{"down", ActionFilter, -100},
		{"left", ActionReverb, -0.1},
		{"right", ActionReverb, 0.1},
		{"esc", ActionQuit, 0},
		{"Q", ActionQuit, 0},
	}
	for _, tc := range cases {
		b, ok := Lookup(tc.key)
		if !ok || b.Action != tc.action || b.Delta != tc.delta {
			t.Errorf("Lookup(%q) = %+v, %v; want %v delta %v", tc.key, b, ok, tc.action, tc.delta)
		}
	}
	if _, ok := Lookup("enter"); ok {
		t.Error("enter should be unbound")
	}
}
