package keymap

import (
	"fmt"
	"math"
	"strings"
)

// BaseFrequency is the pitch of the first note key (C4).
const BaseFrequency = 261.63

// Control steps applied by the arrow keys.
const (
	FilterStepHz = 100
	ReverbStep   = 0.1
)

type Action int

const (
	ActionNone Action = iota
	ActionNote
	ActionCycleWaveform
	ActionCycleEffects
	ActionToggleRecording
	ActionToggleSequence
	ActionFilter
	ActionReverb
	ActionQuit
)

var actionNames = map[Action]string{
	ActionNone:            "none",
	ActionNote:            "note",
	ActionCycleWaveform:   "cycle-waveform",
	ActionCycleEffects:    "cycle-effects",
	ActionToggleRecording: "toggle-recording",
	ActionToggleSequence:  "toggle-sequence",
	ActionFilter:          "filter",
	ActionReverb:          "reverb",
	ActionQuit:            "quit",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Binding is what a key does. Frequency is set for notes, Delta for the filter
// and reverb adjustments.
type Binding struct {
	Action    Action
	Frequency float64
	Delta     float64
}

// NoteKeys are the note keys in ascending semitone order from BaseFrequency.
var NoteKeys = []string{"z", "s", "x", "d", "c", "v", "g", "b", "h", "n", "j", "m", ",", "l", ".", ";", "/", "'"}

var controls = map[string]Binding{
	"1":      {Action: ActionCycleWaveform},
	"2":      {Action: ActionCycleEffects},
	"3":      {Action: ActionToggleRecording},
	"space":  {Action: ActionToggleSequence},
	"up":     {Action: ActionFilter, Delta: FilterStepHz},
	"down":   {Action: ActionFilter, Delta: -FilterStepHz},
	"left":   {Action: ActionReverb, Delta: -ReverbStep},
	"right":  {Action: ActionReverb, Delta: ReverbStep},
	"esc":    {Action: ActionQuit},
	"q":      {Action: ActionQuit},
	"ctrl+c": {Action: ActionQuit},
}

var bindings = buildBindings()

func buildBindings() map[string]Binding {
	m := make(map[string]Binding, len(NoteKeys)+len(controls))
	for i, k := range NoteKeys {
		m[k] = Binding{Action: ActionNote, Frequency: NoteFrequency(i)}
	}
	for k, b := range controls {
		m[k] = b
	}
	return m
}

// NoteFrequency returns the equal-tempered pitch semitones above BaseFrequency.
func NoteFrequency(semitones int) float64 {
	return BaseFrequency * math.Pow(2, float64(semitones)/12)
}

// Lookup returns the binding of a key name as produced by Decode.
func Lookup(key string) (Binding, bool) {
	b, ok := bindings[strings.ToLower(key)]
	return b, ok
}

// Decode splits raw terminal input into key names. Printable characters map to
// themselves; arrows (CSI and SS3 forms), escape, space, enter and ctrl+c get
// names. Other control bytes are dropped.
func Decode(in []byte) []string {
	var keys []string
	for i := 0; i < len(in); i++ {
		b := in[i]
		switch {
		case b == 0x1b:
			if i+2 < len(in) && (in[i+1] == '[' || in[i+1] == 'O') {
				if name, ok := arrows[in[i+2]]; ok {
					keys = append(keys, name)
					i += 2
					continue
				}
			}
			keys = append(keys, "esc")
		case b == ' ':
			keys = append(keys, "space")
		case b == '\r' || b == '\n':
			keys = append(keys, "enter")
		case b == 0x03:
			keys = append(keys, "ctrl+c")
		case b > ' ' && b < 0x7f:
			keys = append(keys, string(rune(b)))
		}
	}
	return keys
}

var arrows = map[byte]string{
	'A': "up",
	'B': "down",
	'C': "right",
	'D': "left",
}
