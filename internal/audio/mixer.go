package audio

import (
	"errors"
	"sync"
)

// DefaultQueueSize bounds how many buffers may be sounding or pending at once.
const DefaultQueueSize = 64

var (
	ErrQueueFull = errors.New("audio: output queue full")
	ErrClosed    = errors.New("audio: sink closed")
)

// Sink accepts rendered mono buffers for playback. Enqueue must not block.
type Sink interface {
	Enqueue(buf []float64) error
	Close() error
}

// SampleSource is what device backends pull mono frames from.
type SampleSource interface {
	Process(dst []float32)
}

// Mixer is a non-blocking Sink that sums every queued buffer into the output
// stream. Overlapping buffers play simultaneously; a buffer is dropped from the
// queue once fully consumed.
type Mixer struct {
	mu     sync.Mutex
	voices []*queued
	limit  int
	closed bool
}

type queued struct {
	samples []float64
	pos     int
}

func NewMixer(limit int) *Mixer {
	if limit <= 0 {
		limit = DefaultQueueSize
	}
	return &Mixer{limit: limit}
}

// Enqueue schedules buf to start playing on the next pulled frame. The mixer
// keeps its own copy.
func (m *Mixer) Enqueue(buf []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if len(m.voices) >= m.limit {
		return ErrQueueFull
	}
	if len(buf) == 0 {
		return nil
	}
	m.voices = append(m.voices, &queued{samples: append([]float64(nil), buf...)})
	return nil
}

// Pending returns the number of buffers still sounding or waiting.
func (m *Mixer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Process fills dst with mixed mono frames clamped to [-1,1]. Silence is written
// when nothing is queued.
func (m *Mixer) Process(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.voices[:0]
	for _, v := range m.voices {
		n := min(len(dst), len(v.samples)-v.pos)
		for i := 0; i < n; i++ {
			dst[i] += float32(v.samples[v.pos+i])
		}
		v.pos += n
		if v.pos < len(v.samples) {
			live = append(live, v)
		}
	}
	for i := len(live); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = live
	for i, s := range dst {
		if s > 1 {
			dst[i] = 1
		} else if s < -1 {
			dst[i] = -1
		}
	}
}

// Close rejects further buffers and drops anything pending.
func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.voices = nil
	return nil
}
