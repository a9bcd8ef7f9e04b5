package audio

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Backend names accepted by Open.
const (
	BackendEbiten    = "ebiten"
	BackendOto       = "oto"
	BackendPortaudio = "portaudio"
	BackendNull      = "null"
)

// Backends lists the names accepted by Open, default first.
var Backends = []string{BackendEbiten, BackendOto, BackendPortaudio, BackendNull}

// Open returns a Sink playing through the named device backend.
func Open(backend string, sampleRate int) (Sink, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d", sampleRate)
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendEbiten:
		return openEbiten(sampleRate, DefaultQueueSize)
	case BackendOto:
		return openOto(sampleRate, DefaultQueueSize)
	case BackendPortaudio:
		return openPortaudio(sampleRate, DefaultQueueSize)
	case BackendNull:
		return NewNull(sampleRate, DefaultQueueSize), nil
	default:
		return nil, fmt.Errorf("audio: unknown backend %q (expected %s)", backend, strings.Join(Backends, "|"))
	}
}

// Null consumes a Mixer in real time without a device, for hosts with no audio
// hardware. Buffers drain at the sample rate exactly as a device would pull them.
type Null struct {
	*Mixer
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

const nullPullInterval = 10 * time.Millisecond

func NewNull(sampleRate int, queueSize int) *Null {
	n := &Null{
		Mixer: NewMixer(queueSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	frames := int(float64(sampleRate) * nullPullInterval.Seconds())
	if frames < 1 {
		frames = 1
	}
	go n.drain(frames)
	return n
}

func (n *Null) drain(frames int) {
	defer close(n.done)
	buf := make([]float32, frames)
	ticker := time.NewTicker(nullPullInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.stop:
			return
		case <-ticker.C:
			n.Mixer.Process(buf)
		}
	}
}

func (n *Null) Close() error {
	n.once.Do(func() {
		close(n.stop)
		<-n.done
		_ = n.Mixer.Close()
	})
	return nil
}

// Capture is an in-memory Sink that keeps every enqueued buffer. Setting Err
// makes Enqueue fail, imitating a busy or missing device.
type Capture struct {
	mu      sync.Mutex
	buffers [][]float64
	err     error
	closed  bool
}

func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Enqueue(buf []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.err != nil {
		return c.err
	}
	c.buffers = append(c.buffers, append([]float64(nil), buf...))
	return nil
}

// SetErr makes subsequent Enqueue calls fail with err; nil restores normal operation.
func (c *Capture) SetErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Buffers returns the captured buffers in enqueue order.
func (c *Capture) Buffers() [][]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]float64, len(c.buffers))
	copy(out, c.buffers)
	return out
}

func (c *Capture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffers)
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
