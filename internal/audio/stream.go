package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// StreamReader adapts a mono SampleSource to an io.Reader of interleaved
// float32 little-endian frames with the given channel count. The mono signal is
// copied to every channel.
type StreamReader struct {
	mu       sync.Mutex
	source   SampleSource
	channels int
	buf      []float32
}

func NewStreamReader(source SampleSource, channels int) *StreamReader {
	if channels <= 0 {
		channels = 1
	}
	return &StreamReader{source: source, channels: channels}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameBytes := 4 * r.channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([]float32, frames)
	}
	r.buf = r.buf[:frames]
	r.source.Process(r.buf)
	for i, s := range r.buf {
		u := math.Float32bits(s)
		for c := 0; c < r.channels; c++ {
			binary.LittleEndian.PutUint32(p[(i*r.channels+c)*4:], u)
		}
	}
	return frames * frameBytes, nil
}

func (r *StreamReader) Close() error { return nil }

// ebitenOutput plays a Mixer through an ebiten audio player.
type ebitenOutput struct {
	*Mixer
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func openEbiten(sampleRate int, queueSize int) (Sink, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	mixer := NewMixer(queueSize)
	// ebiten float32 players always take stereo frames.
	reader := NewStreamReader(mixer, 2)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	pl.Play()
	return &ebitenOutput{Mixer: mixer, player: pl, reader: reader}, nil
}

func (o *ebitenOutput) Close() error {
	o.player.Pause()
	_ = o.player.Close()
	_ = o.Mixer.Close()
	return o.reader.Close()
}
