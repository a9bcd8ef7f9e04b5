//go:build portaudio

package audio

import (
	"fmt"
	"sync"

	pa "github.com/gordonklaus/portaudio"
)

const portaudioFramesPerBuffer = 512

// portaudioOutput pulls from a Mixer inside the portaudio stream callback.
type portaudioOutput struct {
	*Mixer
	once   sync.Once
	stream *pa.Stream
}

func openPortaudio(sampleRate int, queueSize int) (Sink, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("unable to set up portaudio: %w", err)
	}
	mixer := NewMixer(queueSize)
	stream, err := pa.OpenDefaultStream(0, 1, float64(sampleRate), portaudioFramesPerBuffer, func(out []float32) {
		mixer.Process(out)
	})
	if err != nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("error opening default output via portaudio: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		_ = pa.Terminate()
		return nil, fmt.Errorf("error starting portaudio stream: %w", err)
	}
	return &portaudioOutput{Mixer: mixer, stream: stream}, nil
}

func (o *portaudioOutput) Close() error {
	var err error
	o.once.Do(func() {
		_ = o.Mixer.Close()
		if e := o.stream.Stop(); e != nil {
			err = e
		}
		o.stream.Close()
		if e := pa.Terminate(); e != nil && err == nil {
			err = fmt.Errorf("termination error: %w", e)
		}
	})
	return err
}
