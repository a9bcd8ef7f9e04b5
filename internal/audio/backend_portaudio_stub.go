//go:build !portaudio

package audio

import "errors"

func openPortaudio(sampleRate int, queueSize int) (Sink, error) {
	return nil, errors.New("audio: portaudio backend not compiled in (build with -tags portaudio)")
}
