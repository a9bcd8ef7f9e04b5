package subharmonicon

import (
	"encoding/binary"
	"math"

	intseq "github.com/cbegin/subharmonicon-go/internal/sequencer"
)

// RenderPattern renders one pass of the current pattern without touching the
// sink or the playhead. Each active step's voice starts at its step offset and
// overlapping tails are summed, then the result is clamped to [-1,1].
func (s *Synth) RenderPattern() []float64 {
	p := s.seq.Pattern()
	d := s.seq.StepDuration()
	stepLen := int(float64(s.sampleRate) * d.Seconds())
	out := make([]float64, stepLen*intseq.Steps)
	for step := 0; step < intseq.Steps; step++ {
		w := p.Weight(step)
		if w == 0 {
			continue
		}
		buf := s.render(d, w)
		copyAdd(out[step*stepLen:], buf)
	}
	for i, v := range out {
		out[i] = max(-1, min(1, v))
	}
	return out
}

func copyAdd(dst, src []float64) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// Float32 converts a rendered buffer to the float32 samples EncodeWAVFloat32LE takes.
func Float32(buf []float64) []float32 {
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = float32(v)
	}
	return out
}

// EncodeWAVFloat32LE wraps interleaved float32 samples in a WAVE_FORMAT_IEEE_FLOAT
// RIFF container. Pass Float32 of a recording or RenderPattern with channels=1.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
