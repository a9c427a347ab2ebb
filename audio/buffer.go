package audio

// Buffer holds decoded planar float PCM. Channels[c][i] is frame i of channel c.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewBuffer allocates a silent buffer.
func NewBuffer(channels, frames, sampleRate int) *Buffer {
	b := &Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for c := range b.Channels {
		b.Channels[c] = make([]float32, frames)
	}
	return b
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Frames returns the length in frames (of the first channel).
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Clone returns a deep copy. The render path works on clones so that a
// buffer bound to the live mixer is never shared with an offline one.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{SampleRate: b.SampleRate, Channels: make([][]float32, len(b.Channels))}
	for c, data := range b.Channels {
		out.Channels[c] = append([]float32(nil), data...)
	}
	return out
}

// Interleaved returns the samples interleaved frame by frame.
func (b *Buffer) Interleaved() []float32 {
	nch := len(b.Channels)
	frames := b.Frames()
	out := make([]float32, frames*nch)
	for c, data := range b.Channels {
		for i, s := range data {
			out[i*nch+c] = s
		}
	}
	return out
}

// FromInterleaved builds a planar buffer from interleaved samples.
func FromInterleaved(samples []float32, channels, sampleRate int) *Buffer {
	if channels <= 0 {
		channels = 1
	}
	frames := len(samples) / channels
	b := NewBuffer(channels, frames, sampleRate)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			b.Channels[c][i] = samples[i*channels+c]
		}
	}
	return b
}
