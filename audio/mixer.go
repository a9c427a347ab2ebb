package audio

import (
	"math"
	"sync"
)

type activeVoice struct {
	start  int64 // absolute start frame
	src    *Buffer
	matrix panMatrix
}

func (a *activeVoice) end() int64 {
	return a.start + int64(a.src.Frames())
}

// Mixer sums scheduled voices into a stereo stream. Its clock is the number
// of frames rendered so far, so CurrentTime advances only as audio is pulled.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	frame      int64
	voices     []activeVoice
	left       []float32
	right      []float32
}

func NewMixer(sampleRate int) *Mixer {
	return &Mixer{sampleRate: sampleRate}
}

// SampleRate returns the output rate.
func (m *Mixer) SampleRate() int {
	return m.sampleRate
}

// Schedule queues a voice. A voice without a source is dropped; one whose
// time already passed starts at the next rendered frame.
func (m *Mixer) Schedule(v Voice) {
	if v.Source == nil || v.Source.Frames() == 0 {
		return
	}
	start := int64(math.Round(v.Time * float64(m.sampleRate)))
	av := activeVoice{
		src:    v.Source,
		matrix: stereoPanner(v.Pan, v.Source.NumChannels() > 1, v.Gain()),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if start < m.frame {
		start = m.frame
	}
	av.start = start
	m.voices = append(m.voices, av)
}

// CurrentTime returns the mixer clock in seconds.
func (m *Mixer) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.frame) / float64(m.sampleRate)
}

// Frame returns the number of frames rendered so far.
func (m *Mixer) Frame() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

// Pending returns the number of voices queued or still sounding.
func (m *Mixer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Reset drops all voices and rewinds the clock.
func (m *Mixer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voices = m.voices[:0]
	m.frame = 0
}

// Render overwrites left and right with the next len(left) frames.
func (m *Mixer) Render(left, right []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.render(left, right)
}

func (m *Mixer) render(left, right []float32) {
	n := len(left)
	for i := range left {
		left[i] = 0
		right[i] = 0
	}
	from := m.frame
	to := from + int64(n)
	kept := m.voices[:0]
	for _, av := range m.voices {
		if av.start >= to {
			kept = append(kept, av)
			continue
		}
		mixVoice(&av, from, to, left, right)
		if av.end() > to {
			kept = append(kept, av)
		}
	}
	for i := len(kept); i < len(m.voices); i++ {
		m.voices[i] = activeVoice{}
	}
	m.voices = kept
	m.frame = to
}

func mixVoice(av *activeVoice, from, to int64, left, right []float32) {
	begin := max(av.start, from)
	end := min(av.end(), to)
	if begin >= end {
		return
	}
	l := av.src.Channels[0]
	var r []float32
	if av.src.NumChannels() > 1 {
		r = av.src.Channels[1]
	}
	mx := av.matrix
	for f := begin; f < end; f++ {
		si := f - av.start
		di := f - from
		in := l[si]
		left[di] += in * mx.ll
		right[di] += in * mx.lr
		if r != nil {
			in = r[si]
			left[di] += in * mx.rl
			right[di] += in * mx.rr
		}
	}
}

// Process fills dst with interleaved stereo frames.
func (m *Mixer) Process(dst []float32) {
	frames := len(dst) / 2
	m.mu.Lock()
	defer m.mu.Unlock()
	if cap(m.left) < frames {
		m.left = make([]float32, frames)
		m.right = make([]float32, frames)
	}
	left, right := m.left[:frames], m.right[:frames]
	m.render(left, right)
	for i := 0; i < frames; i++ {
		dst[2*i] = left[i]
		dst[2*i+1] = right[i]
	}
}
