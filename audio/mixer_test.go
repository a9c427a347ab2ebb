package audio

import (
	"math"
	"testing"
)

const testRate = 1000

func ones(frames int) *Buffer {
	b := NewBuffer(1, frames, testRate)
	for i := range b.Channels[0] {
		b.Channels[0][i] = 1
	}
	return b
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}

func TestMixerStartsAtScheduledFrame(t *testing.T) {
	m := NewMixer(testRate)
	m.Schedule(Voice{Source: ones(4), VelocityGain: 1, VolumeGain: 1, Time: 0.002})

	left := make([]float32, 8)
	right := make([]float32, 8)
	m.Render(left, right)

	centre := float32(math.Cos(math.Pi / 4))
	for i := range left {
		want := float32(0)
		if i >= 2 && i < 6 {
			want = centre
		}
		if !near(left[i], want) || !near(right[i], want) {
			t.Fatalf("frame %d: got %v/%v, want %v", i, left[i], right[i], want)
		}
	}
	if m.Pending() != 0 {
		t.Fatalf("%d voices left after they finished", m.Pending())
	}
	if m.Frame() != 8 || m.CurrentTime() != 0.008 {
		t.Fatalf("clock at frame %d", m.Frame())
	}
}

func TestMixerPanAndGain(t *testing.T) {
	m := NewMixer(testRate)
	m.Schedule(Voice{Source: ones(1), VelocityGain: 0.5, VolumeGain: 0.5, Pan: -1})
	m.Schedule(Voice{Source: ones(1), VelocityGain: 1, VolumeGain: 1, Pan: 1, Time: 0.001})

	left := make([]float32, 2)
	right := make([]float32, 2)
	m.Render(left, right)

	if !near(left[0], 0.25) || !near(right[0], 0) {
		t.Errorf("hard left: %v/%v", left[0], right[0])
	}
	if !near(left[1], 0) || !near(right[1], 1) {
		t.Errorf("hard right: %v/%v", left[1], right[1])
	}
}

func TestMixerLateVoiceStartsNow(t *testing.T) {
	m := NewMixer(testRate)
	m.Render(make([]float32, 10), make([]float32, 10))

	m.Schedule(Voice{Source: ones(2), VelocityGain: 1, VolumeGain: 1, Pan: -1, Time: 0})
	left := make([]float32, 4)
	m.Render(left, make([]float32, 4))
	if !near(left[0], 1) || !near(left[1], 1) || left[2] != 0 {
		t.Fatalf("late voice rendered as %v", left)
	}
}

func TestMixerVoiceSpansRenders(t *testing.T) {
	m := NewMixer(testRate)
	m.Schedule(Voice{Source: ones(6), VelocityGain: 1, VolumeGain: 1, Pan: -1, Time: 0.002})

	dst := make([]float32, 8) // 4 interleaved frames
	m.Process(dst)
	if dst[0] != 0 || !near(dst[4], 1) || dst[5] != 0 {
		t.Fatalf("first block %v", dst)
	}
	m.Process(dst)
	for i := 0; i < 4; i++ {
		if !near(dst[2*i], 1) {
			t.Fatalf("second block %v", dst)
		}
	}
	m.Process(dst)
	if dst[0] != 0 || m.Pending() != 0 {
		t.Fatalf("voice outlived its source: %v", dst)
	}
}

func TestMixerDropsEmptyVoices(t *testing.T) {
	m := NewMixer(testRate)
	m.Schedule(Voice{Sample: "missing.wav", VelocityGain: 1, VolumeGain: 1})
	m.Schedule(Voice{Source: NewBuffer(1, 0, testRate), VelocityGain: 1, VolumeGain: 1})
	if m.Pending() != 0 {
		t.Fatalf("%d empty voices queued", m.Pending())
	}
}

func TestMixerReset(t *testing.T) {
	m := NewMixer(testRate)
	m.Schedule(Voice{Source: ones(100), VelocityGain: 1, VolumeGain: 1})
	m.Render(make([]float32, 10), make([]float32, 10))
	m.Reset()
	if m.Pending() != 0 || m.Frame() != 0 {
		t.Fatalf("reset left %d voices at frame %d", m.Pending(), m.Frame())
	}
}

func TestStereoPannerStereoSource(t *testing.T) {
	mx := stereoPanner(0, true, 1)
	if !near(mx.ll, 1) || !near(mx.rr, 1) || !near(mx.lr, 0) || !near(mx.rl, 0) {
		t.Fatalf("centred stereo source is not passed through: %+v", mx)
	}
	mx = stereoPanner(-1, true, 1)
	if !near(mx.rl, 1) || !near(mx.rr, 0) {
		t.Fatalf("hard left stereo source: %+v", mx)
	}
}
