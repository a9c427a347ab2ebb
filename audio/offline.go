package audio

import "fmt"

// OfflineContext renders scheduled voices into an in-memory stereo buffer
// of fixed length, as fast as the caller asks for it. Rendering can stop at
// any frame and resume later, which is how bar-by-bar progress is reported.
type OfflineContext struct {
	mixer    *Mixer
	out      *Buffer
	rendered int
}

// NewOfflineContext allocates a stereo context of the given length.
func NewOfflineContext(frames, sampleRate int) *OfflineContext {
	return &OfflineContext{
		mixer: NewMixer(sampleRate),
		out:   NewBuffer(2, frames, sampleRate),
	}
}

func (c *OfflineContext) Schedule(v Voice) { c.mixer.Schedule(v) }

// CurrentTime is the render position in seconds.
func (c *OfflineContext) CurrentTime() float64 { return c.mixer.CurrentTime() }

func (c *OfflineContext) SampleRate() int { return c.out.SampleRate }

// Length is the total length in frames.
func (c *OfflineContext) Length() int { return c.out.Frames() }

// Rendered is the number of frames rendered so far.
func (c *OfflineContext) Rendered() int { return c.rendered }

// Elapsed is the rendered duration in seconds.
func (c *OfflineContext) Elapsed() float64 {
	return float64(c.rendered) / float64(c.out.SampleRate)
}

// Duration is the total duration in seconds.
func (c *OfflineContext) Duration() float64 { return c.out.Duration() }

// RenderUntil renders up to (not including) frame, clamped to Length.
// Asking for a frame already rendered is a no-op.
func (c *OfflineContext) RenderUntil(frame int) error {
	if frame < 0 {
		return fmt.Errorf("render until negative frame %d", frame)
	}
	frame = min(frame, c.Length())
	if frame <= c.rendered {
		return nil
	}
	c.mixer.Render(c.out.Channels[0][c.rendered:frame], c.out.Channels[1][c.rendered:frame])
	c.rendered = frame
	return nil
}

// Result returns the output buffer. Frames past Rendered are silent.
func (c *OfflineContext) Result() *Buffer { return c.out }
