package sequencer

import (
	"context"
	"fmt"
	"math"

	"go-drumseq/audio"
	"go-drumseq/debug"
)

// OfflineSink is a non-realtime sink that renders on demand into a buffer
// of fixed length and can stop at any frame.
type OfflineSink interface {
	Sink
	SampleRate() int
	Length() int
	RenderUntil(frame int) error
	Result() *audio.Buffer
}

// RenderFrames is the number of frames covering bars repetitions of p.
func RenderFrames(p Pattern, bars, sampleRate int) int {
	total := float64(bars) * BarDuration(p)
	return int(math.Ceil(total * float64(sampleRate)))
}

// Render unrolls bars repetitions of p onto sink and renders them. Each
// bar is scheduled and rendered before the next, and onProgress is called
// with 0 first, bar/bars at every inner bar boundary, and 1 at the end.
// ctx is checked between bars.
func Render(ctx context.Context, p Pattern, bars int, sink OfflineSink, lookup SampleLookup, onProgress func(float64)) (*audio.Buffer, error) {
	if bars < 1 {
		return nil, fmt.Errorf("render needs at least one bar, got %d", bars)
	}
	if p.StepCount <= 0 {
		return nil, fmt.Errorf("render of empty pattern")
	}
	if onProgress == nil {
		onProgress = func(float64) {}
	}
	stepDur := StepDuration(p.BPM)
	barDur := BarDuration(p)
	sr := float64(sink.SampleRate())

	onProgress(0)
	for bar := 0; bar < bars; bar++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		barStart := float64(bar) * barDur
		for step := 0; step < p.StepCount; step++ {
			base := barStart + float64(step)*stepDur
			for _, ev := range StepEvents(p, step, base) {
				Trigger(sink, lookup, ev)
			}
		}
		if bar+1 == bars {
			break
		}
		boundary := int(math.Floor(float64(bar+1) * barDur * sr))
		if err := sink.RenderUntil(boundary); err != nil {
			return nil, err
		}
		onProgress(float64(bar+1) / float64(bars))
	}
	if err := sink.RenderUntil(sink.Length()); err != nil {
		return nil, err
	}
	onProgress(1)
	debug.Log("render", "rendered %d bars, %d frames", bars, sink.Length())
	return sink.Result(), nil
}
