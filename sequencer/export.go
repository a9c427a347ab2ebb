package sequencer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-drumseq/audio"
	"go-drumseq/debug"
	"go-drumseq/encode"
)

// ExportSampleRate is the render rate for exports.
const ExportSampleRate = 44100

// ExportBars are the loop lengths offered for export.
var ExportBars = []int{1, 2, 4, 8}

// exportFailed is the message shown to the user for any export failure.
const exportFailed = "Export failed"

// Exporter renders the current pattern offline and encodes it.
type Exporter struct {
	Store      PatternSource
	Library    *audio.Library
	Encoder    encode.Factory
	SampleRate int
}

// ExportLoop renders numBars of the current pattern and returns the encoded
// stream. Nothing is returned on failure: errors carry an ftag kind and the
// user-facing message "Export failed". onProgress may be nil.
func (e *Exporter) ExportLoop(ctx context.Context, numBars, bitrate int, onProgress func(float64)) ([]byte, error) {
	if !encode.ValidBitrate(bitrate) {
		return nil, fault.New(fmt.Sprintf("invalid bitrate %d", bitrate),
			fmsg.WithDesc("export", exportFailed), ftag.With(ftag.InvalidArgument))
	}
	if e.Encoder == nil {
		return nil, fault.New("exporter has no encoder",
			fmsg.WithDesc("export", exportFailed), ftag.With(ftag.Internal))
	}

	start := time.Now()
	buf, err := e.RenderLoop(ctx, numBars, onProgress)
	if err != nil {
		return nil, err
	}

	data, err := encode.Encode(ctx, buf, bitrate, e.Encoder)
	if err != nil {
		return nil, exportError(err, "encode")
	}

	debug.Log("export", "%d bars at %d kbps: %d bytes in %v", numBars, bitrate, len(data), time.Since(start))
	return data, nil
}

// RenderLoop renders numBars of the current pattern without encoding, using
// freshly decoded copies of its samples. Errors are tagged as in ExportLoop.
func (e *Exporter) RenderLoop(ctx context.Context, numBars int, onProgress func(float64)) (*audio.Buffer, error) {
	if !validBars(numBars) {
		return nil, fault.New(fmt.Sprintf("invalid bar count %d", numBars),
			fmsg.WithDesc("export", exportFailed), ftag.With(ftag.InvalidArgument))
	}
	if e.Store == nil || e.Library == nil {
		return nil, fault.New("exporter not configured",
			fmsg.WithDesc("export", exportFailed), ftag.With(ftag.Internal))
	}
	sr := e.SampleRate
	if sr <= 0 {
		sr = ExportSampleRate
	}

	p := e.Store.Snapshot()

	lib, err := e.Library.Fork(ctx, sr, p.Samples())
	if err != nil {
		return nil, exportError(err, "decode samples")
	}

	sink := audio.NewOfflineContext(RenderFrames(p, numBars, sr), sr)
	buf, err := Render(ctx, p, numBars, sink, lib, onProgress)
	if err != nil {
		return nil, exportError(err, "render")
	}
	return buf, nil
}

// ExportFilename names an exported loop by its creation time.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("beat-sequencer-%d.mp3", t.UnixMilli())
}

func exportError(err error, stage string) error {
	debug.Log("export", "%s failed: %v", stage, err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(err, fmsg.WithDesc("export "+stage, exportFailed), ftag.With(ftag.Cancelled))
	}
	if ftag.Get(err) == ftag.InvalidArgument {
		return fault.Wrap(err, fmsg.WithDesc("export "+stage, exportFailed))
	}
	return fault.Wrap(err, fmsg.WithDesc("export "+stage, exportFailed), ftag.With(ftag.Internal))
}

func validBars(n int) bool {
	for _, b := range ExportBars {
		if b == n {
			return true
		}
	}
	return false
}
