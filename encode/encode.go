// Package encode turns rendered float buffers into compressed or PCM files.
package encode

import (
	"bytes"
	"context"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"go-drumseq/audio"
	"go-drumseq/debug"
)

// BlockFrames is the number of frames handed to the encoder per call, one
// MPEG-1 Layer III granule pair.
const BlockFrames = 1152

// Bitrates are the supported MP3 bitrates in kbps.
var Bitrates = []int{128, 192, 320}

// StreamEncoder compresses 16-bit stereo PCM one block at a time. Chunks
// returned by EncodeBlock and Flush concatenate into the complete stream.
type StreamEncoder interface {
	EncodeBlock(left, right []int16) ([]byte, error)
	Flush() ([]byte, error)
}

// Factory opens a StreamEncoder for a stereo stream.
type Factory func(sampleRate, bitrateKbps int) (StreamEncoder, error)

// ValidBitrate reports whether kbps is one of Bitrates.
func ValidBitrate(kbps int) bool {
	for _, b := range Bitrates {
		if b == kbps {
			return true
		}
	}
	return false
}

// FloatToInt16 clamps f to [-1,1] and scales it asymmetrically so that -1
// maps to -32768 and 1 to 32767. The fraction is truncated.
func FloatToInt16(f float32) int16 {
	if f != f {
		return 0
	}
	s := max(-1, min(1, f))
	if s < 0 {
		return int16(float64(s) * 32768)
	}
	return int16(float64(s) * 32767)
}

// Encode feeds buf to a new encoder in BlockFrames blocks and returns the
// whole compressed stream. Mono input is sent as identical left and right.
// An encoder that implements io.Closer is closed when encoding fails.
func Encode(ctx context.Context, buf *audio.Buffer, bitrate int, newEncoder Factory) ([]byte, error) {
	if buf == nil || buf.NumChannels() == 0 {
		return nil, fmt.Errorf("encode: empty buffer")
	}
	enc, err := newEncoder(buf.SampleRate, bitrate)
	if err != nil {
		return nil, fmt.Errorf("encode: open encoder: %w", err)
	}

	left := buf.Channels[0]
	right := left
	if buf.NumChannels() > 1 {
		right = buf.Channels[1]
	}
	frames := buf.Frames()

	l := make([]int16, BlockFrames)
	r := make([]int16, BlockFrames)
	var out bytes.Buffer
	blocks := 0
	for start := 0; start < frames; start += BlockFrames {
		if err := ctx.Err(); err != nil {
			release(enc)
			return nil, err
		}
		n := min(BlockFrames, frames-start)
		for i := 0; i < n; i++ {
			l[i] = FloatToInt16(left[start+i])
			r[i] = FloatToInt16(right[start+i])
		}
		chunk, err := enc.EncodeBlock(l[:n], r[:n])
		if err != nil {
			release(enc)
			return nil, fmt.Errorf("encode: block at frame %d: %w", start, err)
		}
		out.Write(chunk)
		blocks++
	}

	tail, err := enc.Flush()
	if err != nil {
		release(enc)
		return nil, fmt.Errorf("encode: flush: %w", err)
	}
	out.Write(tail)

	debug.Log("encode", "%d frames in %d blocks at %d kbps -> %d bytes", frames, blocks, bitrate, out.Len())
	return out.Bytes(), nil
}

func release(enc StreamEncoder) {
	if c, ok := enc.(io.Closer); ok {
		if err := c.Close(); err != nil {
			debug.Log("encode", "close encoder: %v", err)
		}
	}
}

// WriteWAV writes buf as 16-bit PCM WAV.
func WriteWAV(w io.WriteSeeker, buf *audio.Buffer) error {
	if buf == nil || buf.NumChannels() == 0 {
		return fmt.Errorf("write wav: empty buffer")
	}
	nch := buf.NumChannels()
	enc := wav.NewEncoder(w, buf.SampleRate, 16, nch, 1)

	interleaved := buf.Interleaved()
	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: nch,
			SampleRate:  buf.SampleRate,
		},
		Data:           make([]int, len(interleaved)),
		SourceBitDepth: 16,
	}
	for i, s := range interleaved {
		intBuf.Data[i] = int(FloatToInt16(s))
	}
	if err := enc.Write(intBuf); err != nil {
		enc.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}
