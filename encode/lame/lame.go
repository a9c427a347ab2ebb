// Package lame provides the MP3 StreamEncoder backed by libmp3lame.
package lame

import (
	"bytes"
	"encoding/binary"
	"fmt"

	golame "github.com/viert/go-lame"

	"go-drumseq/encode"
)

// Quality is the fixed LAME algorithm quality (0 best, 9 fastest).
const Quality = 2

type encoder struct {
	out    bytes.Buffer
	lame   *golame.Encoder
	pcm    []byte
	closed bool
}

// NewEncoder opens a constant-bitrate stereo MP3 encoder. It satisfies
// encode.Factory.
func NewEncoder(sampleRate, bitrateKbps int) (encode.StreamEncoder, error) {
	if !encode.ValidBitrate(bitrateKbps) {
		return nil, fmt.Errorf("unsupported bitrate %d kbps", bitrateKbps)
	}
	e := &encoder{}
	e.lame = golame.NewEncoder(&e.out)
	if err := e.lame.SetInSamplerate(sampleRate); err != nil {
		return nil, fmt.Errorf("set sample rate: %w", err)
	}
	if err := e.lame.SetNumChannels(2); err != nil {
		return nil, fmt.Errorf("set channels: %w", err)
	}
	if err := e.lame.SetBrate(bitrateKbps); err != nil {
		return nil, fmt.Errorf("set bitrate: %w", err)
	}
	if err := e.lame.SetQuality(Quality); err != nil {
		return nil, fmt.Errorf("set quality: %w", err)
	}
	return e, nil
}

func (e *encoder) EncodeBlock(left, right []int16) ([]byte, error) {
	if e.closed {
		return nil, fmt.Errorf("encode after flush")
	}
	if len(left) != len(right) {
		return nil, fmt.Errorf("channel length mismatch: %d vs %d", len(left), len(right))
	}
	n := len(left) * 4
	if cap(e.pcm) < n {
		e.pcm = make([]byte, n)
	}
	pcm := e.pcm[:n]
	for i := range left {
		binary.LittleEndian.PutUint16(pcm[i*4:], uint16(left[i]))
		binary.LittleEndian.PutUint16(pcm[i*4+2:], uint16(right[i]))
	}
	if _, err := e.lame.Write(pcm); err != nil {
		return nil, err
	}
	return e.take(), nil
}

func (e *encoder) Flush() ([]byte, error) {
	if e.closed {
		return nil, nil
	}
	e.closed = true
	_, err := e.lame.Flush()
	chunk := e.take()
	e.lame.Close() // flushes again into the discarded buffer
	e.out.Reset()
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// Close releases the encoder without returning buffered output.
func (e *encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.lame.Close()
	e.out.Reset()
	return nil
}

// take returns and clears whatever the encoder has written so far.
func (e *encoder) take() []byte {
	chunk := bytes.Clone(e.out.Bytes())
	e.out.Reset()
	return chunk
}
