package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dh1tw/gosamplerate"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// DecodeFile decodes a .wav or .mp3 file and resamples it to sampleRate.
func DecodeFile(path string, sampleRate int) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf *Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		buf, err = DecodeWAV(f)
	case ".mp3":
		buf, err = DecodeMP3(f)
	default:
		return nil, fmt.Errorf("unsupported sample format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return Resample(buf, sampleRate)
}

// DecodeWAV decodes integer PCM WAV data.
func DecodeWAV(r io.ReadSeeker) (*Buffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, err
	}
	format := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 {
		return nil, errors.New("unknown WAV bit depth")
	}
	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(decoder.PCMLen()) / bytesPerSample
	buf := &goaudio.IntBuffer{
		Format:         format,
		Data:           make([]int, nsamples),
		SourceBitDepth: bitDepth,
	}
	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return nil, err
	}
	factor := float32(math.Pow(2, float64(bitDepth-1)))
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = float32(buf.Data[i]) / factor
	}
	return FromInterleaved(samples, format.NumChannels, format.SampleRate), nil
}

// DecodeMP3 decodes an MP3 stream to stereo float PCM.
func DecodeMP3(r io.Reader) (*Buffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, err
	}
	// FormatSignedInt16LE, always two channels
	nsamples := len(raw) / 2
	samples := make([]float32, nsamples)
	for i := range nsamples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	return FromInterleaved(samples, 2, decoder.SampleRate()), nil
}

// Resample converts buf to sampleRate. Buffers already at that rate are
// returned unchanged.
func Resample(buf *Buffer, sampleRate int) (*Buffer, error) {
	if buf.SampleRate == sampleRate || buf.Frames() == 0 {
		return buf, nil
	}
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid source sample rate %d", buf.SampleRate)
	}
	ratio := float64(sampleRate) / float64(buf.SampleRate)
	out, err := gosamplerate.Simple(buf.Interleaved(), ratio, buf.NumChannels(), gosamplerate.SRC_SINC_BEST_QUALITY)
	if err != nil {
		return nil, err
	}
	return FromInterleaved(out, buf.NumChannels(), sampleRate), nil
}
