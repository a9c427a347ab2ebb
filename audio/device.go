package audio

import "fmt"

// Backend names a realtime output implementation.
type Backend string

const (
	BackendEbiten    Backend = "ebiten"
	BackendPortAudio Backend = "portaudio"
)

// Device is the realtime sink: a Mixer whose clock is driven by an output
// backend pulling frames from it.
type Device struct {
	*Mixer
	out Output
}

// OpenDevice opens a realtime device on the named backend and starts pulling.
func OpenDevice(backend Backend, sampleRate int) (*Device, error) {
	mixer := NewMixer(sampleRate)
	var (
		out Output
		err error
	)
	switch backend {
	case BackendEbiten, "":
		out, err = NewEbitenOutput(sampleRate, mixer)
	case BackendPortAudio:
		out, err = NewPortAudioOutput(sampleRate, mixer)
	default:
		return nil, fmt.Errorf("unknown audio backend %q (expected ebiten|portaudio)", backend)
	}
	if err != nil {
		return nil, err
	}
	if err := out.Play(); err != nil {
		out.Close()
		return nil, err
	}
	return &Device{Mixer: mixer, out: out}, nil
}

func (d *Device) Close() error {
	return d.out.Close()
}
