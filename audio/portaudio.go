package audio

import (
	"sync"

	pa "github.com/gordonklaus/portaudio"
)

const portaudioFramesPerBuffer = 256

type portaudioOutput struct {
	stream *pa.Stream
	source SampleSource
	buf    []float32
	once   sync.Once
}

// NewPortAudioOutput opens the default PortAudio output device in callback mode.
func NewPortAudioOutput(sampleRate int, source SampleSource) (Output, error) {
	if err := pa.Initialize(); err != nil {
		return nil, err
	}
	o := &portaudioOutput{source: source}
	stream, err := pa.OpenDefaultStream(0, 2, float64(sampleRate), portaudioFramesPerBuffer, o.callback)
	if err != nil {
		pa.Terminate()
		return nil, err
	}
	o.stream = stream
	return o, nil
}

func (o *portaudioOutput) callback(out [][]float32) {
	frames := len(out[0])
	if cap(o.buf) < frames*2 {
		o.buf = make([]float32, frames*2)
	}
	buf := o.buf[:frames*2]
	o.source.Process(buf)
	for i := 0; i < frames; i++ {
		out[0][i] = buf[2*i]
		out[1][i] = buf[2*i+1]
	}
}

func (o *portaudioOutput) Play() error {
	return o.stream.Start()
}

func (o *portaudioOutput) Close() error {
	var err error
	o.once.Do(func() {
		o.stream.Stop()
		err = o.stream.Close()
		pa.Terminate()
	})
	return err
}
