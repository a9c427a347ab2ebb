package audio

import "math"

// noise is the deterministic LCG used by every synthesized voice.
func noise() func() float64 {
	s := uint32(0xdeadbeef)
	return func() float64 {
		s = 1664525*s + 1013904223
		return float64(s)/0xffffffff*2 - 1
	}
}

type synthFunc func(t float64, noise func() float64) float64

type kitVoice struct {
	duration float64
	fn       synthFunc
}

var kit = map[string]kitVoice{
	"kick.wav": {0.4, func(t float64, n func() float64) float64 {
		env := math.Exp(-t * 14)
		freq := 40 + 140*math.Exp(-t*25)
		tone := math.Sin(2 * math.Pi * freq * t)
		click := n() * math.Exp(-t*120) * 0.3
		return (tone*0.9 + click) * env
	}},
	"snare.wav": {0.25, func(t float64, n func() float64) float64 {
		tone := math.Sin(2*math.Pi*200*t) * math.Exp(-t*30) * 0.3
		sn := n() * math.Exp(-t*18) * 0.8
		return (tone + sn) * 0.9
	}},
	"hihat-closed.wav": {0.08, func(t float64, n func() float64) float64 {
		hpf := n() - math.Sin(2*math.Pi*3000*t)*0.1
		return hpf * math.Exp(-t*80) * 0.7
	}},
	"hihat-open.wav": {0.35, func(t float64, n func() float64) float64 {
		return n() * math.Exp(-t*9) * 0.65
	}},
	"clap.wav": {0.2, func(t float64, n func() float64) float64 {
		var val float64
		for _, offset := range []float64{0, 0.005, 0.012, 0.020} {
			if bt := t - offset; bt >= 0 {
				val += n() * math.Exp(-bt*120) * 0.4
			}
		}
		tail := n() * math.Exp(-t*25) * 0.2
		return (val + tail) * 0.9
	}},
	"tom.wav": {0.35, func(t float64, n func() float64) float64 {
		freq := 90 + 60*math.Exp(-t*20)
		tone := math.Sin(2 * math.Pi * freq * t)
		click := n() * math.Exp(-t*80) * 0.15
		return (tone*0.85 + click) * math.Exp(-t*12)
	}},
	"rim.wav": {0.08, func(t float64, n func() float64) float64 {
		tone := math.Sin(2*math.Pi*1800*t) * 0.5
		return (tone + n()*0.4) * math.Exp(-t*70) * 0.85
	}},
	"cowbell.wav": {0.6, func(t float64, _ func() float64) float64 {
		f1 := math.Sin(2 * math.Pi * 562 * t)
		f2 := math.Sin(2 * math.Pi * 845 * t)
		return (f1*0.6 + f2*0.4) * math.Exp(-t*7) * 0.8
	}},
}

// Synthesize renders one of the built-in kit voices as a mono buffer.
func Synthesize(name string, sampleRate int) (*Buffer, bool) {
	v, ok := kit[name]
	if !ok {
		return nil, false
	}
	n := int(math.Floor(float64(sampleRate) * v.duration))
	buf := NewBuffer(1, n, sampleRate)
	rng := noise()
	data := buf.Channels[0]
	for i := range data {
		t := float64(i) / float64(sampleRate)
		s := v.fn(t, rng)
		data[i] = float32(math.Max(-1, math.Min(1, s)))
	}
	return buf, true
}

// HasSynth reports whether name is part of the built-in kit.
func HasSynth(name string) bool {
	_, ok := kit[name]
	return ok
}
