package audio

import "math"

// Voice is one one-shot playback instruction with a fixed signal chain:
// source → velocity gain → volume gain → stereo pan → output.
type Voice struct {
	Sample       string
	Source       *Buffer
	VelocityGain float64
	VolumeGain   float64
	Pan          float64 // -1 (left) .. 1 (right)
	Time         float64 // absolute seconds on the sink's clock
}

// Gain is the combined velocity and volume gain.
func (v Voice) Gain() float64 {
	return v.VelocityGain * v.VolumeGain
}

// panMatrix holds the contribution of the source's left and right inputs to
// the output's left and right channels.
type panMatrix struct {
	ll, lr float32 // left input  → L, R
	rl, rr float32 // right input → L, R
}

// stereoPanner follows the web platform StereoPannerNode: equal-power gains
// over a linear position, with stereo sources folded towards the pan side.
func stereoPanner(pan float64, stereo bool, gain float64) panMatrix {
	pan = math.Max(-1, math.Min(1, pan))
	if !stereo {
		x := (pan + 1) / 2
		return panMatrix{
			ll: float32(gain * math.Cos(x*math.Pi/2)),
			lr: float32(gain * math.Sin(x*math.Pi/2)),
		}
	}
	if pan <= 0 {
		x := pan + 1
		return panMatrix{
			ll: float32(gain),
			rl: float32(gain * math.Cos(x*math.Pi/2)),
			rr: float32(gain * math.Sin(x*math.Pi/2)),
		}
	}
	x := pan
	return panMatrix{
		ll: float32(gain * math.Cos(x*math.Pi/2)),
		lr: float32(gain * math.Sin(x*math.Pi/2)),
		rr: float32(gain),
	}
}
