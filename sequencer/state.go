package sequencer

import (
	"fmt"
	"math"
)

// Pattern limits
const (
	MinBPM          = 60
	MaxBPM          = 200
	MinVelocity     = 1
	MaxVelocity     = 127
	DefaultVelocity = 100
	DefaultBPM      = 120
	DefaultSteps    = 16
	MaxChannels     = 12
	DefaultSample   = "kick.wav"
)

// StepCounts are the allowed pattern lengths.
var StepCounts = []int{4, 8, 16, 32}

// SampleNames is the bundled kit.
var SampleNames = []string{
	"clap.wav",
	"cowbell.wav",
	"hihat-closed.wav",
	"hihat-open.wav",
	"kick.wav",
	"rim.wav",
	"snare.wav",
	"tom.wav",
}

// Pattern is the complete programmable state of the drum machine
type Pattern struct {
	BPM       int       `json:"bpm"`
	Swing     float64   `json:"swing"` // global swing 0.0-1.0
	StepCount int       `json:"stepCount"`
	Channels  []Channel `json:"channels"`
}

// Channel holds one sample lane
type Channel struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Sample   string  `json:"sample"`
	Volume   float64 `json:"volume"` // 0.0-1.0
	Pan      float64 `json:"pan"`    // -1.0 to 1.0
	Swing    float64 `json:"swing"`  // 0 = use global
	Muted    bool    `json:"muted"`
	Solo     bool    `json:"solo"`
	Steps    []bool  `json:"steps"`
	Velocity []int   `json:"velocity"` // 1-127
}

// NewChannel creates a channel with all steps off at default velocity.
func NewChannel(id int, name, sample string, volume float64, stepCount int) Channel {
	ch := Channel{
		ID:       id,
		Name:     name,
		Sample:   sample,
		Volume:   clampFloat(volume, 0, 1),
		Steps:    make([]bool, stepCount),
		Velocity: make([]int, stepCount),
	}
	for i := range ch.Velocity {
		ch.Velocity[i] = DefaultVelocity
	}
	return ch
}

// DefaultPattern returns the six-channel starter kit at 120 BPM.
func DefaultPattern() Pattern {
	defaults := []struct {
		name   string
		sample string
		volume float64
	}{
		{"Kick", "kick.wav", 0.85},
		{"Snare", "snare.wav", 0.8},
		{"Hi-Hat Cl.", "hihat-closed.wav", 0.75},
		{"Hi-Hat Op.", "hihat-open.wav", 0.7},
		{"Clap", "clap.wav", 0.8},
		{"Tom", "tom.wav", 0.75},
	}
	p := Pattern{BPM: DefaultBPM, StepCount: DefaultSteps}
	for i, d := range defaults {
		p.Channels = append(p.Channels, NewChannel(i, d.name, d.sample, d.volume, DefaultSteps))
	}
	return p
}

// Clone returns a deep copy; the copy shares nothing with p.
func (p Pattern) Clone() Pattern {
	out := p
	out.Channels = make([]Channel, len(p.Channels))
	for i, ch := range p.Channels {
		out.Channels[i] = ch.Clone()
	}
	return out
}

// Clone returns a deep copy of the channel.
func (c Channel) Clone() Channel {
	out := c
	out.Steps = append([]bool(nil), c.Steps...)
	out.Velocity = append([]int(nil), c.Velocity...)
	return out
}

// Channel returns the channel with the given ID.
func (p *Pattern) Channel(id int) (*Channel, bool) {
	for i := range p.Channels {
		if p.Channels[i].ID == id {
			return &p.Channels[i], true
		}
	}
	return nil, false
}

// Samples returns the distinct sample names referenced by the channels.
func (p Pattern) Samples() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ch := range p.Channels {
		if !seen[ch.Sample] {
			seen[ch.Sample] = true
			out = append(out, ch.Sample)
		}
	}
	return out
}

// NextID returns an ID not used by any channel.
func (p Pattern) NextID() int {
	next := 0
	for _, ch := range p.Channels {
		if ch.ID >= next {
			next = ch.ID + 1
		}
	}
	return next
}

// Validate reports the first invariant violation, if any.
func (p Pattern) Validate() error {
	if p.BPM < MinBPM || p.BPM > MaxBPM {
		return fmt.Errorf("bpm %d outside [%d,%d]", p.BPM, MinBPM, MaxBPM)
	}
	if p.Swing < 0 || p.Swing > 1 {
		return fmt.Errorf("swing %v outside [0,1]", p.Swing)
	}
	if !ValidStepCount(p.StepCount) {
		return fmt.Errorf("step count %d not one of %v", p.StepCount, StepCounts)
	}
	if len(p.Channels) > MaxChannels {
		return fmt.Errorf("%d channels exceeds maximum of %d", len(p.Channels), MaxChannels)
	}
	ids := make(map[int]bool)
	for _, ch := range p.Channels {
		if ids[ch.ID] {
			return fmt.Errorf("duplicate channel id %d", ch.ID)
		}
		ids[ch.ID] = true
		if len(ch.Steps) != p.StepCount || len(ch.Velocity) != p.StepCount {
			return fmt.Errorf("channel %d has %d steps and %d velocities, want %d",
				ch.ID, len(ch.Steps), len(ch.Velocity), p.StepCount)
		}
		for i, v := range ch.Velocity {
			if v < MinVelocity || v > MaxVelocity {
				return fmt.Errorf("channel %d step %d velocity %d outside [%d,%d]", ch.ID, i, v, MinVelocity, MaxVelocity)
			}
		}
		if ch.Volume < 0 || ch.Volume > 1 || ch.Pan < -1 || ch.Pan > 1 || ch.Swing < 0 || ch.Swing > 1 {
			return fmt.Errorf("channel %d mix values out of range", ch.ID)
		}
	}
	return nil
}

// Normalize clamps every value into range, resizes step arrays to
// StepCount and drops channels beyond the maximum. Used on loaded data.
func (p Pattern) Normalize() Pattern {
	out := p.Clone()
	out.BPM = ClampBPM(out.BPM)
	out.Swing = ClampSwing(out.Swing)
	if !ValidStepCount(out.StepCount) {
		out.StepCount = DefaultSteps
	}
	if len(out.Channels) > MaxChannels {
		out.Channels = out.Channels[:MaxChannels]
	}
	seen := make(map[int]bool)
	next := out.NextID()
	for i := range out.Channels {
		ch := &out.Channels[i]
		if seen[ch.ID] {
			ch.ID = next
			next++
		}
		seen[ch.ID] = true
		ch.Volume = clampFloat(ch.Volume, 0, 1)
		ch.Pan = clampFloat(ch.Pan, -1, 1)
		ch.Swing = ClampSwing(ch.Swing)
		if ch.Sample == "" {
			ch.Sample = DefaultSample
		}
		resizeChannel(ch, out.StepCount)
		for s, v := range ch.Velocity {
			ch.Velocity[s] = ClampVelocity(v)
		}
	}
	return out
}

// resizeChannel truncates or pads the step arrays, preserving existing
// values at their indices.
func resizeChannel(ch *Channel, n int) {
	steps := make([]bool, n)
	velocity := make([]int, n)
	for i := 0; i < n; i++ {
		velocity[i] = DefaultVelocity
		if i < len(ch.Steps) {
			steps[i] = ch.Steps[i]
		}
		if i < len(ch.Velocity) {
			velocity[i] = ch.Velocity[i]
		}
	}
	ch.Steps = steps
	ch.Velocity = velocity
}

// ValidStepCount reports whether n is an allowed pattern length.
func ValidStepCount(n int) bool {
	for _, c := range StepCounts {
		if c == n {
			return true
		}
	}
	return false
}

func ClampBPM(bpm int) int {
	return max(MinBPM, min(MaxBPM, bpm))
}

func ClampVelocity(v int) int {
	return max(MinVelocity, min(MaxVelocity, v))
}

func ClampSwing(s float64) float64 {
	return clampFloat(s, 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
