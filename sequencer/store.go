package sequencer

import (
	"sync"

	"go-drumseq/debug"
)

// Action is one user edit. Actions are applied by the Store only, so the
// pattern has a single writer.
type Action interface {
	apply(p *Pattern) bool // reports whether p changed
}

// Store owns the live pattern. Readers take snapshots; writers dispatch.
type Store struct {
	mu          sync.RWMutex
	pattern     Pattern
	subscribers []chan struct{}
}

// NewStore creates a store holding a normalized copy of p.
func NewStore(p Pattern) *Store {
	return &Store{pattern: p.Normalize()}
}

// Snapshot returns a consistent deep copy of the current pattern.
func (s *Store) Snapshot() Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pattern.Clone()
}

// Dispatch applies a to the pattern and notifies subscribers on change.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	changed := a.apply(&s.pattern)
	subs := s.subscribers
	s.mu.Unlock()

	if !changed {
		return
	}
	debug.Log("store", "%T applied", a)
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a channel signalled (non-blocking) after every change.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

// ToggleStep flips one step on or off.
type ToggleStep struct {
	ChannelID int
	Step      int
}

func (a ToggleStep) apply(p *Pattern) bool {
	ch, ok := p.Channel(a.ChannelID)
	if !ok || a.Step < 0 || a.Step >= len(ch.Steps) {
		return false
	}
	ch.Steps[a.Step] = !ch.Steps[a.Step]
	return true
}

// SetVelocity sets one step's velocity, clamped to 1..127.
type SetVelocity struct {
	ChannelID int
	Step      int
	Value     int
}

func (a SetVelocity) apply(p *Pattern) bool {
	ch, ok := p.Channel(a.ChannelID)
	if !ok || a.Step < 0 || a.Step >= len(ch.Velocity) {
		return false
	}
	ch.Velocity[a.Step] = ClampVelocity(a.Value)
	return true
}

// ChannelPatch holds optional channel fields; nil fields are left unchanged.
type ChannelPatch struct {
	Name   *string
	Sample *string
	Volume *float64
	Pan    *float64
	Swing  *float64
	Muted  *bool
}

// UpdateChannel applies a patch to one channel, clamping mix values.
type UpdateChannel struct {
	ChannelID int
	Patch     ChannelPatch
}

func (a UpdateChannel) apply(p *Pattern) bool {
	ch, ok := p.Channel(a.ChannelID)
	if !ok {
		return false
	}
	pt := a.Patch
	if pt.Name != nil {
		ch.Name = *pt.Name
	}
	if pt.Sample != nil && *pt.Sample != "" {
		ch.Sample = *pt.Sample
	}
	if pt.Volume != nil {
		ch.Volume = clampFloat(*pt.Volume, 0, 1)
	}
	if pt.Pan != nil {
		ch.Pan = clampFloat(*pt.Pan, -1, 1)
	}
	if pt.Swing != nil {
		ch.Swing = ClampSwing(*pt.Swing)
	}
	if pt.Muted != nil {
		ch.Muted = *pt.Muted
	}
	return true
}

// AddChannel appends a new channel; ignored once MaxChannels is reached.
type AddChannel struct {
	Name   string
	Sample string
}

func (a AddChannel) apply(p *Pattern) bool {
	if len(p.Channels) >= MaxChannels {
		return false
	}
	name, sample := a.Name, a.Sample
	if name == "" {
		name = "Channel"
	}
	if sample == "" {
		sample = DefaultSample
	}
	p.Channels = append(p.Channels, NewChannel(p.NextID(), name, sample, 0.8, p.StepCount))
	return true
}

// RemoveChannel deletes a channel.
type RemoveChannel struct {
	ChannelID int
}

func (a RemoveChannel) apply(p *Pattern) bool {
	for i := range p.Channels {
		if p.Channels[i].ID == a.ChannelID {
			p.Channels = append(p.Channels[:i], p.Channels[i+1:]...)
			return true
		}
	}
	return false
}

// SoloChannel toggles solo on one channel and clears it on all others.
type SoloChannel struct {
	ChannelID int
}

func (a SoloChannel) apply(p *Pattern) bool {
	target, ok := p.Channel(a.ChannelID)
	if !ok {
		return false
	}
	solo := !target.Solo
	for i := range p.Channels {
		p.Channels[i].Solo = p.Channels[i].ID == a.ChannelID && solo
	}
	return true
}

// SetBPM sets the tempo, clamped to 60..200.
type SetBPM struct {
	Value int
}

func (a SetBPM) apply(p *Pattern) bool {
	bpm := ClampBPM(a.Value)
	if bpm == p.BPM {
		return false
	}
	p.BPM = bpm
	return true
}

// SetSwing sets the global swing, clamped to 0..1.
type SetSwing struct {
	Value float64
}

func (a SetSwing) apply(p *Pattern) bool {
	p.Swing = ClampSwing(a.Value)
	return true
}

// SetStepCount changes the pattern length. Shrinking truncates every
// channel; growing pads with inactive steps at the default velocity.
type SetStepCount struct {
	Value int
}

func (a SetStepCount) apply(p *Pattern) bool {
	if !ValidStepCount(a.Value) || a.Value == p.StepCount {
		return false
	}
	p.StepCount = a.Value
	for i := range p.Channels {
		resizeChannel(&p.Channels[i], a.Value)
	}
	return true
}

// ReplacePattern swaps in a whole pattern (project load), normalized.
type ReplacePattern struct {
	Pattern Pattern
}

func (a ReplacePattern) apply(p *Pattern) bool {
	*p = a.Pattern.Normalize()
	return true
}
