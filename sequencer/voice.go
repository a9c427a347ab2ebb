package sequencer

import (
	"go-drumseq/audio"
	"go-drumseq/debug"
)

// Event is one scheduled trigger. It is produced, consumed once and dropped.
type Event struct {
	ChannelID    int
	Step         int
	Sample       string
	VelocityGain float64
	VolumeGain   float64
	Pan          float64
	Time         float64
}

// NewEvent builds the event for step of ch at time.
func NewEvent(ch Channel, step int, time float64) Event {
	velocity := DefaultVelocity
	if step >= 0 && step < len(ch.Velocity) {
		velocity = ch.Velocity[step]
	}
	return Event{
		ChannelID:    ch.ID,
		Step:         step,
		Sample:       ch.Sample,
		VelocityGain: VelocityGain(velocity),
		VolumeGain:   ch.Volume,
		Pan:          ch.Pan,
		Time:         time,
	}
}

// VelocityGain maps 1..127 linearly onto 1/127..1.
func VelocityGain(velocity int) float64 {
	return float64(ClampVelocity(velocity)) / MaxVelocity
}

// SampleLookup resolves a sample name to decoded PCM.
type SampleLookup interface {
	Lookup(name string) (*audio.Buffer, bool)
}

// Sink accepts scheduled voices.
type Sink interface {
	Schedule(v audio.Voice)
}

// Clock reports a sink's current time in seconds.
type Clock interface {
	CurrentTime() float64
}

// Trigger schedules ev on sink. A missing sample is a silent no-op, and a
// failing sink costs only this one voice.
func Trigger(sink Sink, lookup SampleLookup, ev Event) {
	buf, ok := lookup.Lookup(ev.Sample)
	if !ok {
		debug.LogEvery(16, "voice", "sample %s not loaded, step %d of channel %d silent", ev.Sample, ev.Step, ev.ChannelID)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			debug.Log("voice", "sink rejected %s at %.4f: %v", ev.Sample, ev.Time, r)
		}
	}()
	sink.Schedule(audio.Voice{
		Sample:       ev.Sample,
		Source:       buf,
		VelocityGain: ev.VelocityGain,
		VolumeGain:   ev.VolumeGain,
		Pan:          ev.Pan,
		Time:         ev.Time,
	})
}

// MultiSink fans every voice out to several sinks.
type MultiSink []Sink

func (m MultiSink) Schedule(v audio.Voice) {
	for _, s := range m {
		if s != nil {
			s.Schedule(v)
		}
	}
}
