package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// DrumChannel is the General MIDI percussion channel (10, zero based).
const DrumChannel uint8 = 9

// Event is one outgoing note message
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Message converts the event to a wire message.
func (e Event) Message() gomidi.Message {
	if e.Type == NoteOff {
		return gomidi.NoteOff(e.Channel, e.Note)
	}
	return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
}

// Velocity maps a voice's combined gain (0..1) to a MIDI velocity 1..127.
func Velocity(gain float64) uint8 {
	v := int(gain*127 + 0.5)
	return uint8(max(1, min(127, v)))
}
