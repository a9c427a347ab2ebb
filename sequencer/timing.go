package sequencer

// StepDuration is one sixteenth note in seconds.
func StepDuration(bpm int) float64 {
	return 60 / float64(bpm) / 4
}

// BarDuration is one pass through the pattern in seconds.
func BarDuration(p Pattern) float64 {
	return float64(p.StepCount) * StepDuration(p.BPM)
}

// Audible reports, per channel, whether it sounds: when any channel is
// soloed only soloed channels do; otherwise every unmuted channel does.
func Audible(channels []Channel) []bool {
	hasSolo := false
	for _, ch := range channels {
		if ch.Solo {
			hasSolo = true
			break
		}
	}
	out := make([]bool, len(channels))
	for i, ch := range channels {
		if hasSolo {
			out[i] = ch.Solo
		} else {
			out[i] = !ch.Muted
		}
	}
	return out
}

// EffectiveSwing is the channel's own swing, or the global one when the
// channel's is zero. A channel therefore cannot ask for zero swing while
// the global swing is non-zero.
func EffectiveSwing(ch Channel, global float64) float64 {
	if ch.Swing > 0 {
		return ch.Swing
	}
	return global
}

// SwingOffset delays odd (off-beat) steps by half a step scaled by swing.
func SwingOffset(step int, swing, stepDuration float64) float64 {
	if step%2 == 1 {
		return swing * stepDuration * 0.5
	}
	return 0
}

// StepEvents returns the events for one step of p whose unswung start is
// baseTime. Both the live scheduler and the offline renderer use it.
func StepEvents(p Pattern, step int, baseTime float64) []Event {
	stepDur := StepDuration(p.BPM)
	audible := Audible(p.Channels)
	var events []Event
	for i, ch := range p.Channels {
		if step < 0 || step >= len(ch.Steps) || !ch.Steps[step] || !audible[i] {
			continue
		}
		offset := SwingOffset(step, EffectiveSwing(ch, p.Swing), stepDur)
		events = append(events, NewEvent(ch, step, baseTime+offset))
	}
	return events
}
