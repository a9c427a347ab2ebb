package sequencer

import (
	"math"
	"testing"
)

func TestStepDuration(t *testing.T) {
	cases := []struct {
		bpm  int
		want float64
	}{
		{120, 0.125},
		{60, 0.25},
		{200, 0.075},
	}
	for _, tc := range cases {
		if got := StepDuration(tc.bpm); math.Abs(got-tc.want) > eps {
			t.Errorf("StepDuration(%d) = %v, want %v", tc.bpm, got, tc.want)
		}
	}
}

func TestSwingOffsetOnlyOnOddSteps(t *testing.T) {
	stepDur := StepDuration(120)
	for step := 0; step < 16; step++ {
		got := SwingOffset(step, 0.5, stepDur)
		want := 0.0
		if step%2 == 1 {
			want = 0.03125
		}
		if math.Abs(got-want) > eps {
			t.Errorf("step %d offset %v, want %v", step, got, want)
		}
	}
	if got := SwingOffset(1, 1, stepDur); math.Abs(got-stepDur/2) > eps {
		t.Errorf("full swing delays by %v, want half a step", got)
	}
}

func TestEffectiveSwing(t *testing.T) {
	cases := []struct {
		name    string
		channel float64
		global  float64
		want    float64
	}{
		{"zero inherits global", 0, 0.4, 0.4},
		{"channel overrides", 0.2, 0.4, 0.2},
		{"both zero", 0, 0, 0},
		{"channel above global", 0.9, 0.1, 0.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch := Channel{Swing: tc.channel}
			if got := EffectiveSwing(ch, tc.global); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAudible(t *testing.T) {
	cases := []struct {
		name  string
		muted []bool
		solo  []bool
		want  []bool
	}{
		{"all play", []bool{false, false, false}, []bool{false, false, false}, []bool{true, true, true}},
		{"mute one", []bool{false, true, false}, []bool{false, false, false}, []bool{true, false, true}},
		{"solo wins over mute", []bool{false, true, false}, []bool{false, true, false}, []bool{false, true, false}},
		{"solo silences the rest", []bool{false, false, false}, []bool{true, false, true}, []bool{true, false, true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chs := make([]Channel, len(tc.muted))
			for i := range chs {
				chs[i].Muted = tc.muted[i]
				chs[i].Solo = tc.solo[i]
			}
			got := Audible(chs)
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestStepEventsCarryChannelMix(t *testing.T) {
	p := Pattern{BPM: 120, Swing: 0.5, StepCount: 16}
	a := NewChannel(0, "A", "kick.wav", 0.5, 16)
	a.Pan = -0.25
	a.Steps[1] = true
	a.Velocity[1] = 127
	b := NewChannel(1, "B", "snare.wav", 1, 16)
	b.Steps[1] = true
	b.Muted = true
	p.Channels = []Channel{a, b}

	events := StepEvents(p, 1, 1.0)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Sample != "kick.wav" || ev.VolumeGain != 0.5 || ev.Pan != -0.25 || ev.VelocityGain != 1 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if math.Abs(ev.Time-1.03125) > eps {
		t.Fatalf("event at %v, want 1.03125", ev.Time)
	}
}

func TestVelocityGainIsLinear(t *testing.T) {
	if got := VelocityGain(127); got != 1 {
		t.Errorf("127 -> %v", got)
	}
	if got := VelocityGain(1); math.Abs(got-1.0/127) > eps {
		t.Errorf("1 -> %v", got)
	}
	if got := VelocityGain(0); math.Abs(got-1.0/127) > eps {
		t.Errorf("0 clamps to 1/127, got %v", got)
	}
}
