package sequencer

import (
	"testing"
)

func TestSetStepCountTruncatesAndPads(t *testing.T) {
	p := DefaultPattern()
	p.Channels[0].Steps[2] = true
	p.Channels[0].Velocity[2] = 60
	p.Channels[0].Steps[12] = true
	s := NewStore(p)

	s.Dispatch(SetStepCount{Value: 8})
	got := s.Snapshot()
	if got.StepCount != 8 {
		t.Fatalf("step count %d", got.StepCount)
	}
	for _, ch := range got.Channels {
		if len(ch.Steps) != 8 || len(ch.Velocity) != 8 {
			t.Fatalf("channel %d has %d steps", ch.ID, len(ch.Steps))
		}
	}

	s.Dispatch(SetStepCount{Value: 32})
	got = s.Snapshot()
	ch := got.Channels[0]
	if len(ch.Steps) != 32 {
		t.Fatalf("grew to %d steps", len(ch.Steps))
	}
	if !ch.Steps[2] || ch.Velocity[2] != 60 {
		t.Fatal("step 2 lost across resize")
	}
	if ch.Steps[12] {
		t.Fatal("truncated step 12 came back")
	}
	for i := 8; i < 32; i++ {
		if ch.Velocity[i] != DefaultVelocity {
			t.Fatalf("padded velocity %d at %d", ch.Velocity[i], i)
		}
	}
}

func TestSetStepCountIgnoresInvalid(t *testing.T) {
	s := NewStore(DefaultPattern())
	s.Dispatch(SetStepCount{Value: 12})
	if got := s.Snapshot().StepCount; got != 16 {
		t.Fatalf("step count %d after invalid resize", got)
	}
}

func TestClampedEdits(t *testing.T) {
	s := NewStore(DefaultPattern())

	s.Dispatch(SetBPM{Value: 500})
	if got := s.Snapshot().BPM; got != MaxBPM {
		t.Errorf("bpm %d, want %d", got, MaxBPM)
	}
	s.Dispatch(SetBPM{Value: 10})
	if got := s.Snapshot().BPM; got != MinBPM {
		t.Errorf("bpm %d, want %d", got, MinBPM)
	}

	s.Dispatch(SetVelocity{ChannelID: 0, Step: 3, Value: 300})
	if got := s.Snapshot().Channels[0].Velocity[3]; got != MaxVelocity {
		t.Errorf("velocity %d, want %d", got, MaxVelocity)
	}
	s.Dispatch(SetVelocity{ChannelID: 0, Step: 3, Value: -4})
	if got := s.Snapshot().Channels[0].Velocity[3]; got != MinVelocity {
		t.Errorf("velocity %d, want %d", got, MinVelocity)
	}

	s.Dispatch(SetSwing{Value: 1.5})
	if got := s.Snapshot().Swing; got != 1 {
		t.Errorf("swing %v, want 1", got)
	}

	vol, pan := 2.0, -3.0
	s.Dispatch(UpdateChannel{ChannelID: 1, Patch: ChannelPatch{Volume: &vol, Pan: &pan}})
	ch := s.Snapshot().Channels[1]
	if ch.Volume != 1 || ch.Pan != -1 {
		t.Errorf("volume %v pan %v", ch.Volume, ch.Pan)
	}
}

func TestSoloIsExclusive(t *testing.T) {
	s := NewStore(DefaultPattern())

	s.Dispatch(SoloChannel{ChannelID: 1})
	s.Dispatch(SoloChannel{ChannelID: 3})
	p := s.Snapshot()
	for _, ch := range p.Channels {
		if ch.Solo != (ch.ID == 3) {
			t.Fatalf("channel %d solo=%v", ch.ID, ch.Solo)
		}
	}

	s.Dispatch(SoloChannel{ChannelID: 3})
	for _, ch := range s.Snapshot().Channels {
		if ch.Solo {
			t.Fatalf("channel %d still soloed", ch.ID)
		}
	}
}

func TestAddChannelStopsAtMax(t *testing.T) {
	s := NewStore(DefaultPattern())
	for i := 0; i < 20; i++ {
		s.Dispatch(AddChannel{Name: "Extra"})
	}
	p := s.Snapshot()
	if len(p.Channels) != MaxChannels {
		t.Fatalf("%d channels, want %d", len(p.Channels), MaxChannels)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("invalid after adds: %v", err)
	}
	last := p.Channels[len(p.Channels)-1]
	if last.Sample != DefaultSample || len(last.Steps) != p.StepCount {
		t.Fatalf("unexpected new channel %+v", last)
	}
}

func TestRemoveChannel(t *testing.T) {
	s := NewStore(DefaultPattern())
	s.Dispatch(RemoveChannel{ChannelID: 2})
	p := s.Snapshot()
	if _, ok := p.Channel(2); ok {
		t.Fatal("channel 2 still present")
	}
	if len(p.Channels) != 5 {
		t.Fatalf("%d channels left", len(p.Channels))
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewStore(DefaultPattern())
	snap := s.Snapshot()
	snap.Channels[0].Steps[0] = true
	snap.Channels[0].Velocity[0] = 1

	again := s.Snapshot()
	if again.Channels[0].Steps[0] || again.Channels[0].Velocity[0] != DefaultVelocity {
		t.Fatal("mutating a snapshot changed the store")
	}
}

func TestSubscribeSignalsChanges(t *testing.T) {
	s := NewStore(DefaultPattern())
	ch := s.Subscribe()

	s.Dispatch(SetBPM{Value: DefaultBPM}) // unchanged
	select {
	case <-ch:
		t.Fatal("signalled without a change")
	default:
	}

	s.Dispatch(ToggleStep{ChannelID: 0, Step: 0})
	s.Dispatch(ToggleStep{ChannelID: 0, Step: 1}) // coalesced
	select {
	case <-ch:
	default:
		t.Fatal("no signal after change")
	}
}

func TestNormalizeRepairsLoadedPattern(t *testing.T) {
	p := Pattern{
		BPM:       999,
		Swing:     -1,
		StepCount: 7,
		Channels: []Channel{
			{ID: 4, Volume: 3, Pan: 2, Steps: []bool{true}, Velocity: []int{0}},
			{ID: 4, Sample: "snare.wav", Steps: make([]bool, 40)},
		},
	}
	got := p.Normalize()
	if err := got.Validate(); err != nil {
		t.Fatalf("normalized pattern invalid: %v", err)
	}
	if got.StepCount != DefaultSteps || got.BPM != MaxBPM {
		t.Fatalf("got steps %d bpm %d", got.StepCount, got.BPM)
	}
	if got.Channels[0].Sample != DefaultSample || !got.Channels[0].Steps[0] || got.Channels[0].Velocity[0] != MinVelocity {
		t.Fatalf("channel 0 not repaired: %+v", got.Channels[0])
	}
	if got.Channels[0].ID == got.Channels[1].ID {
		t.Fatal("duplicate ids survived")
	}
}
