package sequencer

import (
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now float64
}

func (c *fakeClock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func everyStep(p Pattern) Pattern {
	for i := range p.Channels[0].Steps {
		p.Channels[0].Steps[i] = true
	}
	return p
}

func TestSchedulerFillsLookaheadWindow(t *testing.T) {
	p := everyStep(singleChannel(120, 0))
	sink := &recordingSink{}
	clock := &fakeClock{}
	s := NewScheduler(NewStore(p), clock, sink, clickKit(44100))

	s.mu.Lock()
	s.reset()
	s.advance(0)
	s.mu.Unlock()

	// window is [0, 0.1): only the step at the 0.05 startup offset fits
	voices := sink.snapshot()
	if len(voices) != 1 || math.Abs(voices[0].Time-0.05) > eps {
		t.Fatalf("expected one voice at 0.05, got %+v", voices)
	}

	s.mu.Lock()
	s.advance(0.19) // window ends at 0.29: the step at 0.175 only
	s.mu.Unlock()

	voices = sink.snapshot()
	if len(voices) != 2 || math.Abs(voices[1].Time-0.175) > eps {
		t.Fatalf("expected second voice at 0.175, got %+v", voices)
	}
}

func TestSchedulerReadsPatternEveryStep(t *testing.T) {
	p := singleChannel(120, 0)
	store := NewStore(p)
	sink := &recordingSink{}
	s := NewScheduler(store, &fakeClock{}, sink, clickKit(44100))

	s.mu.Lock()
	s.reset()
	s.advance(0)
	s.mu.Unlock()
	if n := len(sink.snapshot()); n != 0 {
		t.Fatalf("expected no voices, got %d", n)
	}

	// An edit lands before the next step is scheduled
	store.Dispatch(ToggleStep{ChannelID: 0, Step: 1})
	s.mu.Lock()
	s.advance(0.1)
	s.mu.Unlock()
	if n := len(sink.snapshot()); n != 1 {
		t.Fatalf("expected the toggled step to sound, got %d voices", n)
	}
}

func TestSchedulerWrapsCursorWhenPatternShrinks(t *testing.T) {
	p := singleChannel(120, 0)
	store := NewStore(p)
	s := NewScheduler(store, &fakeClock{}, &recordingSink{}, clickKit(44100))

	s.mu.Lock()
	s.reset()
	s.cursor = 10
	s.mu.Unlock()

	store.Dispatch(SetStepCount{Value: 8})

	s.mu.Lock()
	s.advance(0)
	cursor := s.cursor
	s.mu.Unlock()

	// 10 wraps to 2, which is scheduled, leaving the cursor at 3
	if cursor != 3 {
		t.Fatalf("cursor = %d, want 3", cursor)
	}
}

func TestSchedulerStopPreventsFurtherTriggers(t *testing.T) {
	p := everyStep(singleChannel(120, 0))
	sink := &recordingSink{}
	clock := &fakeClock{}
	s := NewScheduler(NewStore(p), clock, sink, clickKit(44100), WithTickInterval(time.Millisecond))

	s.Start()
	if !s.Running() {
		t.Fatal("expected running after Start")
	}
	s.Start() // no-op
	s.Stop()
	s.Stop() // idempotent

	n := len(sink.snapshot())
	clock.set(10)
	s.tick()
	if got := len(sink.snapshot()); got != n {
		t.Fatalf("tick after Stop scheduled %d voices", got-n)
	}
	if s.Running() {
		t.Fatal("expected stopped")
	}
	if s.CurrentStep() != NoStep {
		t.Fatalf("current step %d after stop, want %d", s.CurrentStep(), NoStep)
	}
}

func TestSchedulerRestartsFromStepZero(t *testing.T) {
	p := everyStep(singleChannel(120, 0))
	sink := &recordingSink{}
	clock := &fakeClock{}
	s := NewScheduler(NewStore(p), clock, sink, clickKit(44100), WithTickInterval(time.Hour))

	s.Start()
	s.Stop()
	clock.set(5)
	s.Start()
	s.Stop()

	voices := sink.snapshot()
	if len(voices) != 2 {
		t.Fatalf("expected one voice per start, got %d", len(voices))
	}
	if math.Abs(voices[1].Time-5.05) > eps {
		t.Fatalf("restart scheduled at %v, want 5.05", voices[1].Time)
	}
}

func TestSchedulerDrawMovesPlayhead(t *testing.T) {
	p := everyStep(singleChannel(120, 0))
	var mu sync.Mutex
	var seen []int
	s := NewScheduler(NewStore(p), &fakeClock{}, &recordingSink{}, clickKit(44100),
		WithStepListener(func(step int) {
			mu.Lock()
			seen = append(seen, step)
			mu.Unlock()
		}))

	s.mu.Lock()
	s.reset()
	s.advance(0.5) // steps up to 0.55
	s.mu.Unlock()

	s.draw(0.01)
	if s.CurrentStep() != NoStep {
		t.Fatalf("playhead moved before first step: %d", s.CurrentStep())
	}
	s.draw(0.2) // steps at 0.05 and 0.175 have passed
	if s.CurrentStep() != 1 {
		t.Fatalf("playhead at %d, want 1", s.CurrentStep())
	}
	s.draw(0.35)
	if s.CurrentStep() != 2 {
		t.Fatalf("playhead at %d, want 2", s.CurrentStep())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("listener saw %v, want [1 2]", seen)
	}
}

func TestSchedulerTempoChangeAffectsLaterSteps(t *testing.T) {
	p := everyStep(singleChannel(120, 0))
	store := NewStore(p)
	sink := &recordingSink{}
	s := NewScheduler(store, &fakeClock{}, sink, clickKit(44100))

	s.mu.Lock()
	s.reset()
	s.advance(0) // step 0 at 0.05, next at 0.175
	s.mu.Unlock()

	store.Dispatch(SetBPM{Value: 60})

	s.mu.Lock()
	s.advance(0.19) // step 1 keeps its queued time, next is a 60 bpm step later
	s.advance(0.4)
	s.mu.Unlock()

	want := []float64{0.05, 0.175, 0.425}
	voices := sink.snapshot()
	if len(voices) != len(want) {
		t.Fatalf("got %d voices, want %d", len(voices), len(want))
	}
	for i, w := range want {
		if math.Abs(voices[i].Time-w) > eps {
			t.Errorf("voice %d at %v, want %v", i, voices[i].Time, w)
		}
	}
}

func TestSchedulerQueuesUnswungTimes(t *testing.T) {
	p := everyStep(singleChannel(120, 0.5))
	sink := &recordingSink{}
	s := NewScheduler(NewStore(p), &fakeClock{}, sink, clickKit(44100))

	s.mu.Lock()
	s.reset()
	s.advance(0.19)
	s.mu.Unlock()

	voices := sink.snapshot()
	if len(voices) != 2 || math.Abs(voices[1].Time-0.20625) > eps {
		t.Fatalf("expected the swung step at 0.20625, got %+v", voices)
	}

	s.queueMu.Lock()
	queue := append([]visualNote(nil), s.queue...)
	s.queueMu.Unlock()
	want := []visualNote{{step: 0, time: 0.05}, {step: 1, time: 0.175}}
	if len(queue) != len(want) {
		t.Fatalf("queue %+v", queue)
	}
	for i, w := range want {
		if queue[i].step != w.step || math.Abs(queue[i].time-w.time) > eps {
			t.Errorf("queue[%d] = %+v, want %+v", i, queue[i], w)
		}
	}
}
