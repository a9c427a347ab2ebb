package sequencer

import (
	"sync"
	"sync/atomic"
	"time"

	"go-drumseq/debug"
)

// Scheduler defaults
const (
	DefaultLookahead     = 100 * time.Millisecond
	DefaultTickInterval  = 25 * time.Millisecond
	DefaultStartupBuffer = 50 * time.Millisecond
	DefaultFrameRate     = 60
)

// NoStep is the displayed step while stopped.
const NoStep = -1

// PatternSource hands out consistent pattern snapshots.
type PatternSource interface {
	Snapshot() Pattern
}

type schedulerConfig struct {
	lookahead    float64
	tickInterval time.Duration
	startup      float64
	frameRate    int
	onStep       func(step int)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*schedulerConfig)

func WithLookahead(d time.Duration) SchedulerOption {
	return func(c *schedulerConfig) {
		c.lookahead = d.Seconds()
	}
}

func WithTickInterval(d time.Duration) SchedulerOption {
	return func(c *schedulerConfig) {
		c.tickInterval = d
	}
}

func WithStartupBuffer(d time.Duration) SchedulerOption {
	return func(c *schedulerConfig) {
		c.startup = d.Seconds()
	}
}

// WithFrameRate sets the playhead refresh rate.
func WithFrameRate(fps int) SchedulerOption {
	return func(c *schedulerConfig) {
		c.frameRate = fps
	}
}

// WithStepListener installs a callback invoked from the visual loop whenever
// the displayed step changes, and with NoStep on Stop.
func WithStepListener(fn func(step int)) SchedulerOption {
	return func(c *schedulerConfig) {
		c.onStep = fn
	}
}

// visualNote records when a step's unswung start passes, for the playhead.
type visualNote struct {
	step int
	time float64
}

// Scheduler is the live lookahead scheduler. A fixed-period tick schedules
// every step whose start falls inside the lookahead window, reading the
// pattern fresh for each step. A separate frame-rate loop moves the
// playhead and never touches audio scheduling state.
type Scheduler struct {
	source PatternSource
	clock  Clock
	sink   Sink
	lookup SampleLookup
	cfg    schedulerConfig

	mu       sync.Mutex // guards running, cursor, nextTime, stopChan
	running  bool
	cursor   int
	nextTime float64
	stopChan chan struct{}
	wg       sync.WaitGroup

	queueMu sync.Mutex
	queue   []visualNote

	current atomic.Int64
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(source PatternSource, clock Clock, sink Sink, lookup SampleLookup, opts ...SchedulerOption) *Scheduler {
	cfg := schedulerConfig{
		lookahead:    DefaultLookahead.Seconds(),
		tickInterval: DefaultTickInterval,
		startup:      DefaultStartupBuffer.Seconds(),
		frameRate:    DefaultFrameRate,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.frameRate <= 0 {
		cfg.frameRate = DefaultFrameRate
	}
	if cfg.tickInterval <= 0 {
		cfg.tickInterval = DefaultTickInterval
	}
	s := &Scheduler{source: source, clock: clock, sink: sink, lookup: lookup, cfg: cfg}
	s.current.Store(NoStep)
	return s
}

// Start begins playback from step 0, scheduling the first lookahead window
// before it returns. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.reset()
	stop, next := s.stopChan, s.nextTime
	s.advance(s.clock.CurrentTime())
	s.wg.Add(2)
	s.mu.Unlock()

	debug.Log("sched", "start at %.3f", next)
	go s.tickLoop(stop)
	go s.drawLoop(stop)
}

// reset enters Running; s.mu must be held.
func (s *Scheduler) reset() {
	s.running = true
	s.cursor = 0
	s.nextTime = s.clock.CurrentTime() + s.cfg.startup
	s.stopChan = make(chan struct{})
	s.queueMu.Lock()
	s.queue = s.queue[:0]
	s.queueMu.Unlock()
}

// Stop halts both loops. Once Stop returns no further voice is triggered;
// voices already handed to the sink play out.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.setCurrent(NoStep)
	debug.Log("sched", "stopped")
}

// Running reports whether the scheduler is playing.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CurrentStep is the step under the playhead, or NoStep.
func (s *Scheduler) CurrentStep() int {
	return int(s.current.Load())
}

func (s *Scheduler) tickLoop(stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.advance(s.clock.CurrentTime())
}

// advance schedules every step starting before now+lookahead; s.mu must be held.
func (s *Scheduler) advance(now float64) {
	for s.nextTime < now+s.cfg.lookahead {
		p := s.source.Snapshot()
		if p.StepCount <= 0 {
			return
		}
		if s.cursor >= p.StepCount {
			s.cursor %= p.StepCount
		}
		step := s.cursor
		base := s.nextTime

		for _, ev := range StepEvents(p, step, base) {
			Trigger(s.sink, s.lookup, ev)
		}

		// Queue entry uses base time so the playhead doesn't jitter with swing
		s.queueMu.Lock()
		s.queue = append(s.queue, visualNote{step: step, time: base})
		s.queueMu.Unlock()

		s.nextTime += StepDuration(p.BPM)
		s.cursor = (step + 1) % p.StepCount
	}
}

func (s *Scheduler) drawLoop(stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.frameRate))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.draw(s.clock.CurrentTime())
		}
	}
}

// draw moves the playhead to the latest step whose start has passed.
func (s *Scheduler) draw(now float64) {
	last := NoStep
	s.queueMu.Lock()
	n := 0
	for n < len(s.queue) && s.queue[n].time <= now {
		last = s.queue[n].step
		n++
	}
	s.queue = append(s.queue[:0], s.queue[n:]...)
	s.queueMu.Unlock()

	if last != NoStep {
		s.setCurrent(last)
	}
}

func (s *Scheduler) setCurrent(step int) {
	if int(s.current.Swap(int64(step))) == step {
		return
	}
	if s.cfg.onStep != nil {
		s.cfg.onStep(step)
	}
}
