package midi

import (
	"context"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-drumseq/audio"
	"go-drumseq/debug"
	"go-drumseq/sequencer"
)

// DefaultGate is how long a note is held before its NoteOff.
const DefaultGate = 100 * time.Millisecond

// PortEvent is emitted when the output port connects/disconnects
type PortEvent struct {
	Type PortEventType
	Name string
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

// Clock is the audio clock voice times refer to.
type Clock interface {
	CurrentTime() float64
}

// Output echoes scheduled voices as drum notes on a MIDI port. Notes are
// sent when the audio clock reaches the voice time.
type Output struct {
	portName string
	clock    Clock
	kit      sequencer.DrumKit
	channel  uint8
	gate     time.Duration
	pollRate time.Duration
	events   chan PortEvent

	mu     sync.Mutex
	port   drivers.Out
	send   func(gomidi.Message) error
	timers map[*time.Timer]Event
	closed bool
}

// OutputOption configures an Output.
type OutputOption func(*Output)

// WithChannel sets the MIDI channel (zero based).
func WithChannel(ch uint8) OutputOption {
	return func(o *Output) {
		o.channel = ch & 0x0f
	}
}

// WithGate sets the note length.
func WithGate(d time.Duration) OutputOption {
	return func(o *Output) {
		o.gate = d
	}
}

// WithSender sends through fn instead of a driver port.
func WithSender(fn func(gomidi.Message) error) OutputOption {
	return func(o *Output) {
		o.send = fn
	}
}

// NewOutput creates an output for the port named portName. It sends nothing
// until Run finds the port, unless WithSender is given.
func NewOutput(portName string, clock Clock, kit sequencer.DrumKit, opts ...OutputOption) *Output {
	o := &Output{
		portName: portName,
		clock:    clock,
		kit:      kit,
		channel:  DrumChannel,
		gate:     DefaultGate,
		pollRate: time.Second,
		events:   make(chan PortEvent, 16),
		timers:   make(map[*time.Timer]Event),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Events returns a channel of port connect/disconnect events
func (o *Output) Events() <-chan PortEvent {
	return o.events
}

// Connected reports whether notes are currently being sent.
func (o *Output) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send != nil && !o.closed
}

// Schedule queues NoteOn at the voice time and NoteOff one gate later.
func (o *Output) Schedule(v audio.Voice) {
	note, ok := o.kit.Note(v.Sample)
	if !ok {
		debug.LogEvery(16, "midi", "no drum note for sample %s", v.Sample)
		return
	}
	delay := time.Duration((v.Time - o.clock.CurrentTime()) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.send == nil {
		return
	}
	o.after(delay, Event{Type: NoteOn, Channel: o.channel, Note: note, Velocity: Velocity(v.Gain())})
	o.after(delay+o.gate, Event{Type: NoteOff, Channel: o.channel, Note: note})
}

// after sends e once d has passed; o.mu must be held.
func (o *Output) after(d time.Duration, e Event) {
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		o.mu.Lock()
		delete(o.timers, t)
		send := o.send
		o.mu.Unlock()
		o.deliver(send, e)
	})
	o.timers[t] = e
}

func (o *Output) deliver(send func(gomidi.Message) error, e Event) {
	if send == nil {
		return
	}
	if err := send(e.Message()); err != nil {
		debug.LogEvery(16, "midi", "send failed: %v", err)
	}
}

// Run polls for the configured port and (re)connects when it appears
// (blocking - run in goroutine). The output is closed when ctx ends.
func (o *Output) Run(ctx context.Context) {
	ticker := time.NewTicker(o.pollRate)
	defer ticker.Stop()

	o.poll()
	for {
		select {
		case <-ctx.Done():
			o.Close()
			close(o.events)
			return
		case <-ticker.C:
			o.poll()
		}
	}
}

func (o *Output) poll() {
	r, err := scan(ScanTimeout)
	if err != nil {
		// Driver hung - skip this scan
		debug.Log("midi", "port scan: %v", err)
		return
	}
	port := matchPort(r.out, o.portName)

	o.mu.Lock()
	connected := o.port != nil
	o.mu.Unlock()

	switch {
	case port != nil && !connected:
		o.connect(port)
	case port == nil && connected:
		o.disconnect()
	}
}

func (o *Output) connect(port drivers.Out) {
	send, err := gomidi.SendTo(port)
	if err != nil {
		debug.Log("midi", "open %s: %v", port.String(), err)
		return
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		port.Close()
		return
	}
	o.port = port
	o.send = send
	o.mu.Unlock()

	debug.Log("midi", "connected to %s", port.String())
	o.emit(PortEvent{Type: PortConnected, Name: port.String()})
}

func (o *Output) disconnect() {
	o.mu.Lock()
	port := o.port
	o.port = nil
	o.send = nil
	o.mu.Unlock()

	if port == nil {
		return
	}
	port.Close()
	debug.Log("midi", "disconnected from %s", port.String())
	o.emit(PortEvent{Type: PortDisconnected, Name: port.String()})
}

func (o *Output) emit(e PortEvent) {
	select {
	case o.events <- e:
	default:
	}
}

// Close cancels pending notes, releasing any that already sounded, and
// closes the port.
func (o *Output) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	send := o.send
	var release []Event
	for t, e := range o.timers {
		if t.Stop() && e.Type == NoteOff {
			release = append(release, e)
		}
	}
	o.timers = make(map[*time.Timer]Event)
	port := o.port
	o.port = nil
	o.send = nil
	o.mu.Unlock()

	for _, e := range release {
		o.deliver(send, e)
	}
	if port != nil {
		return port.Close()
	}
	return nil
}
