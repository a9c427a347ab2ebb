package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go-drumseq/audio"
	"go-drumseq/debug"
	"go-drumseq/midi"
	"go-drumseq/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	debug.SetOutput(os.Stderr)

	switch os.Args[1] {
	case "list":
		listPorts()
	case "kit":
		showKit(arg(2, sequencer.DefaultKit))
	case "hits":
		if len(os.Args) < 3 {
			usage()
			return
		}
		playHits(os.Args[2], arg(3, sequencer.DefaultKit))
	case "watch":
		if len(os.Args) < 3 {
			usage()
			return
		}
		watch(os.Args[2])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list               - List all MIDI ports")
	fmt.Println("  kit [name]         - Show sample to note mapping")
	fmt.Println("  hits <port> [kit]  - Play each bundled sample's note once")
	fmt.Println("  watch <port>       - Report port connect/disconnect")
}

func arg(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func listPorts() {
	fmt.Println("=== MIDI Ports ===")
	fmt.Printf("(waiting up to %v...)\n", midi.ScanTimeout)

	ports, err := midi.ListPorts()
	if err != nil {
		fmt.Println("\nTIMEOUT! MIDI driver is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	fmt.Println("Inputs:")
	for i, name := range ports.In {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\nOutputs:")
	for i, name := range ports.Out {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func showKit(name string) {
	kit := sequencer.GetKit(name)
	fmt.Printf("%s\n", kit.Name)
	for _, sample := range sequencer.SampleNames {
		note, ok := kit.Note(sample)
		if !ok {
			fmt.Printf("  %-18s -\n", sample)
			continue
		}
		fmt.Printf("  %-18s %d\n", sample, note)
	}
}

// wallClock counts seconds since it was created.
type wallClock struct {
	start time.Time
}

func (c wallClock) CurrentTime() float64 {
	return time.Since(c.start).Seconds()
}

func connect(ctx context.Context, port, kit string, clock midi.Clock) (*midi.Output, bool) {
	out := midi.NewOutput(port, clock, sequencer.GetKit(kit))
	go out.Run(ctx)

	select {
	case ev, ok := <-out.Events():
		if ok && ev.Type == midi.PortConnected {
			fmt.Printf("Connected: %s\n", ev.Name)
			return out, true
		}
	case <-time.After(midi.ScanTimeout + time.Second):
	}
	fmt.Printf("Port %q not found\n", port)
	return out, false
}

func playHits(port, kit string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := wallClock{start: time.Now()}
	out, ok := connect(ctx, port, kit, clock)
	if !ok {
		return
	}

	// Space hits a quarter second apart, starting shortly after now
	start := clock.CurrentTime() + 0.1
	for i, sample := range sequencer.SampleNames {
		out.Schedule(audio.Voice{
			Sample:       sample,
			VelocityGain: sequencer.VelocityGain(sequencer.DefaultVelocity),
			VolumeGain:   1,
			Time:         start + float64(i)*0.25,
		})
		fmt.Printf("  %s\n", sample)
	}
	time.Sleep(time.Duration(float64(len(sequencer.SampleNames))*0.25*float64(time.Second)) + 500*time.Millisecond)
	fmt.Println("Done!")
}

func watch(port string) {
	fmt.Printf("Watching for %q. Ctrl+C to exit.\n", port)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := midi.NewOutput(port, wallClock{start: time.Now()}, sequencer.GetKit(sequencer.DefaultKit))
	go out.Run(ctx)

	for ev := range out.Events() {
		state := "connected"
		if ev.Type == midi.PortDisconnected {
			state = "disconnected"
		}
		fmt.Printf("[%s] %s %s\n", time.Now().Format("15:04:05"), ev.Name, state)
	}
}
