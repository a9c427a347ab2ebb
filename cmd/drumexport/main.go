package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault/fmsg"

	"go-drumseq/audio"
	"go-drumseq/config"
	"go-drumseq/debug"
	"go-drumseq/encode"
	"go-drumseq/encode/lame"
	"go-drumseq/midi"
	"go-drumseq/sequencer"
)

func main() {
	patternPath := flag.String("pattern", "", "pattern JSON file (default: built-in pattern)")
	bars := flag.Int("bars", 4, "loop length in bars: 1, 2, 4 or 8")
	bitrate := flag.Int("bitrate", 192, "MP3 bitrate in kbps: 128, 192 or 320")
	format := flag.String("format", "mp3", "output format: mp3 or wav")
	outPath := flag.String("o", "", "output file (default: beat-sequencer-<millis>.<format>)")
	sampleDir := flag.String("samples", "", "directory of .wav/.mp3 samples")
	noSynth := flag.Bool("no-synth", false, "do not fall back to the synthesized kit")
	listMIDI := flag.Bool("list-midi", false, "list MIDI ports and exit")
	verbose := flag.Bool("v", false, "log to stderr")
	var assignments []string
	flag.Func("sample", "load a sample file onto a channel: `channel=path` (repeatable)", func(v string) error {
		assignments = append(assignments, v)
		return nil
	})
	flag.Parse()

	if *verbose {
		debug.SetOutput(os.Stderr)
	}

	if *listMIDI {
		listPorts()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	dir := cfg.Audio.SampleDir
	if *sampleDir != "" {
		dir = *sampleDir
	}

	pattern := sequencer.DefaultPattern()
	if *patternPath != "" {
		pattern, err = sequencer.LoadPatternFile(*patternPath)
		if err != nil {
			fail(err)
		}
	} else {
		seedDefault(&pattern)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := sequencer.NewStore(pattern)
	lib := audio.NewLibrary(config.ExpandPath(dir), sequencer.ExportSampleRate, audio.WithSynthFallback(!*noSynth))
	for name, path := range cfg.Audio.Custom {
		lib.AddCustom(name, config.ExpandPath(path))
	}
	for _, arg := range assignments {
		id, file, err := sequencer.ParseSampleAssignment(store.Snapshot(), arg)
		if err != nil {
			fail(err)
		}
		if _, err := sequencer.AssignCustomSample(ctx, store, lib, id, file); err != nil {
			fail(err)
		}
	}
	pattern = store.Snapshot()

	exporter := &sequencer.Exporter{
		Store:      store,
		Library:    lib,
		Encoder:    lame.NewEncoder,
		SampleRate: sequencer.ExportSampleRate,
	}

	path := *outPath
	if path == "" {
		path = strings.TrimSuffix(sequencer.ExportFilename(time.Now()), ".mp3") + "." + *format
	}

	start := time.Now()
	progress := func(f float64) {
		fmt.Fprintf(os.Stderr, "\rrendering %3.0f%%", f*100)
	}

	switch *format {
	case "mp3":
		data, err := exporter.ExportLoop(ctx, *bars, *bitrate, progress)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fail(err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			fail(err)
		}
	case "wav":
		buf, err := exporter.RenderLoop(ctx, *bars, progress)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fail(err)
		}
		if err := writeWAV(path, buf); err != nil {
			fail(err)
		}
	default:
		fail(fmt.Errorf("unknown format %q (expected mp3 or wav)", *format))
	}

	abs, _ := filepath.Abs(path)
	fmt.Printf("%s (%d bars at %d bpm, %v)\n", abs, *bars, pattern.BPM, time.Since(start).Round(time.Millisecond))
}

// seedDefault gives the built-in pattern a basic beat so an export without
// -pattern is not silent.
func seedDefault(p *sequencer.Pattern) {
	hits := map[int][]int{
		0: {0, 4, 8, 12},               // kick
		1: {4, 12},                     // snare
		2: {0, 2, 4, 6, 8, 10, 12, 14}, // closed hat
	}
	for id, steps := range hits {
		ch, ok := p.Channel(id)
		if !ok {
			continue
		}
		for _, s := range steps {
			if s < len(ch.Steps) {
				ch.Steps[s] = true
			}
		}
	}
}

func writeWAV(path string, buf *audio.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode.WriteWAV(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listPorts() {
	fmt.Println("=== MIDI Ports ===")
	fmt.Printf("(waiting up to %v...)\n", midi.ScanTimeout)
	ports, err := midi.ListPorts()
	if err != nil {
		fmt.Println("TIMEOUT: MIDI driver not responding")
		fmt.Println("Try: sudo killall coreaudiod midiserver")
		os.Exit(1)
	}
	fmt.Println("Inputs:")
	for i, name := range ports.In {
		fmt.Printf("  [%d] %s\n", i, name)
	}
	fmt.Println("Outputs:")
	for i, name := range ports.Out {
		fmt.Printf("  [%d] %s\n", i, name)
	}
}

func fail(err error) {
	if msg := fmsg.GetIssue(err); msg != "" {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
