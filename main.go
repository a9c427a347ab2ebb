package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"

	"go-drumseq/audio"
	"go-drumseq/config"
	"go-drumseq/debug"
	"go-drumseq/encode/lame"
	"go-drumseq/midi"
	"go-drumseq/sequencer"
	"go-drumseq/theme"
	"go-drumseq/tui"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default ~/.config/go-drumseq/config.json)")
	backend := flag.String("backend", "", "audio backend: ebiten or portaudio")
	sampleDir := flag.String("samples", "", "directory of .wav/.mp3 samples")
	midiPort := flag.String("midi", "", "echo notes to this MIDI output port")
	project := flag.String("project", "", "project to load and save into")
	debugLog := flag.String("debug", "", "write debug log to this file")
	var assignments []string
	flag.Func("sample", "load a sample file onto a channel: `channel=path` (repeatable)", func(v string) error {
		assignments = append(assignments, v)
		return nil
	})
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fail(err)
	}
	if *backend != "" {
		cfg.Audio.Backend = *backend
	}
	if *sampleDir != "" {
		cfg.Audio.SampleDir = *sampleDir
	}
	if *midiPort != "" {
		cfg.MIDI.PortName = *midiPort
	}
	if *debugLog != "" {
		cfg.DebugLog = *debugLog
	}
	if *project == "" {
		*project = cfg.UI.LastProject
	}

	if cfg.DebugLog != "" {
		if err := debug.Enable(config.ExpandPath(cfg.DebugLog)); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	// Load theme
	palette := theme.Plasma
	if cfg.UI.PalettePath != "" {
		if p, err := theme.LoadGPL(config.ExpandPath(cfg.UI.PalettePath)); err == nil {
			palette = p
		} else {
			debug.Log("main", "palette: %v", err)
		}
	}
	th := theme.New(palette, cfg.UI.Theme)

	projects, err := sequencer.DefaultProjects()
	if err != nil {
		fail(err)
	}
	pattern := sequencer.DefaultPattern()
	if *project != "" {
		if p, err := projects.Load(*project, ""); err == nil {
			pattern = p
		} else {
			debug.Log("main", "load project %s: %v", *project, err)
		}
	}
	store := sequencer.NewStore(pattern)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lib := audio.NewLibrary(config.ExpandPath(cfg.Audio.SampleDir), cfg.Audio.SampleRate,
		audio.WithSynthFallback(cfg.Audio.Synth))
	for name, path := range cfg.Audio.Custom {
		lib.AddCustom(name, config.ExpandPath(path))
	}
	if err := lib.Preload(ctx, append(pattern.Samples(), sequencer.SampleNames...)); err != nil {
		// Missing samples play silent; keep going
		debug.Log("main", "preload: %v", err)
	}

	if len(assignments) > 0 {
		if err := assignSamples(ctx, store, lib, cfg, assignments); err != nil {
			fail(err)
		}
		if err := saveConfig(cfg, *cfgPath); err != nil {
			debug.Log("main", "save config: %v", err)
		}
	}

	dev, err := audio.OpenDevice(audio.Backend(cfg.Audio.Backend), cfg.Audio.SampleRate)
	if err != nil {
		fail(err)
	}
	defer dev.Close()

	var sink sequencer.Sink = dev
	var out *midi.Output
	if cfg.MIDI.PortName != "" {
		out = midi.NewOutput(cfg.MIDI.PortName, dev, sequencer.GetKit(cfg.MIDI.Kit))
		go out.Run(ctx)
		sink = sequencer.MultiSink{dev, out}
	}

	onStep, steps := tui.StepListener()
	sched := sequencer.NewScheduler(store, dev, sink, lib,
		sequencer.WithLookahead(ms(cfg.Audio.LookaheadMs)),
		sequencer.WithTickInterval(ms(cfg.Audio.TickMs)),
		sequencer.WithStartupBuffer(ms(cfg.Audio.StartupBufferMs)),
		sequencer.WithStepListener(onStep),
	)
	defer sched.Stop()

	exporter := &sequencer.Exporter{
		Store:      store,
		Library:    lib,
		Encoder:    lame.NewEncoder,
		SampleRate: sequencer.ExportSampleRate,
	}

	m := tui.NewModel(store, sched, steps, th).WithExportDefaults(cfg.Export.Bars, cfg.Export.Bitrate)
	m.Library = lib
	m.Exporter = exporter
	m.Projects = projects
	m.MIDI = out
	m.ExportDir = config.ExpandPath(cfg.Export.Dir)
	m.Project = *project
	m.Palette = palette
	m.Variant = cfg.UI.Theme
	m.Config = cfg
	m.SaveConfig = func(c *config.Config) error { return saveConfig(c, *cfgPath) }

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *project != "" && *project != cfg.UI.LastProject {
		cfg.UI.LastProject = *project
		if err := saveConfig(cfg, *cfgPath); err != nil {
			debug.Log("main", "save config: %v", err)
		}
	}
}

// assignSamples applies -sample flags and records each file in the config
// so later sessions can resolve the pattern's sample names.
func assignSamples(ctx context.Context, store *sequencer.Store, lib *audio.Library, cfg *config.Config, args []string) error {
	for _, arg := range args {
		id, path, err := sequencer.ParseSampleAssignment(store.Snapshot(), arg)
		if err != nil {
			return err
		}
		name, err := sequencer.AssignCustomSample(ctx, store, lib, id, path)
		if err != nil {
			return err
		}
		if cfg.Audio.Custom == nil {
			cfg.Audio.Custom = make(map[string]string)
		}
		cfg.Audio.Custom[name] = config.ExpandPath(path)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(config.ExpandPath(path))
	}
	return config.Load()
}

func saveConfig(cfg *config.Config, path string) error {
	if path != "" {
		return cfg.SaveTo(config.ExpandPath(path))
	}
	return cfg.Save()
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func fail(err error) {
	if msg := fmsg.GetIssue(err); msg != "" {
		fmt.Fprintf(os.Stderr, "%s (%v)\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
