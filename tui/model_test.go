package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-drumseq/audio"
	"go-drumseq/config"
	"go-drumseq/encode"
	"go-drumseq/sequencer"
	"go-drumseq/theme"
)

func TestStepListenerKeepsLatest(t *testing.T) {
	notify, steps := StepListener()
	notify(1)
	notify(2)
	notify(3)
	if got := <-steps; got != 3 {
		t.Fatalf("got step %d", got)
	}
	select {
	case s := <-steps:
		t.Fatalf("stale step %d", s)
	default:
	}
}

func TestNextOfWraps(t *testing.T) {
	if got := nextOf([]int{1, 2, 4, 8}, 8); got != 1 {
		t.Errorf("got %d", got)
	}
	if got := nextOf([]int{1, 2, 4, 8}, 3); got != 1 {
		t.Errorf("unknown value gave %d", got)
	}
	if got := nextOf([]string{"a", "b"}, "a"); got != "b" {
		t.Errorf("got %s", got)
	}
}

func TestKeysEditPattern(t *testing.T) {
	store := sequencer.NewStore(sequencer.DefaultPattern())
	_, steps := StepListener()
	m := NewModel(store, nil, steps, theme.New(nil, "dark"))

	press := func(keys ...string) {
		for _, k := range keys {
			next, _ := m.handleKey(k)
			m = next.(Model)
		}
	}

	press("l", "l", " ", "j", "enter", "+", "n")
	p := store.Snapshot()
	if !p.Channels[0].Steps[2] || !p.Channels[1].Steps[2] {
		t.Fatal("steps not toggled under the cursor")
	}
	if p.BPM != sequencer.DefaultBPM+5 {
		t.Fatalf("bpm %d", p.BPM)
	}
	if p.StepCount != 32 {
		t.Fatalf("step count %d", p.StepCount)
	}

	press("m")
	if !store.Snapshot().Channels[1].Muted {
		t.Fatal("channel not muted")
	}
}

func TestExportKeysCycleOptions(t *testing.T) {
	store := sequencer.NewStore(sequencer.DefaultPattern())
	_, steps := StepListener()
	m := NewModel(store, nil, steps, theme.New(nil, "dark")).WithExportDefaults(8, 320)
	if m.exportBars != 8 || m.exportBitrate != 320 {
		t.Fatalf("defaults %d/%d", m.exportBars, m.exportBitrate)
	}

	next, _ := m.handleGlobalKey("b")
	next, _ = next.(Model).handleGlobalKey("r")
	m = next.(Model)
	if m.exportBars != 1 || m.exportBitrate != 128 {
		t.Fatalf("cycled to %d/%d", m.exportBars, m.exportBitrate)
	}

	m = m.WithExportDefaults(3, 100)
	if m.exportBars != 1 || m.exportBitrate != 128 {
		t.Fatal("invalid defaults applied")
	}
}

func writeWAV(t *testing.T, path string) {
	t.Helper()
	buf := audio.NewBuffer(1, 8, 44100)
	for i := range buf.Channels[0] {
		buf.Channels[0][i] = 0.25
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := encode.WriteWAV(f, buf); err != nil {
		t.Fatal(err)
	}
}

func TestSampleFilePromptAssignsChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clap.wav")
	writeWAV(t, path)

	store := sequencer.NewStore(sequencer.DefaultPattern())
	_, steps := StepListener()
	lib := audio.NewLibrary(t.TempDir(), 44100)
	m := NewModel(store, nil, steps, theme.New(nil, config.ThemeDark))
	m.Library = lib
	m.Config = config.DefaultConfig()
	var saved *config.Config
	m.SaveConfig = func(c *config.Config) error {
		saved = c
		return nil
	}

	next, _ := m.handleKey("o")
	m = next.(Model)
	if !m.prompting {
		t.Fatal("prompt not opened")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(path + "x")})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyBackspace})
	next, cmd := next.(Model).Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.prompting || cmd == nil {
		t.Fatal("enter did not submit the path")
	}

	next, cmd = m.Update(cmd())
	m = next.(Model)
	if m.errText != "" {
		t.Fatalf("assign failed: %s", m.errText)
	}
	if got := store.Snapshot().Channels[0].Sample; got != "clap.wav" {
		t.Fatalf("channel sample %q", got)
	}
	if _, ok := lib.Lookup("clap.wav"); !ok {
		t.Fatal("sample not loaded")
	}
	if cmd == nil {
		t.Fatal("config not saved")
	}
	m.Update(cmd())
	if saved == nil || saved.Audio.Custom["clap.wav"] != path {
		t.Fatalf("saved custom samples %v", saved)
	}
}

func TestSampleFilePromptEscapeCancels(t *testing.T) {
	store := sequencer.NewStore(sequencer.DefaultPattern())
	_, steps := StepListener()
	m := NewModel(store, nil, steps, theme.New(nil, config.ThemeDark))

	next, _ := m.handleKey("o")
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)
	if m.promptValue != "q" {
		t.Fatalf("prompt value %q", m.promptValue)
	}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.prompting || cmd != nil {
		t.Fatal("escape did not close the prompt")
	}
}

func TestMissingSampleFileShowsError(t *testing.T) {
	store := sequencer.NewStore(sequencer.DefaultPattern())
	_, steps := StepListener()
	lib := audio.NewLibrary(t.TempDir(), 44100)
	m := NewModel(store, nil, steps, theme.New(nil, config.ThemeDark))
	m.Library = lib
	before := store.Snapshot().Channels[0].Sample

	cmd := m.assignSample(filepath.Join(t.TempDir(), "missing.wav"))
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.errText == "" {
		t.Fatal("no error shown")
	}
	if got := store.Snapshot().Channels[0].Sample; got != before {
		t.Fatalf("sample changed to %q", got)
	}
}

func TestThemeToggleSavesVariant(t *testing.T) {
	store := sequencer.NewStore(sequencer.DefaultPattern())
	_, steps := StepListener()
	m := NewModel(store, nil, steps, theme.New(theme.Plasma, config.ThemeDark))
	m.Palette = theme.Plasma
	m.Variant = config.ThemeDark
	m.Config = config.DefaultConfig()
	var saved *config.Config
	m.SaveConfig = func(c *config.Config) error {
		saved = c
		return nil
	}

	next, cmd := m.handleKey("T")
	m = next.(Model)
	n := len(theme.Plasma.Colors)
	if m.Variant != config.ThemeLight || m.Theme.Palette.Colors[0] != theme.Plasma.Colors[n-1] {
		t.Fatal("theme not switched to light")
	}
	if cmd == nil {
		t.Fatal("toggle did not save")
	}
	cmd()
	if saved == nil || saved.UI.Theme != config.ThemeLight {
		t.Fatalf("saved theme %v", saved)
	}
	if m.Config.UI.Theme != config.ThemeLight {
		t.Fatal("model config not updated")
	}

	next, _ = m.handleKey("T")
	if got := next.(Model).Variant; got != config.ThemeDark {
		t.Fatalf("toggled back to %q", got)
	}
}
