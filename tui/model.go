package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-drumseq/audio"
	"go-drumseq/config"
	"go-drumseq/debug"
	"go-drumseq/encode"
	"go-drumseq/midi"
	"go-drumseq/sequencer"
	"go-drumseq/theme"
	"go-drumseq/widgets"
)

// Model is the drum machine screen: channel grid, transport and export panel.
type Model struct {
	Store     *sequencer.Store
	Scheduler *sequencer.Scheduler
	Library   *audio.Library
	Exporter  *sequencer.Exporter
	Projects  *sequencer.Projects
	MIDI      *midi.Output // may be nil
	Theme     *theme.Theme
	Palette   *theme.Palette // base palette, before the variant is applied
	Variant   string         // theme.New variant: dark or light
	ExportDir string
	Project   string

	// Config receives theme and custom sample changes; SaveConfig persists
	// a copy of it. Both may be nil.
	Config     *config.Config
	SaveConfig func(*config.Config) error

	steps   <-chan int
	changes <-chan struct{}

	row      int // selected channel index
	col      int // cursor step
	playhead int

	exportBars    int
	exportBitrate int
	exporting     bool
	progress      float64
	exportCh      <-chan tea.Msg
	cancelExport  context.CancelFunc

	prompting   bool
	promptValue string

	midiPort string
	status   string
	errText  string
	quitting bool
}

type (
	StepMsg    int
	PatternMsg struct{}
	PortMsg    midi.PortEvent

	exportProgressMsg float64
	exportDoneMsg     struct {
		path string
		err  error
	}
	sampleLoadedMsg struct {
		name string
		err  error
	}
	savedMsg struct {
		filename string
		err      error
	}
	customSampleMsg struct {
		name string
		path string
		err  error
	}
	configSavedMsg struct {
		err error
	}
)

// StepListener returns a scheduler callback and the channel it feeds. Only
// the latest step is kept when the TUI falls behind.
func StepListener() (func(int), <-chan int) {
	ch := make(chan int, 1)
	return func(step int) {
		for {
			select {
			case ch <- step:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}, ch
}

// NewModel wires the screen to the engine. steps comes from StepListener.
func NewModel(store *sequencer.Store, sched *sequencer.Scheduler, steps <-chan int, th *theme.Theme) Model {
	return Model{
		Store:         store,
		Scheduler:     sched,
		Theme:         th,
		steps:         steps,
		changes:       store.Subscribe(),
		playhead:      sequencer.NoStep,
		exportBars:    4,
		exportBitrate: 192,
	}
}

// WithExportDefaults sets the initially selected bar count and bitrate.
func (m Model) WithExportDefaults(bars, bitrate int) Model {
	if contains(sequencer.ExportBars, bars) {
		m.exportBars = bars
	}
	if encode.ValidBitrate(bitrate) {
		m.exportBitrate = bitrate
	}
	return m
}

func ListenForSteps(steps <-chan int) tea.Cmd {
	return func() tea.Msg {
		step, ok := <-steps
		if !ok {
			return nil
		}
		return StepMsg(step)
	}
}

func ListenForChanges(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return PatternMsg{}
	}
}

func ListenForPorts(out *midi.Output) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-out.Events()
		if !ok {
			return nil
		}
		return PortMsg(event)
	}
}

func waitExport(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		ListenForSteps(m.steps),
		ListenForChanges(m.changes),
	}
	if m.MIDI != nil {
		cmds = append(cmds, ListenForPorts(m.MIDI))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompting {
			return m.handlePrompt(msg)
		}
		return m.handleKey(msg.String())

	case StepMsg:
		m.playhead = int(msg)
		return m, ListenForSteps(m.steps)

	case PatternMsg:
		m.clampCursor(m.Store.Snapshot())
		return m, ListenForChanges(m.changes)

	case PortMsg:
		if msg.Type == midi.PortConnected {
			m.midiPort = msg.Name
		} else {
			m.midiPort = ""
		}
		return m, ListenForPorts(m.MIDI)

	case sampleLoadedMsg:
		if msg.err != nil {
			m.errText = issue(msg.err, "Could not load "+msg.name)
		}

	case customSampleMsg:
		if msg.err != nil {
			m.errText = issue(msg.err, "Could not load "+msg.path)
			return m, nil
		}
		m.status = "Loaded " + msg.name
		m.errText = ""
		if m.Config != nil {
			if m.Config.Audio.Custom == nil {
				m.Config.Audio.Custom = make(map[string]string)
			}
			m.Config.Audio.Custom[msg.name] = msg.path
			return m, m.saveConfig()
		}

	case configSavedMsg:
		if msg.err != nil {
			m.errText = issue(msg.err, "Could not save settings")
		}

	case savedMsg:
		if msg.err != nil {
			m.errText = issue(msg.err, "Could not save project")
		} else {
			m.status = "Saved " + msg.filename
			m.errText = ""
		}

	case exportProgressMsg:
		m.progress = float64(msg)
		return m, waitExport(m.exportCh)

	case exportDoneMsg:
		m.exporting = false
		m.exportCh = nil
		m.cancelExport = nil
		if msg.err != nil {
			m.errText = issue(msg.err, "Export failed")
			m.status = ""
		} else {
			m.progress = 1
			m.status = "Exported " + msg.path
			m.errText = ""
		}
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	p := m.Store.Snapshot()
	ch := m.selected(p)

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		if m.cancelExport != nil {
			m.cancelExport()
		}
		m.Scheduler.Stop()
		return m, tea.Quit

	case "p":
		if m.Scheduler.Running() {
			m.Scheduler.Stop()
			m.playhead = sequencer.NoStep
		} else {
			m.Scheduler.Start()
		}

	// Navigation
	case "h", "left":
		if m.col > 0 {
			m.col--
		}
	case "l", "right":
		if m.col < p.StepCount-1 {
			m.col++
		}
	case "k", "up":
		if m.row > 0 {
			m.row--
		}
	case "j", "down":
		if m.row < len(p.Channels)-1 {
			m.row++
		}

	// Transport
	case "+", "=":
		m.Store.Dispatch(sequencer.SetBPM{Value: p.BPM + 5})
	case "-", "_":
		m.Store.Dispatch(sequencer.SetBPM{Value: p.BPM - 5})
	case "]":
		m.Store.Dispatch(sequencer.SetSwing{Value: p.Swing + 0.05})
	case "[":
		m.Store.Dispatch(sequencer.SetSwing{Value: p.Swing - 0.05})
	case "n":
		m.Store.Dispatch(sequencer.SetStepCount{Value: nextOf(sequencer.StepCounts, p.StepCount)})

	// Channels
	case "a":
		sample := sequencer.DefaultSample
		m.Store.Dispatch(sequencer.AddChannel{Name: "Channel", Sample: sample})
		return m, m.loadSample(sample)
	case "x":
		if ch != nil {
			m.Store.Dispatch(sequencer.RemoveChannel{ChannelID: ch.ID})
		}
	}

	if ch == nil {
		return m.handleGlobalKey(key)
	}

	switch key {
	case " ", "enter":
		m.Store.Dispatch(sequencer.ToggleStep{ChannelID: ch.ID, Step: m.col})
	case "}":
		m.Store.Dispatch(sequencer.SetVelocity{ChannelID: ch.ID, Step: m.col, Value: velocityAt(ch, m.col) + 8})
	case "{":
		m.Store.Dispatch(sequencer.SetVelocity{ChannelID: ch.ID, Step: m.col, Value: velocityAt(ch, m.col) - 8})
	case "m":
		muted := !ch.Muted
		m.Store.Dispatch(sequencer.UpdateChannel{ChannelID: ch.ID, Patch: sequencer.ChannelPatch{Muted: &muted}})
	case "s":
		m.Store.Dispatch(sequencer.SoloChannel{ChannelID: ch.ID})
	case ".":
		vol := ch.Volume + 0.05
		m.Store.Dispatch(sequencer.UpdateChannel{ChannelID: ch.ID, Patch: sequencer.ChannelPatch{Volume: &vol}})
	case ",":
		vol := ch.Volume - 0.05
		m.Store.Dispatch(sequencer.UpdateChannel{ChannelID: ch.ID, Patch: sequencer.ChannelPatch{Volume: &vol}})
	case ">":
		pan := ch.Pan + 0.1
		m.Store.Dispatch(sequencer.UpdateChannel{ChannelID: ch.ID, Patch: sequencer.ChannelPatch{Pan: &pan}})
	case "<":
		pan := ch.Pan - 0.1
		m.Store.Dispatch(sequencer.UpdateChannel{ChannelID: ch.ID, Patch: sequencer.ChannelPatch{Pan: &pan}})
	case "w":
		swing := ch.Swing + 0.05
		m.Store.Dispatch(sequencer.UpdateChannel{ChannelID: ch.ID, Patch: sequencer.ChannelPatch{Swing: &swing}})
	case "W":
		swing := ch.Swing - 0.05
		m.Store.Dispatch(sequencer.UpdateChannel{ChannelID: ch.ID, Patch: sequencer.ChannelPatch{Swing: &swing}})
	case "o":
		m.prompting = true
		m.promptValue = ""
	case "t":
		sample := nextOf(sequencer.SampleNames, ch.Sample)
		m.Store.Dispatch(sequencer.UpdateChannel{ChannelID: ch.ID, Patch: sequencer.ChannelPatch{Sample: &sample}})
		return m, m.loadSample(sample)
	default:
		return m.handleGlobalKey(key)
	}
	return m, nil
}

func (m Model) handleGlobalKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "b":
		if !m.exporting {
			m.exportBars = nextOf(sequencer.ExportBars, m.exportBars)
		}
	case "r":
		if !m.exporting {
			m.exportBitrate = nextOf(encode.Bitrates, m.exportBitrate)
		}
	case "e":
		if !m.exporting && m.Exporter != nil {
			return m.startExport()
		}
	case "esc":
		if m.cancelExport != nil {
			m.cancelExport()
		}
	case "ctrl+s":
		if m.Projects != nil {
			return m, m.save()
		}
	case "T":
		return m.toggleTheme()
	}
	return m, nil
}

// handlePrompt edits the sample path line; enter assigns the file to the
// selected channel.
func (m Model) handlePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.prompting = false
		return m.handleKey("ctrl+c")
	case tea.KeyEsc:
		m.prompting = false
	case tea.KeyEnter:
		m.prompting = false
		if path := strings.TrimSpace(m.promptValue); path != "" {
			return m, m.assignSample(path)
		}
	case tea.KeyBackspace:
		if r := []rune(m.promptValue); len(r) > 0 {
			m.promptValue = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.promptValue += " "
	case tea.KeyRunes:
		m.promptValue += string(msg.Runes)
	}
	return m, nil
}

func (m Model) assignSample(path string) tea.Cmd {
	ch := m.selected(m.Store.Snapshot())
	if ch == nil || m.Library == nil {
		return nil
	}
	store, lib, id := m.Store, m.Library, ch.ID
	path = config.ExpandPath(path)
	return func() tea.Msg {
		name, err := sequencer.AssignCustomSample(context.Background(), store, lib, id, path)
		return customSampleMsg{name: name, path: path, err: err}
	}
}

func (m Model) toggleTheme() (Model, tea.Cmd) {
	variant := config.ThemeLight
	if m.Variant == config.ThemeLight {
		variant = config.ThemeDark
	}
	m.Variant = variant
	m.Theme = theme.New(m.Palette, variant)
	if m.Config == nil {
		return m, nil
	}
	m.Config.UI.Theme = variant
	return m, m.saveConfig()
}

// saveConfig persists a snapshot of m.Config off the update loop.
func (m Model) saveConfig() tea.Cmd {
	if m.Config == nil || m.SaveConfig == nil {
		return nil
	}
	cfg, save := m.Config.Clone(), m.SaveConfig
	return func() tea.Msg {
		return configSavedMsg{err: save(cfg)}
	}
}

func (m Model) startExport() (Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan tea.Msg, 16)
	m.exporting = true
	m.progress = 0
	m.status = fmt.Sprintf("Exporting %d bars at %d kbps", m.exportBars, m.exportBitrate)
	m.errText = ""
	m.exportCh = ch
	m.cancelExport = cancel

	exporter, dir := m.Exporter, m.ExportDir
	bars, bitrate := m.exportBars, m.exportBitrate
	go func() {
		defer close(ch)
		defer cancel()
		data, err := exporter.ExportLoop(ctx, bars, bitrate, func(f float64) {
			ch <- exportProgressMsg(f)
		})
		path := ""
		if err == nil {
			path = filepath.Join(dir, sequencer.ExportFilename(time.Now()))
			err = os.WriteFile(path, data, 0644)
		}
		if err != nil {
			debug.Log("tui", "export failed: %v", err)
		}
		ch <- exportDoneMsg{path: path, err: err}
	}()
	return m, waitExport(ch)
}

func (m Model) loadSample(name string) tea.Cmd {
	lib := m.Library
	if lib == nil {
		return nil
	}
	return func() tea.Msg {
		err := lib.Load(context.Background(), name)
		return sampleLoadedMsg{name: name, err: err}
	}
}

func (m Model) save() tea.Cmd {
	projects, project, p := m.Projects, m.Project, m.Store.Snapshot()
	return func() tea.Msg {
		filename, err := projects.Save(project, "", p, time.Now())
		return savedMsg{filename: filename, err: err}
	}
}

func (m *Model) clampCursor(p sequencer.Pattern) {
	m.row = max(0, min(m.row, len(p.Channels)-1))
	m.col = max(0, min(m.col, p.StepCount-1))
}

func (m Model) selected(p sequencer.Pattern) *sequencer.Channel {
	if m.row < 0 || m.row >= len(p.Channels) {
		return nil
	}
	return &p.Channels[m.row]
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	p := m.Store.Snapshot()
	th := m.Theme

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(th.FG())
	warnStyle := lipgloss.NewStyle().Foreground(th.Warning())

	playState := "STOP"
	if m.Scheduler.Running() {
		playState = "PLAY"
	}
	midiStatus := ""
	if m.midiPort != "" {
		midiStatus = "  MIDI:" + m.midiPort
	}
	header := headerStyle.Render(fmt.Sprintf("go-drumseq  %s  %3dbpm  swing:%3.0f%%  steps:%d%s",
		playState, p.BPM, p.Swing*100, p.StepCount, midiStatus))

	playhead := sequencer.NoStep
	if m.Scheduler.Running() {
		playhead = m.playhead
	}
	audible := sequencer.Audible(p.Channels)

	var grid strings.Builder
	for i, ch := range p.Channels {
		marker := " "
		if i == m.row {
			marker = "›"
		}
		flags := ""
		if ch.Muted {
			flags += "M"
		} else {
			flags += " "
		}
		if ch.Solo {
			flags += "S"
		} else {
			flags += " "
		}
		label := fmt.Sprintf("%s %-10.10s %-16.16s %s %3.0f%% %4s ",
			marker, ch.Name, ch.Sample, flags, ch.Volume*100, widgets.Pan(ch.Pan))
		cursor := -1
		if i == m.row {
			cursor = m.col
		}
		style := fgStyle
		if !audible[i] {
			style = dimStyle
		}
		grid.WriteString(style.Render(label))
		grid.WriteString(widgets.StepRow(th, ch.Steps, cursor, playhead, !audible[i]))
		grid.WriteString("\n")

		if i == m.row {
			pad := strings.Repeat(" ", lipgloss.Width(label))
			grid.WriteString(pad)
			grid.WriteString(widgets.VelocityBar(th, ch.Steps, ch.Velocity, m.col))
			grid.WriteString(dimStyle.Render(fmt.Sprintf("  vel %d  swing %s", velocityAt(&ch, m.col), swingLabel(ch.Swing))))
			grid.WriteString("\n")
		}
	}
	if len(p.Channels) == 0 {
		grid.WriteString(dimStyle.Render("  no channels - press a to add one\n"))
	}

	exportLine := fmt.Sprintf("Export  bars:%d  bitrate:%dkbps  ", m.exportBars, m.exportBitrate)
	if m.exporting || m.progress > 0 {
		exportLine += widgets.ProgressBar(th, m.progress, 24)
	}

	help := widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "hjkl", Desc: "move cursor / select channel"},
			{Key: "space", Desc: "toggle step    { } velocity"},
			{Key: "p", Desc: "play/stop      +/- tempo  [ ] swing  n steps"},
			{Key: "m / s", Desc: "mute / solo    , . volume  < > pan  w/W channel swing"},
			{Key: "t o a x", Desc: "sample / sample file / add / remove channel"},
			{Key: "b r e", Desc: "bars / bitrate / export    esc cancel  ctrl+s save  T theme  q quit"},
		}},
	})

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(grid.String())
	out.WriteString("\n")
	out.WriteString(fgStyle.Render(exportLine))
	out.WriteString("\n")
	if m.status != "" {
		out.WriteString(dimStyle.Render(m.status))
		out.WriteString("\n")
	}
	if m.errText != "" {
		out.WriteString(warnStyle.Render(m.errText))
		out.WriteString("\n")
	}
	if m.prompting {
		out.WriteString(fgStyle.Render("Sample file: " + m.promptValue + "_"))
		out.WriteString("\n")
	}
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(help))

	return out.String()
}

func velocityAt(ch *sequencer.Channel, step int) int {
	if step < 0 || step >= len(ch.Velocity) {
		return sequencer.DefaultVelocity
	}
	return ch.Velocity[step]
}

func swingLabel(s float64) string {
	if s == 0 {
		return "global"
	}
	return fmt.Sprintf("%.0f%%", s*100)
}

// issue prefers the user-facing message attached to err.
func issue(err error, fallback string) string {
	if msg := fmsg.GetIssue(err); msg != "" {
		return msg
	}
	if fallback != "" {
		return fallback + ": " + err.Error()
	}
	return err.Error()
}

// nextOf returns the element after cur in values, wrapping around.
func nextOf[T comparable](values []T, cur T) T {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func contains[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
