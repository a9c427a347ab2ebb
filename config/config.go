package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/mitchellh/go-homedir"
)

// Backend names for realtime output
const (
	BackendEbiten    = "ebiten"
	BackendPortAudio = "portaudio"
)

// Theme variants
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// AudioConfig holds the realtime engine settings
type AudioConfig struct {
	SampleDir       string `json:"sampleDir,omitempty"`
	SampleRate      int    `json:"sampleRate"`
	Backend         string `json:"backend"`
	LookaheadMs     int    `json:"lookaheadMs"`
	TickMs          int    `json:"tickMs"`
	StartupBufferMs int    `json:"startupBufferMs"`
	Synth           bool   `json:"synth"` // fall back to the synthesized kit

	// Custom maps sample names used by patterns to user files.
	Custom map[string]string `json:"custom,omitempty"`
}

// ExportConfig stores export defaults
type ExportConfig struct {
	Dir     string `json:"dir,omitempty"`
	Bars    int    `json:"bars"`
	Bitrate int    `json:"bitrate"`
}

// MIDIConfig defines the MIDI echo output
type MIDIConfig struct {
	PortName string `json:"portName,omitempty"`
	Kit      string `json:"kit,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Theme       string `json:"theme,omitempty"`
	PalettePath string `json:"palettePath,omitempty"`
	LastProject string `json:"lastProject,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Audio    AudioConfig  `json:"audio"`
	Export   ExportConfig `json:"export"`
	MIDI     MIDIConfig   `json:"midi,omitempty"`
	UI       UIConfig     `json:"ui,omitempty"`
	DebugLog string       `json:"debugLog,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleDir:       "~/.config/go-drumseq/samples",
			SampleRate:      44100,
			Backend:         BackendEbiten,
			LookaheadMs:     100,
			TickMs:          25,
			StartupBufferMs: 50,
			Synth:           true,
		},
		Export: ExportConfig{
			Dir:     ".",
			Bars:    4,
			Bitrate: 192,
		},
		MIDI: MIDIConfig{
			Kit: "gm",
		},
		UI: UIConfig{
			Theme: ThemeDark,
		},
	}
}

// Clone returns a copy that shares no maps with c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Audio.Custom != nil {
		out.Audio.Custom = make(map[string]string, len(c.Audio.Custom))
		for name, path := range c.Audio.Custom {
			out.Audio.Custom[name] = path
		}
	}
	return &out
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-drumseq"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fault.Wrap(err, fmsg.WithDesc("read config", "Could not read "+path))
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("parse config", path+" is not valid JSON"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	a := c.Audio
	switch {
	case a.SampleRate < 8000 || a.SampleRate > 192000:
		return fault.New(fmt.Sprintf("sample rate %d out of range", a.SampleRate),
			fmsg.WithDesc("invalid config", "Sample rate must be between 8000 and 192000"))
	case a.Backend != BackendEbiten && a.Backend != BackendPortAudio:
		return fault.New("unknown backend "+a.Backend,
			fmsg.WithDesc("invalid config", "Audio backend must be ebiten or portaudio"))
	case a.TickMs <= 0 || a.LookaheadMs <= a.TickMs:
		return fault.New(fmt.Sprintf("lookahead %dms must exceed tick %dms", a.LookaheadMs, a.TickMs),
			fmsg.WithDesc("invalid config", "Lookahead must be longer than the scheduler tick"))
	case a.StartupBufferMs < 0:
		return fault.New("negative startup buffer",
			fmsg.WithDesc("invalid config", "Startup buffer cannot be negative"))
	}
	if t := c.UI.Theme; t != "" && t != ThemeDark && t != ThemeLight {
		return fault.New("unknown theme "+t, fmsg.WithDesc("invalid config", "Theme must be dark or light"))
	}
	return nil
}

// ExpandPath resolves a leading ~ in a configured path.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
