// Package config holds dictator settings: built-in defaults, overridden by
// an optional YAML file, overridden by command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

const appDir = ".local_whisper_dictator"

type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Hotkey  HotkeyConfig  `yaml:"hotkey"`
	Model   ModelConfig   `yaml:"model"`
	VAD     VADConfig     `yaml:"vad"`
	Typing  TypingConfig  `yaml:"typing"`
	UI      UIConfig      `yaml:"ui"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type AudioConfig struct {
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	Format     string `yaml:"format"`
	FrameSize  int    `yaml:"frame_size"` // samples per frame
	Device     string `yaml:"device"`     // empty selects the system default
	DumpDir    string `yaml:"dump_dir"`   // saves each session as WAV when set
}

type HotkeyConfig struct {
	Keys      string        `yaml:"keys"` // e.g. "ralt" or "ctrl+shift+space"
	Backend   string        `yaml:"backend"`
	LongPress time.Duration `yaml:"long_press"` // 0 disables tap-to-toggle
}

type ModelConfig struct {
	Engine   string        `yaml:"engine"` // whisper or openai
	Name     string        `yaml:"name"`
	CacheDir string        `yaml:"cache_dir"`
	Language string        `yaml:"language"`
	BeamSize int           `yaml:"beam_size"`
	Threads  int           `yaml:"threads"`
	Timeout  time.Duration `yaml:"timeout"`
}

type VADConfig struct {
	Enabled    bool          `yaml:"enabled"`
	MinSilence time.Duration `yaml:"min_silence"`
}

type TypingConfig struct {
	Delay time.Duration `yaml:"delay"`
	Paste bool          `yaml:"paste"`
}

type UIConfig struct {
	Tray bool `yaml:"tray"`
	TUI  bool `yaml:"tui"`
	Beep bool `yaml:"beep"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the HTTP endpoint
}

type LogConfig struct {
	Dir string `yaml:"dir"`
}

// Home is the per-user directory holding the config file and model cache.
func Home() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return appDir
	}
	return filepath.Join(home, appDir)
}

// DefaultPath is where Resolve looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Home(), "config.yaml")
}

func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
			Format:     "s16",
			FrameSize:  1024,
		},
		Hotkey: HotkeyConfig{
			Keys:    "ralt",
			Backend: "auto",
		},
		Model: ModelConfig{
			Engine:   "whisper",
			Name:     "tiny.en",
			CacheDir: filepath.Join(Home(), "models"),
			Language: "en",
			BeamSize: 5,
			Timeout:  2 * time.Minute,
		},
		VAD: VADConfig{
			Enabled:    true,
			MinSilence: 500 * time.Millisecond,
		},
		Typing: TypingConfig{
			Delay: 5 * time.Millisecond,
		},
		UI: UIConfig{
			Tray: true,
		},
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve loads path when given, else the default file if it exists, else
// the built-in defaults.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultPath()); err == nil {
		return Load(DefaultPath())
	}
	return Default(), nil
}

func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("%w: audio: %v", ErrInvalid, err)
	}
	if err := c.Hotkey.Validate(); err != nil {
		return fmt.Errorf("%w: hotkey: %v", ErrInvalid, err)
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("%w: model: %v", ErrInvalid, err)
	}
	// whisper.cpp only accepts 16 kHz input and nothing resamples.
	if c.Model.Engine == "whisper" && c.Audio.SampleRate != 16000 {
		return fmt.Errorf("%w: audio: engine whisper needs sample_rate 16000, got %d", ErrInvalid, c.Audio.SampleRate)
	}
	if c.VAD.MinSilence < 0 {
		return fmt.Errorf("%w: vad: min_silence must not be negative", ErrInvalid)
	}
	if c.Typing.Delay < 0 {
		return fmt.Errorf("%w: typing: delay must not be negative", ErrInvalid)
	}
	return nil
}

func (a *AudioConfig) Validate() error {
	switch a.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return fmt.Errorf("sample_rate must be 8000, 16000, 32000 or 48000 Hz, got %d", a.SampleRate)
	}
	if a.Channels != 1 && a.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", a.Channels)
	}
	if a.Format != "s16" {
		return fmt.Errorf("format must be s16, got %q", a.Format)
	}
	if a.FrameSize < 64 {
		return fmt.Errorf("frame_size must be at least 64 samples, got %d", a.FrameSize)
	}
	return nil
}

func (h *HotkeyConfig) Validate() error {
	if h.Keys == "" {
		return fmt.Errorf("keys cannot be empty")
	}
	switch h.Backend {
	case "auto", "system", "hook":
	default:
		return fmt.Errorf("backend must be auto, system or hook, got %q", h.Backend)
	}
	if h.LongPress < 0 {
		return fmt.Errorf("long_press must not be negative")
	}
	return nil
}

func (m *ModelConfig) Validate() error {
	switch m.Engine {
	case "whisper":
		if m.Name == "" {
			return fmt.Errorf("name cannot be empty")
		}
		if m.CacheDir == "" {
			return fmt.Errorf("cache_dir cannot be empty")
		}
	case "openai":
	default:
		return fmt.Errorf("engine must be whisper or openai, got %q", m.Engine)
	}
	if m.BeamSize < 1 {
		return fmt.Errorf("beam_size must be at least 1, got %d", m.BeamSize)
	}
	if m.Threads < 0 {
		return fmt.Errorf("threads must not be negative, got %d", m.Threads)
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
