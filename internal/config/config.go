package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Shell     ShellConfig     `toml:"shell"`
	Canvas    CanvasConfig    `toml:"canvas"`
	Logging   LoggingConfig   `toml:"logging"`
	Data      DataConfig      `toml:"data"`
	Scripting ScriptingConfig `toml:"scripting"`
	Profile   ProfileConfig   `toml:"profile"`
}

type ShellConfig struct {
	Name        string `toml:"name"`
	FrameRate   int    `toml:"frame_rate"`   // frames per second
	Frames      uint64 `toml:"frames"`       // 0 = run until signalled
	RenderEvery int    `toml:"render_every"` // render once every N frames, 0 = never
	StartTime   int64  // set at boot, not from config
}

// FrameInterval is the wall-clock time between frames.
func (c ShellConfig) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.FrameRate)
}

type CanvasConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type LoggingConfig struct {
	Level       string `toml:"level"`
	Format      string `toml:"format"`      // "json" or "console"
	Development bool   `toml:"development"` // precondition failures panic
}

type DataConfig struct {
	SpawnList string `toml:"spawn_list"`
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu" or "mem"
	Path string `toml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Shell.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := defaults()
	cfg.Shell.StartTime = time.Now().Unix()
	return cfg
}

func (c *Config) validate() error {
	if c.Shell.FrameRate <= 0 {
		return fmt.Errorf("shell.frame_rate must be positive, got %d", c.Shell.FrameRate)
	}
	if c.Canvas.Width < 0 || c.Canvas.Height < 0 {
		return fmt.Errorf("canvas size %dx%d is negative", c.Canvas.Width, c.Canvas.Height)
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("profile.mode %q: want cpu, mem or empty", c.Profile.Mode)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Shell: ShellConfig{
			Name:        "shell",
			FrameRate:   30,
			RenderEvery: 30,
		},
		Canvas: CanvasConfig{
			Width:  60,
			Height: 16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Data: DataConfig{
			SpawnList: "data/yaml/spawn_list.yaml",
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}
