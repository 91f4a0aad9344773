package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Zero fields in a YAML file keep their
// defaults.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Render RenderConfig `yaml:"render"`
	Layout LayoutConfig `yaml:"layout"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	UploadDir       string        `yaml:"upload_dir"`
	OutputDir       string        `yaml:"output_dir"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RenderConfig struct {
	Platform      string  `yaml:"platform"`
	ClipSeconds   float64 `yaml:"clip_seconds"`
	Preset        string  `yaml:"preset"`
	MaxConcurrent int64   `yaml:"max_concurrent"`
}

type LayoutConfig struct {
	WrapWidth     int     `yaml:"wrap_width"`
	FadeInSeconds float64 `yaml:"fade_in_seconds"`
	Headers       bool    `yaml:"headers"`
	Title         string  `yaml:"title"`
	Subtitle      string  `yaml:"subtitle"`
}

type LogConfig struct {
	// debug, info, warn, error
	Level string `yaml:"level"`
	// json or console
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			UploadDir:       DefaultUploadDir,
			OutputDir:       DefaultOutputDir,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Render: RenderConfig{
			Platform:      DefaultPlatform,
			ClipSeconds:   MaxClipSeconds,
			Preset:        DefaultPreset,
			MaxConcurrent: DefaultMaxConcurrent,
		},
		Layout: LayoutConfig{
			WrapWidth:     WrapWidth,
			FadeInSeconds: FadeInSeconds,
			Headers:       true,
			Title:         DefaultTitle,
			Subtitle:      DefaultSubline,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values ffmpeg and the layout engine depend on.
func (c *Config) Validate() error {
	if c.Layout.WrapWidth < 1 {
		return errors.Errorf("layout.wrap_width must be at least 1, got %d", c.Layout.WrapWidth)
	}
	if c.Layout.FadeInSeconds <= 0 {
		return errors.Errorf("layout.fade_in_seconds must be positive, got %g", c.Layout.FadeInSeconds)
	}
	if c.Render.ClipSeconds <= 0 {
		return errors.Errorf("render.clip_seconds must be positive, got %g", c.Render.ClipSeconds)
	}
	if c.Render.MaxConcurrent < 1 {
		return errors.Errorf("render.max_concurrent must be at least 1, got %d", c.Render.MaxConcurrent)
	}
	if c.Render.Preset == "" {
		return errors.New("render.preset is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}
