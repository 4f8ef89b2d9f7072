package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/cybre/blaulicht/internal/fixture"
)

// SlowStrobe configures the panel bank.
type SlowStrobe struct {
	Enabled bool `yaml:"enabled"`
}

// MIDI names the control surface ports. Names match by substring.
type MIDI struct {
	In  string `yaml:"in"`
	Out string `yaml:"out,omitempty"`
}

// DMX configures the output widget. An empty port discards frames.
type DMX struct {
	Port string `yaml:"port,omitempty"`
	Baud int    `yaml:"baud,omitempty"`
}

// Config is the rig file.
type Config struct {
	Fixtures   fixture.Table `yaml:"fixtures"`
	SlowStrobe SlowStrobe    `yaml:"slow_strobe"`
	MIDI       MIDI          `yaml:"midi"`
	DMX        DMX           `yaml:"dmx"`
	TickMS     int           `yaml:"tick_ms"`
}

// Default returns the configuration of the house rig.
func Default() *Config {
	return &Config{
		Fixtures: fixture.Default(),
		MIDI:     MIDI{In: "DDJ-400"},
		TickMS:   25,
	}
}

// Load reads the rig file at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if eris.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, eris.Wrapf(err, "read config %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "encode config")
	}
	return eris.Wrap(os.WriteFile(path, data, 0o644), "write config")
}

// Validate checks the fixture wiring and timing.
func (c *Config) Validate() error {
	if c.TickMS <= 0 {
		return eris.Errorf("tick_ms must be positive, got %d", c.TickMS)
	}
	if c.DMX.Baud < 0 {
		return eris.Errorf("dmx baud must not be negative, got %d", c.DMX.Baud)
	}
	return c.Fixtures.Validate()
}

// Tick returns the engine tick interval.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}
