package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	particlelife "github.com/olivierh59500/particle-life-sim"
)

// WindowConfig holds the display settings.
type WindowConfig struct {
	Width      int    `toml:"width"`  // pixels
	Height     int    `toml:"height"` // pixels
	Title      string `toml:"title"`
	TPS        int    `toml:"tps"`        // simulation steps per second
	Afterimage int    `toml:"afterimage"` // frames kept for the motion shadow
}

// Config holds everything the command needs to start.
type Config struct {
	Simulation particlelife.Config `toml:"simulation"`
	Window     WindowConfig        `toml:"window"`
}

// DefaultConfig returns the default parameters.
func DefaultConfig() *Config {
	return &Config{
		Simulation: particlelife.DefaultConfig(),
		Window: WindowConfig{
			Width:      800,
			Height:     800,
			Title:      "Particle Life Simulation",
			TPS:        60,
			Afterimage: 6,
		},
	}
}

// ParseConfig parses the TOML config file whose path is provided.
// Keys present in the file overwrite the defaults; unknown keys are an error.
func ParseConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	md, err := toml.DecodeFile(path, conf)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// Validate checks the window settings and the simulation config.
func (c *Config) Validate() error {
	w := c.Window
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("window %dx%d must have positive size: %w", w.Width, w.Height, particlelife.ErrInvalidConfig)
	}
	if w.TPS <= 0 {
		return fmt.Errorf("tps %d must be positive: %w", w.TPS, particlelife.ErrInvalidConfig)
	}
	if w.Afterimage < 0 {
		return fmt.Errorf("afterimage %d is negative: %w", w.Afterimage, particlelife.ErrInvalidConfig)
	}
	return c.Simulation.Validate()
}
