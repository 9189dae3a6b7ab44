package particlelife

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by the simulation
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrOutOfRange    = errors.New("index out of range")
)

// MaxCells bounds the grid size; smaller r_max values are rejected.
const MaxCells = 1 << 22

// Spawn layouts for the initial particle positions
const (
	SpawnUniform = "uniform"
	SpawnPerlin  = "perlin"
)

// Params holds the scalar parameters read at the start of every step.
type Params struct {
	Width, Height float64 // torus extents
	RMax          float64 // interaction cutoff and grid cell size
	Friction      float64 // velocity multiplier per step, 1 = no damping
	NoiseStrength float64 // std deviation of the per-axis velocity noise
}

// Config describes a simulation run.
type Config struct {
	Particles     int         `toml:"particles"`
	Width         float64     `toml:"width"`
	Height        float64     `toml:"height"`
	RMax          float64     `toml:"r_max"`
	DT            float64     `toml:"dt"`
	Friction      float64     `toml:"friction"`
	NoiseStrength float64     `toml:"noise_strength"`
	TypeNames     []string    `toml:"types"`  // type index -> name, K = len(TypeNames)
	Matrix        [][]float64 `toml:"matrix"` // K×K, [row=type felt][col=neighbour type]
	Seed          uint64      `toml:"seed"`    // 0 seeds from the clock
	Workers       int         `toml:"workers"` // 0 uses GOMAXPROCS
	Spawn         string      `toml:"spawn"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Particles:     2000,
		Width:         100,
		Height:        100,
		RMax:          5,
		DT:            0.01,
		Friction:      0.95,
		NoiseStrength: 0.1,
		TypeNames:     []string{"blue", "yellow", "green", "red"},
		Matrix: [][]float64{
			{2, -0.8, 0.6, -0.2},
			{0.6, 2, -0.8, -0.2},
			{-0.8, 0.6, 2, -0.2},
			{-0.2, -0.2, -0.2, 2},
		},
		Spawn: SpawnUniform,
	}
}

// Params returns the scalar part of the config.
func (c Config) Params() Params {
	return Params{
		Width:         c.Width,
		Height:        c.Height,
		RMax:          c.RMax,
		Friction:      c.Friction,
		NoiseStrength: c.NoiseStrength,
	}
}

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	if c.Particles < 0 {
		return fmt.Errorf("particle count %d is negative: %w", c.Particles, ErrInvalidConfig)
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.DT < 0 {
		return fmt.Errorf("dt %g is negative: %w", c.DT, ErrInvalidConfig)
	}
	k := len(c.TypeNames)
	if k == 0 {
		return fmt.Errorf("no particle types: %w", ErrInvalidConfig)
	}
	seen := make(map[string]bool, k)
	for _, name := range c.TypeNames {
		if seen[name] {
			return fmt.Errorf("duplicate type name %q: %w", name, ErrInvalidConfig)
		}
		seen[name] = true
	}
	if c.Matrix != nil {
		if len(c.Matrix) != k {
			return fmt.Errorf("matrix has %d rows, want %d: %w", len(c.Matrix), k, ErrInvalidConfig)
		}
		for i, row := range c.Matrix {
			if len(row) != k {
				return fmt.Errorf("matrix row %d has %d columns, want %d: %w", i, len(row), k, ErrInvalidConfig)
			}
		}
	}
	switch c.Spawn {
	case "", SpawnUniform, SpawnPerlin:
	default:
		return fmt.Errorf("unknown spawn layout %q: %w", c.Spawn, ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("worker count %d is negative: %w", c.Workers, ErrInvalidConfig)
	}
	return nil
}

// Validate checks the scalar parameters.
func (p Params) Validate() error {
	switch {
	case !(p.Width > 0) || !(p.Height > 0):
		return fmt.Errorf("world %gx%g must have positive extents: %w", p.Width, p.Height, ErrInvalidConfig)
	case !(p.RMax > 0):
		return fmt.Errorf("r_max %g must be positive: %w", p.RMax, ErrInvalidConfig)
	case cellCount(p.Width, p.Height, p.RMax) > MaxCells:
		return fmt.Errorf("r_max %g splits the %gx%g world into more than %d cells: %w", p.RMax, p.Width, p.Height, MaxCells, ErrInvalidConfig)
	case !(p.Friction > 0 && p.Friction <= 1):
		return fmt.Errorf("friction %g outside (0,1]: %w", p.Friction, ErrInvalidConfig)
	case !(p.NoiseStrength >= 0):
		return fmt.Errorf("noise strength %g is negative: %w", p.NoiseStrength, ErrInvalidConfig)
	}
	return nil
}

// cellCount is the grid size for the world, computed in floating point so
// a tiny cell cannot overflow int.
func cellCount(width, height, cellSize float64) float64 {
	cols := math.Max(1, math.Floor(width/cellSize))
	rows := math.Max(1, math.Floor(height/cellSize))
	return cols * rows
}
