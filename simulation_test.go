package particlelife

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// quietConfig has no noise, no damping and a zero matrix.
func quietConfig(n int, width, height, rMax float64) Config {
	cfg := DefaultConfig()
	cfg.Particles = n
	cfg.Width, cfg.Height, cfg.RMax = width, height, rMax
	cfg.Friction = 1
	cfg.NoiseStrength = 0
	cfg.Matrix = nil
	cfg.Seed = 42
	return cfg
}

// place overwrites the particle state of s.
func place(s *Simulation, pos, vel []r2.Vec, types []int) {
	copy(s.cur.Positions, pos)
	copy(s.cur.Velocities, vel)
	copy(s.cur.Types, types)
}

func TestNewDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 1
	s, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, 2000, s.Len())
	assert.Equal(t, 0.95, s.Friction())
	assert.Equal(t, 0.1, s.NoiseStrength())
	assert.Equal(t, 5.0, s.RMax())
	assert.False(t, s.Degenerate())
	assert.Equal(t, cfg.Matrix, s.Matrix().Rows())

	for i := range s.cur.Types {
		p := s.cur.Positions[i]
		assert.True(t, p.X >= 0 && p.X < 100 && p.Y >= 0 && p.Y < 100)
		assert.Equal(t, r2.Vec{}, s.cur.Velocities[i])
		assert.True(t, s.cur.Types[i] >= 0 && s.cur.Types[i] < 4)
	}

	i, ok := s.TypeIndex("green")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = s.TypeIndex("purple")
	assert.False(t, ok)
}

func TestNewRejectsBadConfig(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"zero r_max":      func(c *Config) { c.RMax = 0 },
		"tiny r_max":      func(c *Config) { c.RMax = 1e-6 },
		"negative width":  func(c *Config) { c.Width = -1 },
		"zero height":     func(c *Config) { c.Height = 0 },
		"friction > 1":    func(c *Config) { c.Friction = 1.5 },
		"zero friction":   func(c *Config) { c.Friction = 0 },
		"negative noise":  func(c *Config) { c.NoiseStrength = -0.1 },
		"no types":        func(c *Config) { c.TypeNames = nil },
		"duplicate types": func(c *Config) { c.TypeNames = []string{"a", "b", "a", "c"} },
		"matrix shape":    func(c *Config) { c.Matrix = [][]float64{{1}} },
		"spawn layout":    func(c *Config) { c.Spawn = "spiral" },
		"negative count":  func(c *Config) { c.Particles = -5 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestInertialDrift(t *testing.T) {
	s, err := New(quietConfig(4, 100, 100, 5))
	require.NoError(t, err)

	// one particle per cell, in increasing cell order; the 3 unit gap is
	// inside r_max but the zero matrix leaves no force beyond beta
	pos := []r2.Vec{{X: 2.5, Y: 2.5}, {X: 5.5, Y: 2.5}, {X: 42.5, Y: 2.5}, {X: 2.5, Y: 92.5}}
	vel := []r2.Vec{{X: 1, Y: -2}, {X: 0.25, Y: 0}, {X: -4, Y: 8}, {X: 0, Y: 0.5}}
	place(s, pos, vel, []int{0, 1, 2, 3})

	snap := s.Step(0.5)

	for i := range pos {
		want := r2.Add(pos[i], r2.Scale(0.5, vel[i]))
		assert.Equal(t, want, snap.Positions[i], "particle %d", i)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, snap.Types)
}

func TestStepWrapsAtEdge(t *testing.T) {
	s, err := New(quietConfig(1, 3, 3, 1))
	require.NoError(t, err)
	place(s, []r2.Vec{{X: 2.9, Y: 2.9}}, []r2.Vec{{X: 0.5, Y: 0.5}}, []int{0})

	snap := s.Step(1)

	assert.InDelta(t, 0.4, snap.Positions[0].X, 1e-9)
	assert.InDelta(t, 0.4, snap.Positions[0].Y, 1e-9)
}

func TestStepTwoParticles(t *testing.T) {
	cfg := quietConfig(2, 10, 10, 2)
	cfg.TypeNames = []string{"only"}
	cfg.Matrix = [][]float64{{1}}
	s, err := New(cfg)
	require.NoError(t, err)
	place(s, []r2.Vec{{X: 1, Y: 1}, {X: 2, Y: 1}}, []r2.Vec{{}, {}}, []int{0, 0})

	snap := s.Step(0.1)

	// each moves 4/7 * dt^2 toward the other
	d := 4.0 / 7 * 0.01
	assert.InDelta(t, 1+d, snap.Positions[0].X, 1e-12)
	assert.InDelta(t, 2-d, snap.Positions[1].X, 1e-12)
	assert.Equal(t, 1.0, snap.Positions[0].Y)
}

func TestSetForce(t *testing.T) {
	s, err := New(quietConfig(10, 50, 50, 5))
	require.NoError(t, err)

	require.NoError(t, s.SetForce(0, 3, -1.25))
	v, err := s.Matrix().At(0, 3)
	require.NoError(t, err)
	assert.Equal(t, -1.25, v)
	v, _ = s.Matrix().At(3, 0)
	assert.Zero(t, v)

	assert.ErrorIs(t, s.SetForce(4, 0, 1), ErrOutOfRange)
}

func TestParamSetters(t *testing.T) {
	s, err := New(quietConfig(10, 50, 50, 5))
	require.NoError(t, err)

	require.NoError(t, s.SetFriction(0.9))
	require.NoError(t, s.SetNoiseStrength(0.2))
	require.NoError(t, s.SetRMax(60))
	assert.Equal(t, Params{Width: 50, Height: 50, RMax: 60, Friction: 0.9, NoiseStrength: 0.2}, s.Params())
	assert.True(t, s.Degenerate())

	assert.ErrorIs(t, s.SetRMax(0), ErrInvalidConfig)
	assert.ErrorIs(t, s.SetRMax(1e-6), ErrInvalidConfig)
	assert.ErrorIs(t, s.SetFriction(0), ErrInvalidConfig)
	assert.ErrorIs(t, s.SetNoiseStrength(-1), ErrInvalidConfig)
	assert.Equal(t, 60.0, s.RMax())

	assert.NotPanics(t, func() { s.Step(0.01) })
	g := s.Grid()
	assert.Equal(t, 1, g.Cols)
	assert.Equal(t, []int{10}, g.Counts)
}

func TestMaxCellsBound(t *testing.T) {
	p := Params{Width: 2048, Height: 2048, RMax: 1, Friction: 1}
	assert.NoError(t, p.Validate())

	p.RMax = 0.99
	assert.ErrorIs(t, p.Validate(), ErrInvalidConfig)

	// tall and thin worlds are bounded by the product, not each side
	p = Params{Width: 1 << 23, Height: 1, RMax: 1, Friction: 1}
	assert.ErrorIs(t, p.Validate(), ErrInvalidConfig)
}

func TestSeededRunsMatch(t *testing.T) {
	run := func(workers int) Snapshot {
		cfg := DefaultConfig()
		cfg.Particles = 500
		cfg.Seed = 7
		cfg.Workers = workers
		s, err := New(cfg)
		require.NoError(t, err)
		var snap Snapshot
		for i := 0; i < 20; i++ {
			snap = s.Step(cfg.DT)
		}
		return snap
	}
	a, b := run(1), run(8)
	assert.Equal(t, a.Positions, b.Positions)
	assert.Equal(t, a.Types, b.Types)
}

func TestStepKeepsInvariants(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 1000
	cfg.Seed = 11
	cfg.Spawn = SpawnPerlin
	s, err := New(cfg)
	require.NoError(t, err)

	counts := make([]int, 4)
	for _, typ := range s.cur.Types {
		counts[typ]++
	}
	for i := 0; i < 50; i++ {
		snap := s.Step(cfg.DT)
		require.Len(t, snap.Positions, 1000)
		require.Len(t, snap.Types, 1000)
		for _, p := range snap.Positions {
			require.True(t, p.X >= 0 && p.X < cfg.Width, "x=%v", p.X)
			require.True(t, p.Y >= 0 && p.Y < cfg.Height, "y=%v", p.Y)
		}
	}
	got := make([]int, 4)
	for _, typ := range s.cur.Types {
		got[typ]++
	}
	assert.Equal(t, counts, got)
}

func TestReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 100
	cfg.Seed = 3
	s, err := New(cfg)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		s.Step(cfg.DT)
	}
	require.NoError(t, s.SetForce(1, 1, -2))

	snap := s.Reset()
	assert.Len(t, snap.Positions, 100)
	for _, v := range s.cur.Velocities {
		assert.Equal(t, r2.Vec{}, v)
	}
	v, _ := s.Matrix().At(1, 1)
	assert.Equal(t, -2.0, v)
}

func TestResetRebuildsGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 200
	cfg.Seed = 9
	s, err := New(cfg)
	require.NoError(t, err)
	s.Step(cfg.DT)
	before := s.Grid().Counts

	snap := s.Reset()
	g := s.Grid()
	require.Len(t, g.Counts, g.Cols*g.Rows)

	grid := Grid{Cols: g.Cols, Rows: g.Rows, CellSize: cfg.RMax}
	want := make([]int, len(g.Counts))
	for _, p := range snap.Positions {
		want[grid.CellID(p)]++
	}
	assert.Equal(t, want, g.Counts)
	assert.NotEqual(t, before, g.Counts)
}

func TestConcurrentControl(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 300
	cfg.Seed = 5
	s, err := New(cfg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.SetForce(i%4, (i/4)%4, float64(i%7)-3)
			_ = s.SetFriction(0.9 + float64(i%10)/100)
			_ = s.SetNoiseStrength(float64(i%5) / 10)
		}
		s.RandomizeMatrix()
		s.MutateMatrix(0.1)
	}()
	for i := 0; i < 30; i++ {
		s.Step(cfg.DT)
	}
	wg.Wait()
	assert.Equal(t, 300, s.Len())
}

func BenchmarkStep(b *testing.B) {
	for _, n := range []int{2000, 10000, 50000} {
		b.Run(fmt.Sprintf("Particles-%d", n), func(b *testing.B) {
			cfg := DefaultConfig()
			cfg.Particles = n
			cfg.Seed = 1
			s, err := New(cfg)
			if err != nil {
				b.Fatal(err)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Step(cfg.DT)
			}
		})
	}
}

func BenchmarkRebuild(b *testing.B) {
	for _, n := range []int{10000, 100000} {
		b.Run(fmt.Sprintf("Particles-%d", n), func(b *testing.B) {
			cfg := DefaultConfig()
			cfg.Particles = n
			cfg.Seed = 1
			s, err := New(cfg)
			if err != nil {
				b.Fatal(err)
			}
			var g Grid
			dst := NewParticleSet(n)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				g.Rebuild(s.cur, dst, cfg.Width, cfg.Height, cfg.RMax)
			}
		})
	}
}
