// Package particlelife simulates point particles of a few types moving
// under type-pair forces on a periodic 2D world.
//
// Each step sorts the particles into a uniform cell grid sized to the
// interaction radius, evaluates forces over the 3×3 cell neighbourhood
// of every particle, then integrates with friction and Gaussian noise.
package particlelife

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"
)

// Snapshot is the state returned by Step. The slices are owned by the
// simulation and stay valid until the next call to Step or Reset.
// Particle order is not stable between snapshots.
type Snapshot struct {
	Positions []r2.Vec
	Types     []int
}

// GridStats describes the cell grid built by the last step or reset.
type GridStats struct {
	Cols, Rows int
	Counts     []int
}

// Simulation owns the particles, parameters and interaction matrix.
// Parameter and matrix setters may be called from any goroutine; they
// take effect at the start of the next step.
type Simulation struct {
	mu     sync.Mutex // guards params
	params Params

	matrix  *InteractionMatrix
	names   []string
	index   map[string]int
	workers int

	stepMu  sync.Mutex // serializes stepping, spawning and rng use
	rng     *rand.Rand
	spawner Spawner
	cur     *ParticleSet
	next    *ParticleSet
	grid    Grid
	forces  []r2.Vec
	noise   []r2.Vec
}

// New validates cfg and builds a simulation with freshly spawned particles.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	k := len(cfg.TypeNames)
	matrix := NewInteractionMatrix(k)
	if cfg.Matrix != nil {
		var err error
		if matrix, err = MatrixFromRows(cfg.Matrix); err != nil {
			return nil, err
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s := &Simulation{
		params:  cfg.Params(),
		matrix:  matrix,
		names:   append([]string(nil), cfg.TypeNames...),
		index:   make(map[string]int, k),
		workers: workers,
		rng:     rng,
		spawner: newSpawner(cfg.Spawn, rng),
		cur:     NewParticleSet(cfg.Particles),
		next:    NewParticleSet(cfg.Particles),
		forces:  make([]r2.Vec, cfg.Particles),
		noise:   make([]r2.Vec, cfg.Particles),
	}
	for i, name := range s.names {
		s.index[name] = i
	}
	s.spawner.Spawn(s.cur, s.params.Width, s.params.Height, k)
	s.grid.Cols, s.grid.Rows = Dimensions(s.params.Width, s.params.Height, s.params.RMax)
	return s, nil
}

// Step advances the world by dt and returns the new state.
func (s *Simulation) Step(dt float64) Snapshot {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	p := s.Params()
	coef := s.matrix.Snapshot()

	s.grid.Rebuild(s.cur, s.next, p.Width, p.Height, p.RMax)
	s.cur, s.next = s.next, s.cur

	ComputeForces(s.cur, &s.grid, coef, p, s.workers, s.forces)
	DrawNoise(s.noise, distuv.Normal{Mu: 0, Sigma: p.NoiseStrength, Src: s.rng})
	Integrate(s.cur, s.forces, s.noise, p, dt, s.workers)

	return Snapshot{Positions: s.cur.Positions, Types: s.cur.Types}
}

// Reset respawns all particles and keeps the matrix and parameters. The
// grid is rebuilt for the new layout so Grid matches the returned state.
func (s *Simulation) Reset() Snapshot {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	p := s.Params()
	s.spawner.Spawn(s.cur, p.Width, p.Height, len(s.names))
	s.grid.Rebuild(s.cur, s.next, p.Width, p.Height, p.RMax)
	s.cur, s.next = s.next, s.cur
	return Snapshot{Positions: s.cur.Positions, Types: s.cur.Types}
}

// Len returns the particle count.
func (s *Simulation) Len() int { return len(s.forces) }

// SetForce overwrites matrix entry (row, col).
func (s *Simulation) SetForce(row, col int, v float64) error {
	return s.matrix.Set(row, col, v)
}

// Matrix returns the live interaction matrix.
func (s *Simulation) Matrix() *InteractionMatrix { return s.matrix }

// RandomizeMatrix draws a new random matrix from the simulation's generator.
func (s *Simulation) RandomizeMatrix() {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	s.matrix.Randomize(s.rng)
}

// MutateMatrix perturbs the matrix by N(0, sigma).
func (s *Simulation) MutateMatrix(sigma float64) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	s.matrix.Mutate(s.rng, sigma)
}

// TypeNames returns the type-to-index table.
func (s *Simulation) TypeNames() []string {
	return append([]string(nil), s.names...)
}

// TypeIndex returns the index of a named type.
func (s *Simulation) TypeIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Grid returns the shape and occupancy of the last grid rebuild, done by
// Step or Reset. Before the first of those Counts is empty.
func (s *Simulation) Grid() GridStats {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	return GridStats{
		Cols:   s.grid.Cols,
		Rows:   s.grid.Rows,
		Counts: append([]int(nil), s.grid.Counts...),
	}
}

// Degenerate reports whether the current r_max collapses the world into a
// single grid cell.
func (s *Simulation) Degenerate() bool {
	p := s.Params()
	cols, rows := Dimensions(p.Width, p.Height, p.RMax)
	return cols*rows == 1
}

// Params returns the current scalar parameters.
func (s *Simulation) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Friction returns the current friction.
func (s *Simulation) Friction() float64 { return s.Params().Friction }

// NoiseStrength returns the current velocity noise deviation.
func (s *Simulation) NoiseStrength() float64 { return s.Params().NoiseStrength }

// RMax returns the current interaction cutoff.
func (s *Simulation) RMax() float64 { return s.Params().RMax }

// SetFriction sets the per-step velocity multiplier, in (0,1].
func (s *Simulation) SetFriction(f float64) error {
	return s.update(func(p *Params) { p.Friction = f })
}

// SetNoiseStrength sets the standard deviation of the velocity noise.
func (s *Simulation) SetNoiseStrength(n float64) error {
	return s.update(func(p *Params) { p.NoiseStrength = n })
}

// SetRMax changes both the interaction cutoff and the grid cell size.
func (s *Simulation) SetRMax(r float64) error {
	return s.update(func(p *Params) { p.RMax = r })
}

func (s *Simulation) update(fn func(*Params)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.params
	fn(&p)
	if err := p.Validate(); err != nil {
		return fmt.Errorf("update rejected: %w", err)
	}
	s.params = p
	return nil
}
