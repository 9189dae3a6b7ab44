package particlelife

import (
	"math"
	"math/rand/v2"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r2"
)

// ParticleSet stores particles as parallel arrays of equal length.
type ParticleSet struct {
	Positions  []r2.Vec
	Velocities []r2.Vec
	Types      []int
}

// NewParticleSet allocates a zeroed set of n particles.
func NewParticleSet(n int) *ParticleSet {
	return &ParticleSet{
		Positions:  make([]r2.Vec, n),
		Velocities: make([]r2.Vec, n),
		Types:      make([]int, n),
	}
}

// Len returns the number of particles.
func (ps *ParticleSet) Len() int { return len(ps.Types) }

// Spawner fills a particle set with initial positions and types.
// Velocities are always reset to zero.
type Spawner interface {
	Spawn(ps *ParticleSet, width, height float64, types int)
}

// UniformSpawner scatters particles uniformly over the world.
type UniformSpawner struct {
	Rng *rand.Rand
}

// Spawn places every particle uniformly and picks its type uniformly.
func (u UniformSpawner) Spawn(ps *ParticleSet, width, height float64, types int) {
	for i := range ps.Types {
		ps.Positions[i] = r2.Vec{X: u.Rng.Float64() * width, Y: u.Rng.Float64() * height}
		ps.Velocities[i] = r2.Vec{}
		ps.Types[i] = u.Rng.IntN(types)
	}
}

// PerlinSpawner places particles with a density that follows 2D Perlin
// noise, so the world starts out with clumps and voids.
type PerlinSpawner struct {
	Rng       *rand.Rand
	Frequency float64 // noise periods across the world, defaults to 4
	MaxTries  int     // rejection attempts per particle before falling back to uniform
}

// Spawn places particles by rejection sampling against the noise field.
func (p PerlinSpawner) Spawn(ps *ParticleSet, width, height float64, types int) {
	freq := p.Frequency
	if freq <= 0 {
		freq = 4
	}
	tries := p.MaxTries
	if tries <= 0 {
		tries = 64
	}
	noise := perlin.NewPerlin(2, 2, 3, int64(p.Rng.Uint64()>>1))

	for i := range ps.Types {
		var pos r2.Vec
		for t := 0; t < tries; t++ {
			pos = r2.Vec{X: p.Rng.Float64() * width, Y: p.Rng.Float64() * height}
			d := (noise.Noise2D(pos.X/width*freq, pos.Y/height*freq) + 1) / 2
			d = math.Max(0, math.Min(1, d))
			if p.Rng.Float64() < d*d {
				break
			}
		}
		ps.Positions[i] = pos
		ps.Velocities[i] = r2.Vec{}
		ps.Types[i] = p.Rng.IntN(types)
	}
}

func newSpawner(layout string, rng *rand.Rand) Spawner {
	if layout == SpawnPerlin {
		return PerlinSpawner{Rng: rng}
	}
	return UniformSpawner{Rng: rng}
}
