package particlelife

import (
	"math"

	"github.com/dgravesa/go-parallel/parallel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"
)

// DrawNoise fills noise with independent per-axis samples from n. The
// draws are sequential so a seeded source gives the same sequence no
// matter how many workers integrate.
func DrawNoise(noise []r2.Vec, n distuv.Normal) {
	if n.Sigma == 0 {
		clear(noise)
		return
	}
	for i := range noise {
		noise[i] = r2.Vec{X: n.Rand(), Y: n.Rand()}
	}
}

// Integrate advances velocities and positions of ps in place:
// v = (v + f*dt + noise) * friction, x = wrap(x + v*dt).
func Integrate(ps *ParticleSet, forces, noise []r2.Vec, p Params, dt float64, workers int) {
	parallel.WithNumGoroutines(workers).For(ps.Len(), func(i, _ int) {
		v := r2.Add(ps.Velocities[i], r2.Add(r2.Scale(dt, forces[i]), noise[i]))
		v = r2.Scale(p.Friction, v)
		ps.Velocities[i] = v

		x := r2.Add(ps.Positions[i], r2.Scale(dt, v))
		ps.Positions[i] = r2.Vec{X: Wrap(x.X, p.Width), Y: Wrap(x.Y, p.Height)}
	})
}

// Wrap maps v into [0, extent).
func Wrap(v, extent float64) float64 {
	v = math.Mod(v, extent)
	if v < 0 {
		v += extent
	}
	// -tiny + extent rounds to extent
	if v >= extent {
		v = 0
	}
	return v
}
