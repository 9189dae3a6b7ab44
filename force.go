package particlelife

import (
	"math"

	"github.com/dgravesa/go-parallel/parallel"
	"gonum.org/v1/gonum/spatial/r2"
)

// Force law constants
const (
	Beta              = 0.3 // normalized distance where repulsion hands over to the matrix
	RepulsionStrength = 2.0
)

// ForceFactor returns the signed force magnitude at normalized distance
// d in (0,1) for a pair with matrix coefficient a. Negative values push
// the particles apart.
func ForceFactor(d, a float64) float64 {
	if d < Beta {
		return (d/Beta - 1) * RepulsionStrength
	}
	pct := (d - Beta) / (1 - Beta)
	return a * (1 - math.Abs(2*pct-1))
}

// MinimumImage returns the shortest representative of the displacement
// d on a width×height torus.
func MinimumImage(d r2.Vec, width, height float64) r2.Vec {
	if d.X > width/2 {
		d.X -= width
	} else if d.X < -width/2 {
		d.X += width
	}
	if d.Y > height/2 {
		d.Y -= height
	} else if d.Y < -height/2 {
		d.Y += height
	}
	return d
}

// ComputeForces writes into forces the total force on every particle of
// the cell-sorted set ps. Cells are processed in parallel; each force slot
// is written once, by the worker owning the particle's home cell.
//
// The 3×3 neighbourhood is de-duplicated, so on grids fewer than 3 cells
// wide or tall a wrapped neighbour cell is scanned once, not once per
// offset that reaches it, and every pair contributes a single time.
func ComputeForces(ps *ParticleSet, g *Grid, coef Coefficients, p Params, workers int, forces []r2.Vec) {
	rMaxSq := p.RMax * p.RMax
	invRMax := 1 / p.RMax

	parallel.WithNumGoroutines(workers).For(g.Cells(), func(c, _ int) {
		count := g.Counts[c]
		if count == 0 {
			return
		}
		start := g.Starts[c]
		var buf [9]int
		neighbours := g.neighbours(buf[:0], c%g.Cols, c/g.Cols)

		for i := start; i < start+count; i++ {
			pi := ps.Positions[i]
			ti := ps.Types[i]
			var acc r2.Vec
			for _, nc := range neighbours {
				nStart, nCount := g.Starts[nc], g.Counts[nc]
				for j := nStart; j < nStart+nCount; j++ {
					if i == j {
						continue
					}
					r := MinimumImage(r2.Sub(ps.Positions[j], pi), p.Width, p.Height)
					distSq := r.X*r.X + r.Y*r.Y
					if distSq == 0 || distSq >= rMaxSq {
						continue
					}
					dist := math.Sqrt(distSq)
					f := ForceFactor(dist*invRMax, coef.At(ti, ps.Types[j]))
					acc = r2.Add(acc, r2.Scale(f/dist, r))
				}
			}
			forces[i] = acc
		}
	})
}
