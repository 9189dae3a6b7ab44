package particlelife

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Grid is a uniform cell list over the torus. After Rebuild the particles
// of cell c occupy [Starts[c], Starts[c]+Counts[c]) of the sorted set.
type Grid struct {
	Cols, Rows int
	CellSize   float64
	Starts     []int // undefined for empty cells
	Counts     []int

	ids    []int // cell id per source particle
	cursor []int
}

// Dimensions returns the grid shape for a world and cell size. Each
// dimension is at least 1 even when the cell is larger than the world.
func Dimensions(width, height, cellSize float64) (cols, rows int) {
	cols = max(1, int(width/cellSize))
	rows = max(1, int(height/cellSize))
	return cols, rows
}

// Cells returns the number of cells.
func (g *Grid) Cells() int { return g.Cols * g.Rows }

// Degenerate reports whether the whole world collapsed into one cell,
// which usually means r_max is too large for the world.
func (g *Grid) Degenerate() bool { return g.Cells() == 1 }

// CellCoords returns the cell coordinates of p, clamped into the grid.
func (g *Grid) CellCoords(p r2.Vec) (cx, cy int) {
	cx = clampInt(int(math.Floor(p.X/g.CellSize)), 0, g.Cols-1)
	cy = clampInt(int(math.Floor(p.Y/g.CellSize)), 0, g.Rows-1)
	return cx, cy
}

// CellID returns the linear cell index of p.
func (g *Grid) CellID(p r2.Vec) int {
	cx, cy := g.CellCoords(p)
	return cx + cy*g.Cols
}

// Rebuild sizes the grid for the world and cutoff, then writes src into
// dst reordered by cell with a counting sort. src and dst must not alias.
// The cell count must stay within MaxCells; Params.Validate enforces it.
func (g *Grid) Rebuild(src, dst *ParticleSet, width, height, rMax float64) {
	g.CellSize = rMax
	g.Cols, g.Rows = Dimensions(width, height, rMax)
	cells := g.Cells()
	n := src.Len()

	g.Counts = resizeInts(g.Counts, cells)
	g.Starts = resizeInts(g.Starts, cells)
	g.cursor = resizeInts(g.cursor, cells)
	g.ids = resizeInts(g.ids, n)
	clear(g.Counts)

	for i, p := range src.Positions {
		id := g.CellID(p)
		g.ids[i] = id
		g.Counts[id]++
	}

	offset := 0
	for c, count := range g.Counts {
		g.Starts[c] = offset
		g.cursor[c] = offset
		offset += count
	}

	dst.resize(n)
	for i, id := range g.ids {
		j := g.cursor[id]
		g.cursor[id]++
		dst.Positions[j] = src.Positions[i]
		dst.Velocities[j] = src.Velocities[i]
		dst.Types[j] = src.Types[i]
	}
}

// neighbours appends the distinct cells of the 3×3 block around (cx, cy),
// wrapping at the edges. Grids narrower than 3 cells would otherwise
// visit the same cell more than once.
func (g *Grid) neighbours(buf []int, cx, cy int) []int {
	buf = buf[:0]
	for dy := -1; dy <= 1; dy++ {
		ny := wrapInt(cy+dy, g.Rows)
		for dx := -1; dx <= 1; dx++ {
			nx := wrapInt(cx+dx, g.Cols)
			id := nx + ny*g.Cols
			dup := false
			for _, seen := range buf {
				if seen == id {
					dup = true
					break
				}
			}
			if !dup {
				buf = append(buf, id)
			}
		}
	}
	return buf
}

func (ps *ParticleSet) resize(n int) {
	if cap(ps.Types) < n {
		ps.Positions = make([]r2.Vec, n)
		ps.Velocities = make([]r2.Vec, n)
		ps.Types = make([]int, n)
		return
	}
	ps.Positions = ps.Positions[:n]
	ps.Velocities = ps.Velocities[:n]
	ps.Types = ps.Types[:n]
}

func resizeInts(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapInt(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
