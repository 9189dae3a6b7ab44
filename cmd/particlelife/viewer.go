package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/spatial/r2"

	particlelife "github.com/olivierh59500/particle-life-sim"
)

// Viewer constants
const (
	ParticleSize   = 3.5  // marker radius in pixels at zoom 1
	ShadowSize     = 5.0  // afterimage radius in pixels at zoom 1
	MinZoom        = 0.1  // limit zoom out to prevent excessive tiling
	SliderScale    = 50.0 // one +/- press changes a coefficient by 1/SliderScale
	MinFriction    = 0.80
	MaxFriction    = 0.999
	FrictionStep   = 0.001
	MaxNoise       = 1.0
	NoiseStep      = 0.01
	EvolutionEvery = 1000 // ticks between matrix mutations in evolution mode
	EvolutionSigma = 0.1
)

// View modes
const (
	ViewParticles = iota
	ViewAfterimage
	ViewDensity
	numViews
)

var viewNames = [numViews]string{"particles", "afterimage", "density"}

// frame is a copy of a snapshot kept for the afterimage.
type frame struct {
	pos   []r2.Vec
	types []int
}

// Viewer is the ebiten game that drives a Simulation and renders it.
type Viewer struct {
	sim   *particlelife.Simulation
	dt    float64
	names []string

	Paused        bool
	EvolutionMode bool
	VisMode       int
	Zoom          float64
	CamX, CamY    float64 // camera pan in world units
	PrevMX        float64 // previous mouse position for drag
	PrevMY        float64
	SelRow        int // matrix entry edited by +/-
	SelCol        int
	TickCount     int

	screenW, screenH int
	scale            float64 // pixels per world unit at zoom 1
	snap             particlelife.Snapshot
	history          []frame
	historyLen       int
}

// NewViewer wraps sim and renders its first frame.
func NewViewer(sim *particlelife.Simulation, conf *Config) *Viewer {
	p := sim.Params()
	v := &Viewer{
		sim:        sim,
		dt:         conf.Simulation.DT,
		names:      sim.TypeNames(),
		Zoom:       1,
		screenW:    conf.Window.Width,
		screenH:    conf.Window.Height,
		scale:      math.Min(float64(conf.Window.Width)/p.Width, float64(conf.Window.Height)/p.Height),
		historyLen: conf.Window.Afterimage,
	}
	v.snap = sim.Step(0)
	return v
}

// Update is called each tick by Ebitengine
func (v *Viewer) Update() error {
	stepOnce := v.handleInput()

	if v.Paused && !stepOnce {
		return nil
	}

	v.snap = v.sim.Step(v.dt)
	v.record(v.snap)

	v.TickCount++
	if v.EvolutionMode && v.TickCount%EvolutionEvery == 0 {
		v.sim.MutateMatrix(EvolutionSigma)
	}
	return nil
}

// record keeps a copy of snap for the afterimage. Snapshots are reused by
// the simulation, so the slices must be copied.
func (v *Viewer) record(snap particlelife.Snapshot) {
	if v.historyLen == 0 {
		return
	}
	var f frame
	if len(v.history) == v.historyLen {
		f = v.history[0]
		copy(v.history, v.history[1:])
		v.history = v.history[:len(v.history)-1]
	}
	f.pos = append(f.pos[:0], snap.Positions...)
	f.types = append(f.types[:0], snap.Types...)
	v.history = append(v.history, f)
}

// Draw is called each frame by Ebitengine
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	p := v.sim.Params()
	k := len(v.names)

	switch v.VisMode {
	case ViewDensity:
		v.drawDensity(screen, p)
	case ViewAfterimage:
		n := len(v.history)
		for i, f := range v.history {
			alpha := 0.12
			if n > 1 {
				alpha = 0.02 + 0.10*float64(i)/float64(n-1)
			}
			v.drawParticles(screen, p, f.pos, f.types, ShadowSize, func(t int) color.Color {
				c := typeColor(t, k)
				return color.NRGBA{c.R, c.G, c.B, uint8(alpha * 255)}
			})
		}
	}
	v.drawParticles(screen, p, v.snap.Positions, v.snap.Types, ParticleSize, func(t int) color.Color {
		return typeColor(t, k)
	})
	v.drawHUD(screen, p)
}

// drawParticles draws one marker per particle, tiling the periodic world
// over the visible area.
func (v *Viewer) drawParticles(screen *ebiten.Image, p particlelife.Params, pos []r2.Vec, types []int, size float64, col func(int) color.Color) {
	screenWidth := float64(screen.Bounds().Dx())
	screenHeight := float64(screen.Bounds().Dy())
	radius := size * v.Zoom

	dxFrom, dxTo, dyFrom, dyTo := v.tiles(screen, p)
	for dx := dxFrom; dx < dxTo; dx++ {
		for dy := dyFrom; dy < dyTo; dy++ {
			offsetX := dx * p.Width
			offsetY := dy * p.Height
			for i, q := range pos {
				sx := v.worldToScreenX(q.X + offsetX)
				sy := v.worldToScreenY(q.Y + offsetY)
				if sx >= -radius && sx <= screenWidth+radius && sy >= -radius && sy <= screenHeight+radius {
					vector.DrawFilledCircle(screen, float32(sx), float32(sy), float32(radius), col(types[i]), true)
				}
			}
		}
	}
}

// drawDensity shades each grid cell by its particle count.
func (v *Viewer) drawDensity(screen *ebiten.Image, p particlelife.Params) {
	g := v.sim.Grid()
	if len(g.Counts) == 0 {
		return
	}
	maxCount := 1
	for _, c := range g.Counts {
		maxCount = max(maxCount, c)
	}
	cellW := p.Width / float64(g.Cols)
	cellH := p.Height / float64(g.Rows)

	dxFrom, dxTo, dyFrom, dyTo := v.tiles(screen, p)
	for dx := dxFrom; dx < dxTo; dx++ {
		for dy := dyFrom; dy < dyTo; dy++ {
			for c, count := range g.Counts {
				wx := float64(c%g.Cols)*cellW + dx*p.Width
				wy := float64(c/g.Cols)*cellH + dy*p.Height
				intensity := uint8(255 * count / maxCount)
				vector.DrawFilledRect(screen,
					float32(v.worldToScreenX(wx)), float32(v.worldToScreenY(wy)),
					float32(cellW*v.scale*v.Zoom), float32(cellH*v.scale*v.Zoom),
					color.RGBA{intensity / 2, 0, (255 - intensity) / 2, 255}, false)
			}
		}
	}
}

// drawHUD prints the interaction matrix and the scalar parameters.
func (v *Viewer) drawHUD(screen *ebiten.Image, p particlelife.Params) {
	const cellW, lineH, x0, y0 = 56, 16, 8, 18
	rows := v.sim.Matrix().Rows()
	k := len(v.names)

	for c := 0; c < k; c++ {
		text.Draw(screen, abbrev(v.names[c]), basicfont.Face7x13, x0+cellW*(c+1)+16, y0, typeColor(c, k))
	}
	for r, row := range rows {
		y := y0 + lineH*(r+1)
		text.Draw(screen, abbrev(v.names[r]), basicfont.Face7x13, x0, y, typeColor(r, k))
		for c, val := range row {
			x := x0 + cellW*(c+1)
			vector.DrawFilledRect(screen, float32(x), float32(y-12), cellW-4, lineH-2, coefficientColor(val*SliderScale), false)
			if r == v.SelRow && c == v.SelCol {
				vector.StrokeRect(screen, float32(x), float32(y-12), cellW-4, lineH-2, 2, color.White, false)
			}
			text.Draw(screen, fmt.Sprintf("%+.2f", val), basicfont.Face7x13, x+6, y, color.White)
		}
	}

	state := "running"
	if v.Paused {
		state = "paused"
	}
	lines := []string{
		fmt.Sprintf("friction %.3f  noise %.3f  r_max %g  %s", p.Friction, p.NoiseStrength, p.RMax, gridLabel(v.sim.Grid())),
		fmt.Sprintf("%d particles  view %s  %s  %.0f TPS", v.sim.Len(), viewNames[v.VisMode], state, ebiten.ActualTPS()),
	}
	if v.EvolutionMode {
		lines = append(lines, "evolution on")
	}
	for i, line := range lines {
		text.Draw(screen, line, basicfont.Face7x13, x0, y0+lineH*(k+2+i), color.White)
	}
}

// gridLabel formats the grid shape, flagging a world that fits in one cell.
func gridLabel(g particlelife.GridStats) string {
	label := fmt.Sprintf("grid %dx%d", g.Cols, g.Rows)
	if g.Cols*g.Rows == 1 {
		label += " (single cell)"
	}
	return label
}

// Layout returns the screen size
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.screenW, v.screenH
}

// handleInput processes keyboard and mouse input. It reports whether a
// single step was requested while paused.
func (v *Viewer) handleInput() bool {
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	k := len(v.names)

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.Paused = !v.Paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.sim.RandomizeMatrix()
		log.Printf("matrix randomized")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		v.EvolutionMode = !v.EvolutionMode
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		v.snap = v.sim.Reset()
		v.history = v.history[:0]
		log.Printf("particles reset")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		v.VisMode = (v.VisMode + 1) % numViews
	}

	// Matrix selection and editing
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		v.SelRow = (v.SelRow + k - 1) % k
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		v.SelRow = (v.SelRow + 1) % k
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		v.SelCol = (v.SelCol + k - 1) % k
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		v.SelCol = (v.SelCol + 1) % k
	}
	if repeating(ebiten.KeyEqual) || repeating(ebiten.KeyNumpadAdd) {
		v.nudgeForce(1)
	}
	if repeating(ebiten.KeyMinus) || repeating(ebiten.KeyNumpadSubtract) {
		v.nudgeForce(-1)
	}

	if repeating(ebiten.KeyF) {
		f := stepWithin(v.sim.Friction(), FrictionStep, shift, MinFriction, MaxFriction)
		if err := v.sim.SetFriction(f); err != nil {
			log.Printf("friction: %v", err)
		} else {
			log.Printf("friction changed to %.3f", f)
		}
	}
	if repeating(ebiten.KeyN) {
		n := stepWithin(v.sim.NoiseStrength(), NoiseStep, shift, 0, MaxNoise)
		if err := v.sim.SetNoiseStrength(n); err != nil {
			log.Printf("noise: %v", err)
		} else {
			log.Printf("noise changed to %.3f", n)
		}
	}

	// Zoom
	_, wheelY := ebiten.Wheel()
	v.Zoom += wheelY * 0.1
	if v.Zoom < MinZoom {
		v.Zoom = MinZoom
	}

	// Pan (drag)
	mx, my := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		v.CamX -= (float64(mx) - v.PrevMX) / (v.Zoom * v.scale)
		v.CamY -= (float64(my) - v.PrevMY) / (v.Zoom * v.scale)
	}
	v.PrevMX = float64(mx)
	v.PrevMY = float64(my)

	return v.Paused && inpututil.IsKeyJustPressed(ebiten.KeyPeriod)
}

// nudgeForce moves the selected coefficient by dir slider ticks.
func (v *Viewer) nudgeForce(dir int) {
	cur, err := v.sim.Matrix().At(v.SelRow, v.SelCol)
	if err != nil {
		log.Printf("matrix: %v", err)
		return
	}
	next := nudge(cur, dir)
	if err := v.sim.SetForce(v.SelRow, v.SelCol, next); err != nil {
		log.Printf("matrix: %v", err)
		return
	}
	log.Printf("force %s -> %s changed to %+.2f", v.names[v.SelRow], v.names[v.SelCol], next)
}

// nudge snaps val to the slider grid and moves it by dir ticks, clamped to
// the slider range.
func nudge(val float64, dir int) float64 {
	tick := math.Round(val*SliderScale) + float64(dir)
	limit := particlelife.MaxCoefficient * SliderScale
	return math.Max(-limit, math.Min(limit, tick)) / SliderScale
}

// stepWithin adds step to val (subtracts it when down), clamped to [lo, hi].
func stepWithin(val, step float64, down bool, lo, hi float64) float64 {
	if down {
		val -= step
	} else {
		val += step
	}
	return math.Max(lo, math.Min(hi, val))
}

// repeating reports a key press and auto-repeats while it is held.
func repeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d > 20 && d%3 == 0)
}

// tiles returns the range of world copies intersecting the screen.
func (v *Viewer) tiles(screen *ebiten.Image, p particlelife.Params) (dxFrom, dxTo, dyFrom, dyTo float64) {
	screenWidth := float64(screen.Bounds().Dx())
	screenHeight := float64(screen.Bounds().Dy())

	visibleMinX := v.CamX
	visibleMaxX := v.CamX + screenWidth/(v.Zoom*v.scale)
	visibleMinY := v.CamY
	visibleMaxY := v.CamY + screenHeight/(v.Zoom*v.scale)

	dxFrom = math.Floor(visibleMinX / p.Width)
	dxTo = math.Ceil(visibleMaxX / p.Width)
	dyFrom = math.Floor(visibleMinY / p.Height)
	dyTo = math.Ceil(visibleMaxY / p.Height)
	return dxFrom, dxTo, dyFrom, dyTo
}

// worldToScreenX/Y for camera
func (v *Viewer) worldToScreenX(wx float64) float64 {
	return (wx - v.CamX) * v.Zoom * v.scale
}
func (v *Viewer) worldToScreenY(wy float64) float64 {
	return (wy - v.CamY) * v.Zoom * v.scale
}

// abbrev shortens a type name for the matrix header.
func abbrev(name string) string {
	if len(name) <= 3 {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(name[:3])
}
