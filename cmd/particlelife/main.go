// Command particlelife runs an interactive particle life world.
//
// Usage:
//
//	particlelife [config_file]
//
// The optional argument is the path to a TOML config file with a
// [simulation] and a [window] table. Missing keys keep their defaults.
//
// Keys: space pause, period single step while paused, arrows select a
// matrix entry, +/- edit it, F/shift+F friction, N/shift+N noise,
// R randomize matrix, E evolution mode, C reset, H cycle view.
// Mouse wheel zooms, dragging pans.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	particlelife "github.com/olivierh59500/particle-life-sim"
)

const usage = `Usage: particlelife [config_file]

The first argument is optional and is the path to a TOML config file.
Without it the simulation runs with default parameters.
`

func main() {
	log.SetPrefix("particlelife: ")

	var conf *Config
	var err error
	switch len(os.Args) {
	case 1:
		conf = DefaultConfig()
	case 2:
		conf, err = ParseConfig(os.Args[1])
		if err == nil {
			log.Printf("config loaded from %s", os.Args[1])
		}
	default:
		err = fmt.Errorf("%d arguments provided (0 required, 1 optional)\n\n%s", len(os.Args)-1, usage)
	}
	if err != nil {
		log.Fatal(err)
	}

	sim, err := particlelife.New(conf.Simulation)
	if err != nil {
		log.Fatal(err)
	}
	if sim.Degenerate() {
		p := sim.Params()
		log.Printf("r_max %g covers the whole %gx%g world, neighbour search falls back to brute force", p.RMax, p.Width, p.Height)
	}

	ebiten.SetWindowSize(conf.Window.Width, conf.Window.Height)
	ebiten.SetWindowTitle(conf.Window.Title)
	ebiten.SetTPS(conf.Window.TPS)

	if err := ebiten.RunGame(NewViewer(sim, conf)); err != nil {
		log.Fatal(err)
	}
}
