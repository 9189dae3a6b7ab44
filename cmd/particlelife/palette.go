package main

import (
	"image/color"
	"math"
)

// basePalette colours the first four types: blue, yellow, green, red.
var basePalette = [...][3]float64{
	{0.2, 0.2, 1.0},
	{1.0, 1.0, 0.2},
	{0.2, 1.0, 0.2},
	{1.0, 0.2, 0.2},
}

// darken is applied to every type colour
const darken = 0.8

// typeColor returns the colour of type t out of k types.
func typeColor(t, k int) color.RGBA {
	var r, g, b float64
	if k <= len(basePalette) {
		c := basePalette[t%len(basePalette)]
		r, g, b = c[0], c[1], c[2]
	} else {
		// Simple hue-based colors
		r, g, b = hsvToRGB(float64(t)/float64(k)*360, 1, 1)
	}
	return color.RGBA{
		uint8(r * darken * 255),
		uint8(g * darken * 255),
		uint8(b * darken * 255),
		255,
	}
}

// hsvToRGB helper
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

// coefficientColor maps a slider value in [-100, 100] to a cell colour:
// green shades below zero, blue at zero, red shades above.
func coefficientColor(value float64) color.RGBA {
	value = math.Max(-100, math.Min(100, value))
	switch {
	case value < 0:
		t := (value + 100) / 100
		return color.RGBA{0, uint8(100 + t*155), 0, 255}
	case value == 0:
		return color.RGBA{50, 50, 255, 255}
	default:
		t := value / 100
		return color.RGBA{uint8(255 - t*155), 0, 0, 255}
	}
}
