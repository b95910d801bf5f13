package main

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// RGB is a linear color with channels nominally in [0, 1]. Channels may
// fall outside that range after extrapolation.
type RGB struct {
	R, G, B float64
}

// ParseHexColor parses "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (RGB, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("bad color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return RGB{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

// Hex formats c as "#rrggbb" after clamping.
func (c RGB) Hex() string {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// NRGBA quantizes c to 8 bits per channel, clamping to [0, 1].
func (c RGB) NRGBA() color.NRGBA {
	q := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return color.NRGBA{R: q(c.R), G: q(c.G), B: q(c.B), A: 255}
}

// LerpColor interpolates from a to b. t is not clamped, so t > 1
// extrapolates past b.
func LerpColor(a, b RGB, t float64) RGB {
	return RGB{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
	}
}

// ColorScale maps irradiance to a color between Blocked (at or below
// Min) and Free (at Max).
type ColorScale struct {
	Min, Max      float64 // W/m²
	Blocked, Free RGB
}

// Factor returns max(irr-Min, 0)/(Max-Min). It is not clamped above 1.
func (s *ColorScale) Factor(irr float64) float64 {
	return math.Max(irr-s.Min, 0) / (s.Max - s.Min)
}

func (s *ColorScale) Color(irr float64) RGB {
	return LerpColor(s.Blocked, s.Free, s.Factor(irr))
}
