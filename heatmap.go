package main

import (
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func newPlot() *plot.Plot {
	plt := plot.New()
	plt.BackgroundColor = color.Black
	for _, elt := range []*color.Color{
		&plt.Title.TextStyle.Color,
		&plt.X.Color,
		&plt.X.Tick.Color,
		&plt.X.Tick.Label.Color,
		&plt.X.Label.TextStyle.Color,
		&plt.Y.Color,
		&plt.Y.Tick.Color,
		&plt.Y.Tick.Label.Color,
		&plt.Y.Label.TextStyle.Color,
	} {
		*elt = color.White
	}
	return plt
}

// HeatMap plots the hourly irradiance of every face: one column per
// sampled hour and one row per face, buildings in order.
func HeatMap(results []BuildingResult, day, startHour int) *plot.Plot {
	plt := newPlot()
	plt.Title.Text = fmt.Sprintf("Face irradiance, day %d (W/m²)", day)
	plt.X.Tick.Marker = timeOfDayTicks{targetTicks: 6}
	plt.Y.Tick.Marker = faceTicks(results)

	grid := &faceIrradianceGrid{startHour: startHour}
	for _, br := range results {
		for _, fr := range br.Faces {
			grid.rows = append(grid.rows, fr.Hourly)
			if len(fr.Hourly) > 0 {
				if m := floats.Max(fr.Hourly); m > grid.max {
					grid.max = m
				}
			}
		}
	}

	pal := palette.Heat(256, 1)
	hm := plotter.NewHeatMap(grid, pal)
	hm.Underflow = color.Black
	hm.Rasterized = true
	plt.Add(hm)

	return plt
}

// SaveHeatMap writes the heat map of results to path. The format follows
// the file extension.
func SaveHeatMap(path string, results []BuildingResult, day, startHour int) error {
	return HeatMap(results, day, startHour).Save(20*vg.Centimeter, 15*vg.Centimeter, path)
}

type faceIrradianceGrid struct {
	rows      [][]float64 // [face][hour]
	startHour int
	max       float64
}

func (g *faceIrradianceGrid) Dims() (c, r int) {
	if len(g.rows) == 0 {
		return 0, 0
	}
	return len(g.rows[0]), len(g.rows)
}

func (g *faceIrradianceGrid) Z(c, r int) float64 {
	return g.rows[r][c]
}

// X is the time since midnight at the middle of hour c.
func (g *faceIrradianceGrid) X(c int) float64 {
	return float64(time.Duration(g.startHour+c)*time.Hour + 30*time.Minute)
}

func (g *faceIrradianceGrid) Y(r int) float64 {
	return float64(r)
}

func (g *faceIrradianceGrid) Min() float64 {
	return 0
}

func (g *faceIrradianceGrid) Max() float64 {
	if g.max == 0 {
		// Keep the palette range non-empty at night.
		return 1
	}
	return g.max
}
