package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/aclements/bipv/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

var irrLogger = log.New("irradiance")

var ErrDataNotFound = errors.New("occlusion or weather data not found")

// groundAlbedo is the fraction of global horizontal irradiance reflected
// by the ground onto vertical faces.
const groundAlbedo = 0.2

var roofNormal = r3.Vec{Y: 1}

// FaceResult is the irradiance on one face averaged over the hour window,
// in W/m².
type FaceResult struct {
	Irradiance float64
	Direct     float64
	Diffuse    float64
	Reflected  float64
	Color      RGB

	// Hourly is the face irradiance for each hour of the window.
	Hourly []float64

	// Grid is the per-point irradiance of a vertical face, or nil for the
	// roof and for walls too small to sample.
	Grid *FaceGrid
}

// FaceGrid is the per-point irradiance of a wall, Width columns by
// Height rows. Value (i, j) is sample point i*Height+j of the face.
type FaceGrid struct {
	Width, Height int
	Irradiance    []float64
}

func (g *FaceGrid) At(i, j int) float64 {
	return g.Irradiance[i*g.Height+j]
}

type BuildingResult struct {
	ID    int
	Faces []FaceResult
}

// hourTerms is the irradiance on a face for one hour with the given
// fraction of its points shaded.
func hourTerms(w WeatherRecord, normal, sunDir r3.Vec, vertical bool, shadowFraction float64) (direct, diffuse, reflected float64) {
	tilt := 1.0
	if vertical {
		tilt = 0
	}
	cosTheta := math.Max(0, r3.Dot(normal, r3.Scale(-1, sunDir)))
	direct = w.DNI * (1 - shadowFraction) * cosTheta
	diffuse = w.DHI * (1 + tilt) / 2
	reflected = w.GHI * groundAlbedo * (1 - tilt) / 2
	return
}

// Aggregate combines per-hour occlusion, sun directions and weather into
// per-face irradiance. occ, sunDirs and weather are indexed by hour of
// the window and must have the same length.
func Aggregate(samples *SampleSet, occ [][]uint32, sunDirs []r3.Vec, weather []WeatherRecord, scale *ColorScale) ([]BuildingResult, error) {
	hours := len(sunDirs)
	switch {
	case samples == nil || len(samples.Points) == 0:
		return nil, fmt.Errorf("%w: no sample points", ErrDataNotFound)
	case hours == 0:
		return nil, fmt.Errorf("%w: empty hour window", ErrDataNotFound)
	case len(occ) != hours:
		return nil, fmt.Errorf("%w: occlusion for %d of %d hours", ErrDataNotFound, len(occ), hours)
	case len(weather) != hours:
		return nil, fmt.Errorf("%w: weather for %d of %d hours", ErrDataNotFound, len(weather), hours)
	}
	for h, o := range occ {
		if len(o) != len(samples.Points) {
			return nil, fmt.Errorf("%w: hour %d has %d of %d points", ErrDataNotFound, h, len(o), len(samples.Points))
		}
	}

	results := make([]BuildingResult, 0, len(samples.Buildings))
	for _, bm := range samples.Buildings {
		br := BuildingResult{ID: bm.ID, Faces: make([]FaceResult, len(bm.Faces))}
		start := bm.Start
		for fi := range bm.Faces {
			fm := &bm.Faces[fi]
			br.Faces[fi] = aggregateFace(fm, start, occ, sunDirs, weather, scale)
			if fm.Vertical {
				if fm.Width == 0 {
					irrLogger.Debugf("building %d face %d: no sample grid", bm.ID, fi)
				} else {
					br.Faces[fi].Grid = faceGrid(fm, start, occ, sunDirs, weather)
				}
			}
			start += fm.Points
		}
		results = append(results, br)
	}
	return results, nil
}

func aggregateFace(fm *FaceMeta, start int, occ [][]uint32, sunDirs []r3.Vec, weather []WeatherRecord, scale *ColorScale) FaceResult {
	normal := roofNormal
	if fm.Vertical {
		normal = fm.Normal
	}
	hours := len(sunDirs)
	total := make([]float64, hours)
	direct := make([]float64, hours)
	diffuse := make([]float64, hours)
	reflected := make([]float64, hours)
	for h := 0; h < hours; h++ {
		shadowFraction := 0.0
		if fm.Points > 0 {
			var blocked uint32
			for _, o := range occ[h][start : start+fm.Points] {
				blocked += o
			}
			shadowFraction = float64(blocked) / float64(fm.Points)
		}
		direct[h], diffuse[h], reflected[h] = hourTerms(weather[h], normal, sunDirs[h], fm.Vertical, shadowFraction)
	}
	floats.AddTo(total, direct, diffuse)
	floats.Add(total, reflected)

	fr := FaceResult{
		Irradiance: stat.Mean(total, nil),
		Direct:     stat.Mean(direct, nil),
		Diffuse:    stat.Mean(diffuse, nil),
		Reflected:  stat.Mean(reflected, nil),
		Hourly:     total,
	}
	if scale != nil {
		fr.Color = scale.Color(fr.Irradiance)
	}
	return fr
}

// faceGrid computes the irradiance at each point of a wall, using the
// point's own occlusion in place of the face's shadow fraction.
func faceGrid(fm *FaceMeta, start int, occ [][]uint32, sunDirs []r3.Vec, weather []WeatherRecord) *FaceGrid {
	g := &FaceGrid{Width: fm.Width, Height: fm.Height()}
	n := g.Width * g.Height
	g.Irradiance = make([]float64, n)
	series := make([]float64, len(sunDirs))
	for p := 0; p < n; p++ {
		for h := range sunDirs {
			d, df, r := hourTerms(weather[h], fm.Normal, sunDirs[h], true, float64(occ[h][start+p]))
			series[h] = d + df + r
		}
		g.Irradiance[p] = stat.Mean(series, nil)
	}
	return g
}
