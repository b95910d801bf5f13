package main

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Config holds the settings of one estimation pass. Angles are in
// radians.
type Config struct {
	Day       int // Day of year, 0-based
	StartHour int // First sampled hour of the day
	Hours     int // Number of sampled hours

	Latitude, Longitude float64
	Elevation           float64 // Site elevation, m, for clear-sky weather
	Year                int     // For clear-sky weather

	Depth   int     // BVH depth
	Epsilon float64 // Ray start offset, m
	Workers int     // Occlusion workers; <= 0 means one per CPU

	Colors ColorScale

	// Origin is subtracted from footprint coordinates.
	Origin orb.Point

	Footprints  string   // Shapefile or GeoJSON of building footprints
	HeightField string   // Footprint attribute with the building height
	Obstacles   []string // Extra STL meshes that cast shadows
	Weather     string   // EPW file; empty for clear-sky weather

	OutDir   string // Output directory for features, textures and plots
	Textures bool   // Write wall PNGs
	HeatMap  bool   // Write the face × hour heat map
	CacheDir string // Occlusion cache; empty disables caching
}

// DefaultConfig returns the settings for Ahmedabad on day 0, sampling
// 6:00 through 17:00.
func DefaultConfig() *Config {
	return &Config{
		Day:       0,
		StartHour: 6,
		Hours:     12,
		Latitude:  23.0225 * deg2rad,
		Longitude: 72.5714 * deg2rad,
		Year:      2023,
		Depth:     10,
		Epsilon:   1e-3,
		Colors: ColorScale{
			Min:     0,
			Max:     1000,
			Blocked: RGB{R: 1},
			Free:    RGB{B: 1},
		},
		Origin:      orb.Point{246006.164014719, 2549078.7998468},
		HeightField: "height",
		OutDir:      ".",
		Textures:    true,
		CacheDir:    ".cache",
	}
}

// FirstHour returns the hour of year of the first sampled hour.
func (c *Config) FirstHour() int {
	return c.Day*24 + c.StartHour
}

func (c *Config) Validate() error {
	switch {
	case c.Day < 0 || c.Day > 364:
		return fmt.Errorf("day %d not in [0, 364]", c.Day)
	case c.StartHour < 0 || c.StartHour > 23:
		return fmt.Errorf("start hour %d not in [0, 23]", c.StartHour)
	case c.Hours < 1:
		return fmt.Errorf("hour count %d < 1", c.Hours)
	case c.FirstHour()+c.Hours > HoursPerYear:
		return fmt.Errorf("hour window [%d, %d) extends past the end of the year", c.FirstHour(), c.FirstHour()+c.Hours)
	case c.Depth < MinDepth || c.Depth > MaxDepth:
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrBadDepth, c.Depth, MinDepth, MaxDepth)
	case c.Colors.Max <= c.Colors.Min:
		return fmt.Errorf("max threshold %v must exceed min threshold %v", c.Colors.Max, c.Colors.Min)
	case c.Epsilon < 0:
		return fmt.Errorf("ray epsilon %v < 0", c.Epsilon)
	}
	return nil
}
