package main

import (
	"os"

	"github.com/urfave/cli"
)

// Coordinates: footprints are read in a projected planar system (easting,
// northing, meters). After subtracting the origin they map to the world
// frame like this:
//
//	Y/up
//	|  Z/north
//	| /
//	|/____ X/east

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bipv"
	app.Usage = "estimate solar irradiance on building roofs and walls"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}

	estimateFlags := append(append(siteFlags(), windowFlags()...), estimateOnlyFlags()...)
	traceFlags := append(append(siteFlags(), windowFlags()...), traceOnlyFlags()...)
	bvhFlags := append(siteFlags(), cli.BoolFlag{
		Name:  "check",
		Usage: "verify the structural invariants of the tree",
	})

	app.Commands = []cli.Command{
		{
			Name:  "estimate",
			Usage: "estimate irradiance on every building face",
			Description: `
Extrude building footprints, sample points on every roof and wall, build a
BVH over the scene and cast one shadow ray per point and sampled hour. The
occlusion is combined with hourly weather into mean irradiance per face.

Writes a GeoJSON feature collection with one polygon per roof and one line
per wall, a PNG texture per wall and, optionally, a heat map of hourly face
irradiance. Settings may also come from a TOML file given with --config.`,
			Flags:  estimateFlags,
			Before: loadConfigFile(estimateFlags),
			Action: Estimate,
		},
		{
			Name:        "trace",
			Usage:       "trace a single shadow ray through the scene",
			Description: `Trace one ray from --origin toward the sun at the first sampled hour and report the closest hit, checked against a brute-force intersection of every triangle. With --suncalc the ray aims at the sun position from suncalc instead.`,
			Flags:       traceFlags,
			Before:      loadConfigFile(traceFlags),
			Action:      Trace,
		},
		{
			Name:   "bvh",
			Usage:  "build the scene BVH and print its statistics",
			Flags:  bvhFlags,
			Before: loadConfigFile(bvhFlags),
			Action: ShowBVH,
		},
		{
			Name:  "sunpos",
			Usage: "compare the solar model with suncalc for one day",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "day", Value: 0, Usage: "day of year, 0-based"},
				cli.Float64Flag{Name: "lat", Value: 23.0225, Usage: "site latitude, degrees north"},
				cli.Float64Flag{Name: "lon", Value: 72.5714, Usage: "site longitude, degrees east"},
				cli.IntFlag{Name: "year", Value: 2023, Usage: "year for suncalc"},
			},
			Action: SunPosCompare,
		},
	}
	return app
}
