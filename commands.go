package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aclements/bipv/log"
	"github.com/paulmach/orb"
	"github.com/urfave/cli"
	"github.com/urfave/cli/altsrc"
	"gonum.org/v1/gonum/spatial/r3"
)

var logger = log.New("bipv")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// siteFlags select the scene geometry.
func siteFlags() []cli.Flag {
	d := DefaultConfig()
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "TOML file supplying any flag not given on the command line",
		},
		altsrc.NewStringFlag(cli.StringFlag{
			Name:  "footprints, f",
			Usage: "building footprints (.shp, .geojson)",
		}),
		altsrc.NewStringFlag(cli.StringFlag{
			Name:  "height-field",
			Value: d.HeightField,
			Usage: "footprint attribute holding the building height in meters",
		}),
		altsrc.NewStringSliceFlag(cli.StringSliceFlag{
			Name:  "obstacle",
			Value: &cli.StringSlice{},
			Usage: "binary STL mesh that casts shadows but is not sampled (repeatable)",
		}),
		altsrc.NewFloat64Flag(cli.Float64Flag{
			Name:  "centre-x",
			Value: d.Origin[0],
			Usage: "easting subtracted from footprint coordinates",
		}),
		altsrc.NewFloat64Flag(cli.Float64Flag{
			Name:  "centre-y",
			Value: d.Origin[1],
			Usage: "northing subtracted from footprint coordinates",
		}),
		altsrc.NewIntFlag(cli.IntFlag{
			Name:  "depth",
			Value: d.Depth,
			Usage: fmt.Sprintf("BVH depth in [%d, %d]", MinDepth, MaxDepth),
		}),
	}
}

// windowFlags select the site location and the sampled hours.
func windowFlags() []cli.Flag {
	d := DefaultConfig()
	return []cli.Flag{
		altsrc.NewIntFlag(cli.IntFlag{
			Name:  "day",
			Value: d.Day,
			Usage: "day of year in [0, 364]",
		}),
		altsrc.NewIntFlag(cli.IntFlag{
			Name:  "start-hour",
			Value: d.StartHour,
			Usage: "first sampled hour of the day",
		}),
		altsrc.NewIntFlag(cli.IntFlag{
			Name:  "hours",
			Value: d.Hours,
			Usage: "number of sampled hours",
		}),
		altsrc.NewFloat64Flag(cli.Float64Flag{
			Name:  "lat",
			Value: d.Latitude * rad2deg,
			Usage: "site latitude, degrees north",
		}),
		altsrc.NewFloat64Flag(cli.Float64Flag{
			Name:  "lon",
			Value: d.Longitude * rad2deg,
			Usage: "site longitude, degrees east",
		}),
		altsrc.NewFloat64Flag(cli.Float64Flag{
			Name:  "ray-epsilon",
			Value: d.Epsilon,
			Usage: "distance a shadow ray skips before it can hit anything, m",
		}),
	}
}

func estimateOnlyFlags() []cli.Flag {
	d := DefaultConfig()
	return []cli.Flag{
		altsrc.NewStringFlag(cli.StringFlag{
			Name:  "weather, w",
			Usage: "EnergyPlus weather file; clear-sky weather if empty",
		}),
		altsrc.NewIntFlag(cli.IntFlag{
			Name:  "year",
			Value: d.Year,
			Usage: "year for clear-sky weather",
		}),
		altsrc.NewFloat64Flag(cli.Float64Flag{
			Name:  "elevation",
			Usage: "site elevation for clear-sky weather, m",
		}),
		altsrc.NewIntFlag(cli.IntFlag{
			Name:  "workers",
			Usage: "occlusion workers; 0 means one per CPU",
		}),
		altsrc.NewFloat64Flag(cli.Float64Flag{
			Name:  "min",
			Value: d.Colors.Min,
			Usage: "irradiance shown in the blocked color, W/m²",
		}),
		altsrc.NewFloat64Flag(cli.Float64Flag{
			Name:  "max",
			Value: d.Colors.Max,
			Usage: "irradiance shown in the free color, W/m²",
		}),
		altsrc.NewStringFlag(cli.StringFlag{
			Name:  "blocked-color",
			Value: d.Colors.Blocked.Hex(),
			Usage: "color of faces at or below --min",
		}),
		altsrc.NewStringFlag(cli.StringFlag{
			Name:  "free-color",
			Value: d.Colors.Free.Hex(),
			Usage: "color of faces at --max",
		}),
		altsrc.NewStringFlag(cli.StringFlag{
			Name:  "out, o",
			Value: d.OutDir,
			Usage: "output directory",
		}),
		altsrc.NewBoolTFlag(cli.BoolTFlag{
			Name:  "textures",
			Usage: "write a PNG texture per wall",
		}),
		altsrc.NewBoolFlag(cli.BoolFlag{
			Name:  "heatmap",
			Usage: "write a heat map of hourly face irradiance",
		}),
		altsrc.NewStringFlag(cli.StringFlag{
			Name:  "cache-dir",
			Value: d.CacheDir,
			Usage: "occlusion cache directory; empty disables the cache",
		}),
	}
}

func traceOnlyFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "origin",
			Value: "0,0,0",
			Usage: "ray origin x,y,z in world coordinates",
		},
		cli.BoolFlag{
			Name:  "suncalc",
			Usage: "trace toward the suncalc sun position instead of the solar model",
		},
		cli.IntFlag{
			Name:  "year",
			Value: DefaultConfig().Year,
			Usage: "year for --suncalc",
		},
	}
}

// loadConfigFile fills unset flags from the file named by --config, if
// any.
func loadConfigFile(flags []cli.Flag) cli.BeforeFunc {
	load := altsrc.InitInputSourceWithContext(flags, altsrc.NewTomlSourceFromFlagFunc("config"))
	return func(ctx *cli.Context) error {
		if ctx.String("config") == "" {
			return nil
		}
		return load(ctx)
	}
}

// configFromContext builds a Config from the flags that are defined on
// the current command.
func configFromContext(ctx *cli.Context) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Footprints = ctx.String("footprints")
	cfg.HeightField = ctx.String("height-field")
	cfg.Obstacles = ctx.StringSlice("obstacle")
	cfg.Origin = orb.Point{ctx.Float64("centre-x"), ctx.Float64("centre-y")}
	cfg.Depth = ctx.Int("depth")

	if hasFlag(ctx, "day") {
		cfg.Day = ctx.Int("day")
		cfg.StartHour = ctx.Int("start-hour")
		cfg.Hours = ctx.Int("hours")
		cfg.Latitude = ctx.Float64("lat") * deg2rad
		cfg.Longitude = ctx.Float64("lon") * deg2rad
		cfg.Epsilon = ctx.Float64("ray-epsilon")
	}

	if hasFlag(ctx, "weather") {
		cfg.Weather = ctx.String("weather")
		cfg.Year = ctx.Int("year")
		cfg.Elevation = ctx.Float64("elevation")
		cfg.Workers = ctx.Int("workers")
		cfg.Colors.Min = ctx.Float64("min")
		cfg.Colors.Max = ctx.Float64("max")
		var err error
		if cfg.Colors.Blocked, err = ParseHexColor(ctx.String("blocked-color")); err != nil {
			return nil, err
		}
		if cfg.Colors.Free, err = ParseHexColor(ctx.String("free-color")); err != nil {
			return nil, err
		}
		cfg.OutDir = ctx.String("out")
		cfg.Textures = ctx.BoolT("textures")
		cfg.HeatMap = ctx.Bool("heatmap")
		cfg.CacheDir = ctx.String("cache-dir")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func hasFlag(ctx *cli.Context, name string) bool {
	for _, n := range ctx.FlagNames() {
		if n == name {
			return true
		}
	}
	return false
}

// signalContext returns a context canceled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// Estimate runs one estimation pass and writes its outputs.
func Estimate(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}
	site, err := LoadSite(cfg)
	if err != nil {
		return err
	}
	weather, err := LoadWeather(cfg)
	if err != nil {
		return err
	}

	sctx, cancel := signalContext()
	defer cancel()
	pass := NewPass(cfg)
	res, err := pass.Run(sctx, site, weather)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutDir, 0777); err != nil {
		return err
	}
	fc, err := Features(site.Buildings, res.Buildings, cfg.Day, res.ID.String())
	if err != nil {
		return err
	}
	featurePath := filepath.Join(cfg.OutDir, fmt.Sprintf("bipv_%d.geojson", cfg.Day))
	if err := WriteFeatures(featurePath, fc); err != nil {
		return err
	}
	logger.Noticef("wrote %d features to %s", len(fc.Features), featurePath)

	if cfg.Textures {
		n, err := WriteTextures(cfg.OutDir, res.Buildings, cfg.Day, &cfg.Colors)
		if err != nil {
			return err
		}
		logger.Noticef("wrote %d wall textures to %s", n, cfg.OutDir)
	}
	if cfg.HeatMap {
		path := filepath.Join(cfg.OutDir, fmt.Sprintf("heatmap_%d.png", cfg.Day))
		if err := SaveHeatMap(path, res.Buildings, cfg.Day, cfg.StartHour); err != nil {
			return err
		}
		logger.Noticef("wrote heat map to %s", path)
	}

	logger.Infof("face results\n%s", FaceTable(res))
	return nil
}

// Trace casts a single ray toward the sun and reports what it hits.
func Trace(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}
	origin, err := parseVec(ctx.String("origin"))
	if err != nil {
		return err
	}
	site, err := LoadSite(cfg)
	if err != nil {
		return err
	}
	scene := site.Scene()
	bvh, err := BuildBVH(scene.Verts, scene.Tris, cfg.Depth)
	if err != nil {
		return err
	}

	hour := cfg.FirstHour()
	dir := SunDirection(hour, cfg.Latitude)
	if ctx.Bool("suncalc") {
		lat, lon := cfg.Latitude*rad2deg, cfg.Longitude*rad2deg
		dir = GetSunPos(SolarHourTime(ctx.Int("year"), hour, lon), lat, lon).Direction()
	}
	ray := Ray{Origin: origin, Dir: r3.Scale(-1, dir)}
	far := bvh.Bounds().Diagonal()
	elevation := SunElevation(dir) * rad2deg
	logger.Noticef("hour %d: sun elevation %.2f°, ray %v → %v", hour, elevation, ray.Origin, ray.Dir)

	tri, t, ok := bvh.Traverse(&ray, cfg.Epsilon, far)
	brute := &Mesh{Verts: bvh.Verts, Tris: bvh.Tris}
	_, tBrute, okBrute := ray.IntersectMesh(brute, cfg.Epsilon, far)
	if ok != okBrute || (ok && t != tBrute) {
		return fmt.Errorf("bvh hit (%v, %v) disagrees with brute force (%v, %v)", ok, t, okBrute, tBrute)
	}
	if !ok {
		logger.Notice("no hit: point is lit")
		return nil
	}
	logger.Noticef("hit triangle %d at t=%.3f, point %v", tri, t, ray.Along(t))
	return nil
}

// ShowBVH prints BVH statistics for the scene.
func ShowBVH(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}
	site, err := LoadSite(cfg)
	if err != nil {
		return err
	}
	scene := site.Scene()
	bvh, err := BuildBVH(scene.Verts, scene.Tris, cfg.Depth)
	if err != nil {
		return err
	}
	logger.Noticef("bvh statistics\n%s", BVHTable(bvh))
	if ctx.Bool("check") {
		if err := bvh.Check(); err != nil {
			return fmt.Errorf("bvh check failed: %w", err)
		}
		logger.Notice("bvh check passed")
	}
	return nil
}

// SunPosCompare prints the solar model and suncalc side by side for
// every hour of a day.
func SunPosCompare(ctx *cli.Context) error {
	setupLogging(ctx)

	day := ctx.Int("day")
	if day < 0 || day > 364 {
		return fmt.Errorf("day %d not in [0, 364]", day)
	}
	lat, lon, year := ctx.Float64("lat"), ctx.Float64("lon"), ctx.Int("year")
	var rows []SunPosRow
	for h := 0; h < 24; h++ {
		hour := day*24 + h
		rows = append(rows, SunPosRow{
			Hour:      h,
			Model:     SolarAngles(hour, lat*deg2rad),
			Elevation: SiteElevation(hour, lat*deg2rad),
			Reference: GetSunPos(SolarHourTime(year, hour, lon), lat, lon),
		})
	}
	logger.Noticef("sun positions for day %d\n%s", day, SunPosTable(rows))
	return nil
}

func parseVec(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vec{}, errors.New("want x,y,z")
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("bad coordinate %q: %w", p, err)
		}
		v[i] = f
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
