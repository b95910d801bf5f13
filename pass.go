package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aclements/bipv/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

var passLogger = log.New("pass")

type PassState uint8

const (
	PassIdle PassState = iota
	PassSampled
	PassBuilt
	PassOccluded
	PassDone
	PassFailed
)

func (s PassState) String() string {
	switch s {
	case PassIdle:
		return "idle"
	case PassSampled:
		return "sampled"
	case PassBuilt:
		return "built"
	case PassOccluded:
		return "occluded"
	case PassDone:
		return "done"
	case PassFailed:
		return "failed"
	}
	return fmt.Sprintf("PassState(%d)", uint8(s))
}

// Result is the complete output of a successful pass.
type Result struct {
	ID        uuid.UUID
	Samples   *SampleSet
	BVH       *BVH
	SunDirs   []r3.Vec
	Occlusion [][]uint32 // [hour][point]
	Buildings []BuildingResult
}

// A Pass estimates the irradiance on a site for one hour window. Each
// stage needs the complete output of the one before it:
//
//	sample points → build BVH → occlusion per hour → aggregate
//
// A Pass runs once.
type Pass struct {
	ID        uuid.UUID
	Config    *Config
	Evaluator PointEvaluator // nil means a CPUEvaluator with Config.Workers
	Cache     *Cache         // nil disables caching

	state PassState
}

func NewPass(cfg *Config) *Pass {
	return &Pass{
		ID:     uuid.New(),
		Config: cfg,
		Cache:  &Cache{Dir: cfg.CacheDir},
	}
}

func (p *Pass) State() PassState {
	return p.state
}

// Run executes the pass. It returns a Result only if every stage
// succeeds; on error the pass is left in PassFailed and nothing is
// returned.
func (p *Pass) Run(ctx context.Context, site *Site, weather Weather) (*Result, error) {
	if p.state != PassIdle {
		return nil, fmt.Errorf("pass %s already %s", p.ID, p.state)
	}
	res, err := p.run(ctx, site, weather)
	if err != nil {
		p.state = PassFailed
		passLogger.Errorf("pass %s failed: %v", p.ID, err)
		return nil, err
	}
	p.state = PassDone
	return res, nil
}

func (p *Pass) run(ctx context.Context, site *Site, weather Weather) (*Result, error) {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(weather) == 0 {
		return nil, fmt.Errorf("%w: no weather", ErrDataNotFound)
	}
	window, err := weather.Window(cfg.FirstHour(), cfg.Hours)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res := &Result{ID: p.ID}

	res.Samples = SamplePoints(site.Buildings)
	if len(res.Samples.Points) == 0 {
		return nil, fmt.Errorf("%w: site has no sample points", ErrDataNotFound)
	}
	p.state = PassSampled
	passLogger.Infof("pass %s: %d sample points on %d buildings", p.ID, len(res.Samples.Points), len(site.Buildings))

	scene := site.Scene()
	res.BVH, err = BuildBVH(scene.Verts, scene.Tris, cfg.Depth)
	if err != nil {
		return nil, err
	}
	p.state = PassBuilt

	res.SunDirs = SunDirections(cfg.Day, cfg.StartHour, cfg.Hours, cfg.Latitude)
	buf := newBufferSet(res.BVH, res.Samples.Points, cfg.Epsilon)
	defer buf.release()

	cache := p.Cache
	if cache == nil {
		cache = new(Cache)
	}
	key := cache.Key(buf.Triangles, buf.Points, res.SunDirs, cfg.Epsilon)
	if !key.Load(&res.Occlusion) {
		ev := p.Evaluator
		if ev == nil {
			ev = &CPUEvaluator{Workers: cfg.Workers}
		}
		engine := &OcclusionEngine{Evaluator: ev}
		res.Occlusion, err = engine.Run(ctx, buf, res.SunDirs)
		if err != nil {
			return nil, err
		}
		key.Save(res.Occlusion)
	}
	p.state = PassOccluded

	res.Buildings, err = Aggregate(res.Samples, res.Occlusion, res.SunDirs, window, &cfg.Colors)
	if err != nil {
		return nil, err
	}
	passLogger.Noticef("pass %s: %d buildings, %d hours in %v", p.ID, len(res.Buildings), cfg.Hours, time.Since(start))
	return res, nil
}
