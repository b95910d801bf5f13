package main

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"
)

// countingEvaluator counts the hours it is asked to evaluate.
type countingEvaluator struct {
	CPUEvaluator
	calls atomic.Int32
}

func (e *countingEvaluator) Evaluate(ctx context.Context, buf *bufferSet, sunDir r3.Vec, out []uint32) error {
	e.calls.Add(1)
	return e.CPUEvaluator.Evaluate(ctx, buf, sunDir, out)
}

func testSite(t *testing.T) *Site {
	t.Helper()
	s := new(Site)
	src := &FootprintSource{
		Footprints: []Footprint{
			squareFootprint(0, 0, 0, 10, 10, 20),
			squareFootprint(1, 0, 15, 10, 10, 5),
			squareFootprint(2, 15, 0, 6, 6, 3),
		},
	}
	if err := s.AddBuildings(src); err != nil {
		t.Fatal(err)
	}
	return s
}

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Depth = 6
	cfg.Hours = 4
	cfg.StartHour = 10
	cfg.Day = 80
	cfg.CacheDir = t.TempDir()
	return cfg
}

func clearSky(cfg *Config) Weather {
	return ClearSkyWeather(cfg.Year, cfg.Latitude*rad2deg, cfg.Longitude*rad2deg, 0)
}

func TestPassRun(t *testing.T) {
	cfg := testConfig(t)
	site := testSite(t)
	before := liveBufferSets.Load()

	p := NewPass(cfg)
	if p.State() != PassIdle {
		t.Fatalf("new pass state %v", p.State())
	}
	res, err := p.Run(context.Background(), site, clearSky(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if p.State() != PassDone {
		t.Errorf("state %v, want done", p.State())
	}
	if res.ID != p.ID {
		t.Errorf("result ID %v, pass ID %v", res.ID, p.ID)
	}
	if len(res.Buildings) != 3 {
		t.Fatalf("%d building results, want 3", len(res.Buildings))
	}
	if len(res.Occlusion) != cfg.Hours || len(res.SunDirs) != cfg.Hours {
		t.Errorf("%d occlusion hours, %d sun directions, want %d", len(res.Occlusion), len(res.SunDirs), cfg.Hours)
	}
	if err := res.BVH.Check(); err != nil {
		t.Error(err)
	}
	for _, br := range res.Buildings {
		if len(br.Faces) != 5 {
			t.Errorf("building %d has %d faces, want 5", br.ID, len(br.Faces))
		}
		for fi, f := range br.Faces {
			if f.Irradiance < 0 || len(f.Hourly) != cfg.Hours {
				t.Errorf("building %d face %d: %+v", br.ID, fi, f)
			}
		}
	}
	if n := liveBufferSets.Load(); n != before {
		t.Errorf("%d buffer sets live after the pass, want %d", n, before)
	}

	// A pass runs once.
	if _, err := p.Run(context.Background(), site, clearSky(cfg)); err == nil {
		t.Error("second run of a pass succeeded")
	}
}

func TestPassCache(t *testing.T) {
	cfg := testConfig(t)
	site := testSite(t)
	weather := clearSky(cfg)

	ev1 := new(countingEvaluator)
	p1 := NewPass(cfg)
	p1.Evaluator = ev1
	r1, err := p1.Run(context.Background(), site, weather)
	if err != nil {
		t.Fatal(err)
	}
	if got := ev1.calls.Load(); got != int32(cfg.Hours) {
		t.Errorf("first pass evaluated %d hours, want %d", got, cfg.Hours)
	}

	ev2 := new(countingEvaluator)
	p2 := NewPass(cfg)
	p2.Evaluator = ev2
	r2, err := p2.Run(context.Background(), site, weather)
	if err != nil {
		t.Fatal(err)
	}
	if got := ev2.calls.Load(); got != 0 {
		t.Errorf("cached pass evaluated %d hours, want 0", got)
	}
	if !reflect.DeepEqual(r1.Occlusion, r2.Occlusion) {
		t.Error("cached occlusion differs")
	}
	if r1.ID == r2.ID {
		t.Error("passes share an ID")
	}
}

func TestPassFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheDir = ""
	site := testSite(t)
	before := liveBufferSets.Load()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	for _, test := range []struct {
		name    string
		ctx     context.Context
		site    *Site
		weather Weather
		mod     func(*Config)
		want    error
	}{
		{"no weather", context.Background(), site, nil, nil, ErrDataNotFound},
		{"short weather", context.Background(), site, make(Weather, 24), nil, ErrShortWeather},
		{"empty site", context.Background(), new(Site), clearSky(cfg), nil, ErrDataNotFound},
		{"bad depth", context.Background(), site, clearSky(cfg), func(c *Config) { c.Depth = 0 }, ErrBadDepth},
		{"canceled", canceled, site, clearSky(cfg), nil, context.Canceled},
	} {
		t.Run(test.name, func(t *testing.T) {
			c := *cfg
			if test.mod != nil {
				test.mod(&c)
			}
			p := NewPass(&c)
			res, err := p.Run(test.ctx, test.site, test.weather)
			if !errors.Is(err, test.want) {
				t.Errorf("got %v, want %v", err, test.want)
			}
			if res != nil {
				t.Error("failed pass returned a result")
			}
			if p.State() != PassFailed {
				t.Errorf("state %v, want failed", p.State())
			}
		})
	}
	if n := liveBufferSets.Load(); n != before {
		t.Errorf("%d buffer sets live after failed passes, want %d", n, before)
	}
}

func TestPassStateString(t *testing.T) {
	if PassOccluded.String() != "occluded" || PassState(42).String() != "PassState(42)" {
		t.Errorf("got %s and %s", PassOccluded, PassState(42))
	}
}

func TestPassShading(t *testing.T) {
	// Moving a tall tower next to a small building can only lower the
	// small building's irradiance.
	cfg := testConfig(t)
	cfg.CacheDir = ""
	weather := clearSky(cfg)

	run := func(fps ...Footprint) BuildingResult {
		s := new(Site)
		if err := s.AddBuildings(&FootprintSource{Footprints: fps, Origin: orb.Point{}}); err != nil {
			t.Fatal(err)
		}
		res, err := NewPass(cfg).Run(context.Background(), s, weather)
		if err != nil {
			t.Fatal(err)
		}
		return res.Buildings[0]
	}
	small := squareFootprint(0, 0, 0, 6, 6, 3)
	alone := run(small)
	shaded := run(small,
		squareFootprint(1, -12, -12, 10, 30, 60),
		squareFootprint(2, 8, -12, 10, 30, 60),
		squareFootprint(3, -2, 8, 10, 10, 60),
		squareFootprint(4, -2, -12, 10, 10, 60),
	)
	for fi := range alone.Faces {
		if shaded.Faces[fi].Irradiance > alone.Faces[fi].Irradiance+1e-9 {
			t.Errorf("face %d: %v shaded > %v alone", fi, shaded.Faces[fi].Irradiance, alone.Faces[fi].Irradiance)
		}
	}
	if shaded.Faces[0].Direct >= alone.Faces[0].Direct {
		t.Errorf("roof direct %v with towers, %v alone", shaded.Faces[0].Direct, alone.Faces[0].Direct)
	}
}
