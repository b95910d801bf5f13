package main

import (
	"fmt"

	"github.com/aclements/bipv/log"
)

var siteLogger = log.New("site")

// A Site is the scene of one estimation: the buildings whose faces are
// sampled and any obstacle layers that only cast shadows.
//
// The coordinate system is as follows:
//
//	Y/up
//	|  Z/north
//	| /
//	|/____ X/east
type Site struct {
	Buildings []*Building

	layers []*obstacleLayer
}

type obstacleLayer struct {
	path string
	mesh *Mesh
}

// LoadSite reads the footprints and obstacle layers named by cfg.
func LoadSite(cfg *Config) (*Site, error) {
	s := new(Site)
	if cfg.Footprints == "" {
		return nil, fmt.Errorf("no footprint file given")
	}
	fps, err := ReadFootprints(cfg.Footprints, cfg.HeightField)
	if err != nil {
		return nil, err
	}
	if err := s.AddBuildings(&FootprintSource{Footprints: fps, Origin: cfg.Origin}); err != nil {
		return nil, err
	}
	for _, path := range cfg.Obstacles {
		if err := s.AddObstacles(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddBuildings adds the buildings of src to the site.
func (s *Site) AddBuildings(src GeometrySource) error {
	bs, err := src.Buildings()
	if err != nil {
		return err
	}
	s.Buildings = append(s.Buildings, bs...)
	siteLogger.Infof("added %d buildings", len(bs))
	return nil
}

// AddObstacles adds the STL mesh at stlPath as an obstacle layer.
func (s *Site) AddObstacles(stlPath string) error {
	mesh, err := ReadSTLFile(stlPath)
	if err != nil {
		return err
	}
	return s.addLayer(stlPath, mesh)
}

func (s *Site) addLayer(path string, mesh *Mesh) error {
	for i, t := range mesh.Tris {
		if t.A >= len(mesh.Verts) || t.B >= len(mesh.Verts) || t.C >= len(mesh.Verts) {
			return fmt.Errorf("%s: triangle %d refers to a missing vertex", path, i)
		}
	}
	s.layers = append(s.layers, &obstacleLayer{path, mesh})
	siteLogger.Infof("added obstacle layer %s: %d triangles", path, len(mesh.Tris))
	return nil
}

// Scene returns every building and obstacle triangle as one mesh.
func (s *Site) Scene() *Mesh {
	var obstacles []*Mesh
	for _, l := range s.layers {
		obstacles = append(obstacles, l.mesh)
	}
	return SceneMesh(s.Buildings, obstacles)
}

// LoadWeather reads cfg.Weather, or synthesizes clear-sky weather at the
// site when no weather file is configured.
func LoadWeather(cfg *Config) (Weather, error) {
	if cfg.Weather != "" {
		return ReadEPWFile(cfg.Weather)
	}
	siteLogger.Notice("no weather file; using clear-sky model")
	return ClearSkyWeather(cfg.Year, cfg.Latitude*rad2deg, cfg.Longitude*rad2deg, cfg.Elevation), nil
}
