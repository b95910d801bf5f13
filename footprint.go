package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aclements/bipv/log"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var geomLogger = log.New("geometry")

// ReadFootprints reads building footprints from a shapefile (.shp) or a
// GeoJSON feature collection (.geojson, .json). heightField names the
// attribute holding the building height in meters.
func ReadFootprints(path, heightField string) ([]Footprint, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return ReadShapefileFootprints(path, heightField)
	case ".geojson", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		fps, err := ReadGeoJSONFootprints(f, heightField)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return fps, nil
	}
	return nil, fmt.Errorf("%s: unknown footprint format %q", path, filepath.Ext(path))
}

// ReadShapefileFootprints reads the polygons of a shapefile. Each
// exterior ring (clockwise, per the shapefile convention) becomes one
// footprint; holes are dropped. Footprints are numbered in file order.
func ReadShapefileFootprints(path, heightField string) ([]Footprint, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	field := -1
	for i, f := range r.Fields() {
		if strings.EqualFold(f.String(), heightField) {
			field = i
			break
		}
	}
	if field < 0 {
		return nil, fmt.Errorf("%s: no attribute %q", path, heightField)
	}

	var fps []Footprint
	for r.Next() {
		row, shape := r.Shape()
		var points []shp.Point
		var parts []int32
		switch s := shape.(type) {
		case *shp.Polygon:
			points, parts = s.Points, s.Parts
		case *shp.PolygonZ:
			points, parts = s.Points, s.Parts
		case *shp.PolygonM:
			points, parts = s.Points, s.Parts
		default:
			geomLogger.Debugf("%s: skipping non-polygon shape %d (%T)", path, row, shape)
			continue
		}
		attr := r.ReadAttribute(row, field)
		height, err := parseHeight(attr)
		if err != nil {
			geomLogger.Warningf("%s: shape %d: %v", path, row, err)
			continue
		}
		for _, ring := range splitParts(points, parts) {
			if ring.Orientation() != orb.CW {
				continue
			}
			fps = append(fps, Footprint{ID: len(fps), Ring: ring, Height: height})
		}
	}
	geomLogger.Infof("read %d footprints from %s", len(fps), path)
	return fps, nil
}

func splitParts(points []shp.Point, parts []int32) []orb.Ring {
	rings := make([]orb.Ring, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		ring := make(orb.Ring, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}

// ReadGeoJSONFootprints reads the Polygon and MultiPolygon features of a
// GeoJSON feature collection. Only exterior rings are used.
func ReadGeoJSONFootprints(r io.Reader, heightField string) ([]Footprint, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	var fps []Footprint
	for i, f := range fc.Features {
		height, err := featureHeight(f, heightField)
		if err != nil {
			geomLogger.Warningf("feature %d: %v", i, err)
			continue
		}
		var polys []orb.Polygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polys = []orb.Polygon{g}
		case orb.MultiPolygon:
			polys = g
		case nil:
			geomLogger.Debugf("skipping feature %d without geometry", i)
			continue
		default:
			geomLogger.Debugf("skipping feature %d with geometry %s", i, g.GeoJSONType())
			continue
		}
		for _, p := range polys {
			if len(p) == 0 {
				continue
			}
			fps = append(fps, Footprint{ID: len(fps), Ring: p[0].Clone(), Height: height})
		}
	}
	return fps, nil
}

func featureHeight(f *geojson.Feature, field string) (float64, error) {
	v, ok := f.Properties[field]
	if !ok {
		return 0, fmt.Errorf("no %q property", field)
	}
	switch h := v.(type) {
	case float64:
		return h, nil
	case string:
		return parseHeight(h)
	}
	return 0, fmt.Errorf("%q property has type %T", field, v)
}

func parseHeight(s string) (float64, error) {
	s = strings.Trim(s, " \x00")
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad height %q: %w", s, err)
	}
	return h, nil
}
