package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

const footprintsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"height": 12},
     "geometry": {"type": "Polygon", "coordinates": [
       [[0, 0], [0, 10], [10, 10], [10, 0], [0, 0]],
       [[2, 2], [4, 2], [4, 4], [2, 4], [2, 2]]]}},
    {"type": "Feature", "properties": {"height": "7.5"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[20, 0], [20, 5], [25, 5], [25, 0], [20, 0]]],
       [[[30, 0], [30, 5], [35, 5], [35, 0], [30, 0]]]]}},
    {"type": "Feature", "properties": {"height": 3},
     "geometry": {"type": "Point", "coordinates": [1, 2]}},
    {"type": "Feature", "properties": {"levels": 3},
     "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [0, 1], [1, 1], [0, 0]]]}},
    {"type": "Feature", "properties": {"height": 4}, "geometry": null}
  ]
}`

func TestReadGeoJSONFootprints(t *testing.T) {
	fps, err := ReadGeoJSONFootprints(strings.NewReader(footprintsGeoJSON), "height")
	if err != nil {
		t.Fatal(err)
	}
	if len(fps) != 3 {
		t.Fatalf("got %d footprints, want 3", len(fps))
	}
	for i, want := range []struct {
		id     int
		height float64
		first  orb.Point
	}{
		{0, 12, orb.Point{0, 0}},
		{1, 7.5, orb.Point{20, 0}},
		{2, 7.5, orb.Point{30, 0}},
	} {
		fp := fps[i]
		if fp.ID != want.id || fp.Height != want.height || fp.Ring[0] != want.first {
			t.Errorf("footprint %d = ID %d height %v first %v; want %d %v %v",
				i, fp.ID, fp.Height, fp.Ring[0], want.id, want.height, want.first)
		}
	}
	// Holes are dropped.
	if len(fps[0].Ring) != 5 {
		t.Errorf("first footprint has %d points, want the 5-point exterior ring", len(fps[0].Ring))
	}
}

func TestReadGeoJSONFootprintsBad(t *testing.T) {
	if _, err := ReadGeoJSONFootprints(strings.NewReader(`{"type": "FeatureCollection", "features": [`), "height"); err == nil {
		t.Error("truncated GeoJSON parsed without error")
	}
}

func TestFeatureHeight(t *testing.T) {
	fps, err := ReadGeoJSONFootprints(strings.NewReader(`{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "properties": {"height": " 9 "}, "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [0, 1], [1, 1], [0, 0]]]}},
	  {"type": "Feature", "properties": {"height": "tall"}, "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [0, 1], [1, 1], [0, 0]]]}},
	  {"type": "Feature", "properties": {"height": true}, "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [0, 1], [1, 1], [0, 0]]]}}
	]}`), "height")
	if err != nil {
		t.Fatal(err)
	}
	if len(fps) != 1 || fps[0].Height != 9 {
		t.Errorf("got %+v, want one footprint of height 9", fps)
	}
}

func writeShapefile(t *testing.T, path string, polys [][][]shp.Point, heights []float64) {
	t.Helper()
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	fields := []shp.Field{
		shp.StringField("NAME", 16),
		shp.FloatField("Height", 10, 2),
	}
	if err := w.SetFields(fields); err != nil {
		t.Fatal(err)
	}
	for i, parts := range polys {
		row := w.Write((*shp.Polygon)(shp.NewPolyLine(parts)))
		if err := w.WriteAttribute(int(row), 0, "b"); err != nil {
			t.Fatal(err)
		}
		if err := w.WriteAttribute(int(row), 1, heights[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func shpRing(x, y, w, d float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + d}, {X: x + w, Y: y + d}, {X: x + w, Y: y}, {X: x, Y: y}}
}

func TestReadShapefileFootprints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings.shp")
	hole := []shp.Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}}
	writeShapefile(t, path, [][][]shp.Point{
		{shpRing(0, 0, 10, 10), hole},
		{shpRing(20, 0, 5, 5), shpRing(30, 0, 5, 5)},
	}, []float64{12.5, 6})

	// The height attribute matches regardless of case.
	fps, err := ReadFootprints(path, "height")
	if err != nil {
		t.Fatal(err)
	}
	if len(fps) != 3 {
		t.Fatalf("got %d footprints, want 3", len(fps))
	}
	for i, want := range []struct {
		id     int
		height float64
		first  orb.Point
	}{
		{0, 12.5, orb.Point{0, 0}},
		{1, 6, orb.Point{20, 0}},
		{2, 6, orb.Point{30, 0}},
	} {
		fp := fps[i]
		if fp.ID != want.id || fp.Height != want.height || fp.Ring[0] != want.first {
			t.Errorf("footprint %d = ID %d height %v first %v; want %d %v %v",
				i, fp.ID, fp.Height, fp.Ring[0], want.id, want.height, want.first)
		}
	}

	// Extruding shapefile footprints gives valid buildings.
	bs, err := (&FootprintSource{Footprints: fps}).Buildings()
	if err != nil || len(bs) != 3 {
		t.Errorf("extruded %d buildings, %v", len(bs), err)
	}

	if _, err := ReadFootprints(path, "floors"); err == nil {
		t.Error("missing height attribute accepted")
	}
}

func TestReadFootprintsFormat(t *testing.T) {
	dir := t.TempDir()
	gj := filepath.Join(dir, "site.GeoJSON")
	if err := os.WriteFile(gj, []byte(footprintsGeoJSON), 0o666); err != nil {
		t.Fatal(err)
	}
	if fps, err := ReadFootprints(gj, "height"); err != nil || len(fps) != 3 {
		t.Errorf("ReadFootprints(%s) = %d footprints, %v", gj, len(fps), err)
	}
	if _, err := ReadFootprints(filepath.Join(dir, "site.kml"), "height"); err == nil {
		t.Error("unknown format accepted")
	}
	if _, err := ReadFootprints(filepath.Join(dir, "missing.geojson"), "height"); err == nil {
		t.Error("missing file accepted")
	}
}
