package main

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// encodeSTL writes tris as a binary STL, in the file's Z-up frame.
func encodeSTL(header string, tris [][3][3]float32) []byte {
	var buf bytes.Buffer
	var h [80]byte
	copy(h[:], header)
	buf.Write(h[:])
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, tri := range tris {
		var rec [12]float32
		for v := 0; v < 3; v++ {
			copy(rec[3+3*v:], tri[v][:])
		}
		for _, f := range rec {
			binary.Write(&buf, binary.LittleEndian, math.Float32bits(f))
		}
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestReadSTL(t *testing.T) {
	data := encodeSTL("tree", [][3][3]float32{
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 2}},
		{{1, 0, 0}, {0, 1, 2}, {1, 1, 2}},
	})
	m, err := ReadSTL(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if m.Header != "tree" {
		t.Errorf("header %q, want tree", m.Header)
	}
	if len(m.Tris) != 2 {
		t.Fatalf("got %d triangles, want 2", len(m.Tris))
	}
	// Shared vertices are merged.
	if len(m.Verts) != 4 {
		t.Errorf("got %d vertices, want 4", len(m.Verts))
	}
	if m.Tris[0].B != m.Tris[1].A || m.Tris[0].C != m.Tris[1].B {
		t.Errorf("triangles %v do not share vertices", m.Tris)
	}
	// File Z is world Y.
	if got, want := m.Verts[m.Tris[0].C], (r3.Vec{X: 0, Y: 2, Z: 1}); got != want {
		t.Errorf("vertex %v, want %v", got, want)
	}
}

func TestReadSTLTruncated(t *testing.T) {
	data := encodeSTL("", [][3][3]float32{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}})
	if _, err := ReadSTL(bytes.NewReader(data[:len(data)-10])); err == nil {
		t.Error("truncated triangle accepted")
	}
	if _, err := ReadSTL(bytes.NewReader(data[:40])); err == nil {
		t.Error("truncated header accepted")
	}
}

func TestSiteObstacles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.stl")
	// A 10×10 canopy 8 m up, east of the buildings, in STL's Z-up frame.
	data := encodeSTL("canopy", [][3][3]float32{
		{{30, 0, 8}, {40, 0, 8}, {40, 10, 8}},
		{{30, 0, 8}, {40, 10, 8}, {30, 10, 8}},
	})
	if err := os.WriteFile(path, data, 0o666); err != nil {
		t.Fatal(err)
	}
	s := testSite(t)
	n := len(s.Scene().Tris)
	if err := s.AddObstacles(path); err != nil {
		t.Fatal(err)
	}
	scene := s.Scene()
	if len(scene.Tris) != n+2 {
		t.Fatalf("scene has %d triangles, want %d", len(scene.Tris), n+2)
	}
	b, err := BuildBVH(scene.Verts, scene.Tris, 5)
	if err != nil {
		t.Fatal(err)
	}
	// Light from straight above is stopped by the canopy before it
	// reaches the ground.
	r := Ray{Origin: r3.Vec{X: 33.3, Y: 0, Z: 4.1}, Dir: r3.Vec{Y: 1}}
	if !b.Occluded(&r, 1e-3, 100) {
		t.Error("ground point under the canopy is not occluded")
	}

	if err := s.AddObstacles(filepath.Join(t.TempDir(), "missing.stl")); err == nil {
		t.Error("missing obstacle file accepted")
	}
	if err := s.addLayer("bad", &Mesh{Tris: []Triangle{{0, 1, 2}}}); err == nil {
		t.Error("obstacle with dangling indexes accepted")
	}
}

func TestLoadSite(t *testing.T) {
	dir := t.TempDir()
	fpPath := filepath.Join(dir, "site.geojson")
	if err := os.WriteFile(fpPath, []byte(footprintsGeoJSON), 0o666); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Footprints = fpPath
	cfg.Origin = [2]float64{}
	s, err := LoadSite(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Buildings) != 3 {
		t.Errorf("got %d buildings, want 3", len(s.Buildings))
	}

	cfg.Footprints = ""
	if _, err := LoadSite(cfg); err == nil {
		t.Error("site without footprints loaded")
	}
}

func TestLoadWeather(t *testing.T) {
	cfg := DefaultConfig()
	w, err := LoadWeather(cfg)
	if err != nil || len(w) != HoursPerYear {
		t.Fatalf("clear-sky weather: %d hours, %v", len(w), err)
	}

	cfg.Weather = filepath.Join(t.TempDir(), "site.epw")
	if err := os.WriteFile(cfg.Weather, []byte(epwHeader+epwLine(0, 1, 2, 3)), 0o666); err != nil {
		t.Fatal(err)
	}
	w, err = LoadWeather(cfg)
	if err != nil || len(w) != 1 {
		t.Errorf("EPW weather: %d hours, %v", len(w), err)
	}
}
