package main

import (
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"
)

// A Face is one planar surface of a building.
//
// The roof's Verts are the footprint ring at roof height and Tris is its
// triangulation. A wall's Verts are the quad {top_i, top_i+1, bottom_i,
// bottom_i+1}; its Tris split the quad in two.
type Face struct {
	Verts []r3.Vec
	Tris  []Triangle
}

// A Building is a footprint extruded to a flat roof. Faces[0] is the
// roof and Faces[i] for i >= 1 is the wall below footprint edge i-1.
type Building struct {
	ID        int // Index of the footprint
	Height    float64
	Footprint orb.Ring // Counter-clockwise, open, in source coordinates
	Faces     []*Face
}

// Roof returns the roof face of b.
func (b *Building) Roof() *Face {
	return b.Faces[0]
}

// Walls returns the wall faces of b. Wall i spans footprint edge i.
func (b *Building) Walls() []*Face {
	return b.Faces[1:]
}

// Mesh returns all faces of b as one mesh.
func (b *Building) Mesh() *Mesh {
	m := new(Mesh)
	for _, f := range b.Faces {
		m.Append(&Mesh{Verts: f.Verts, Tris: f.Tris})
	}
	return m
}

// A GeometrySource supplies buildings in a single world frame.
type GeometrySource interface {
	Buildings() ([]*Building, error)
}

// A Footprint is a building outline in projected planar coordinates
// (easting, northing) with the building height.
type Footprint struct {
	ID     int
	Ring   orb.Ring
	Height float64
}

// FootprintSource extrudes footprints into buildings. Origin is
// subtracted from footprint coordinates so that world coordinates stay
// small.
type FootprintSource struct {
	Footprints []Footprint
	Origin     orb.Point
}

func (s *FootprintSource) Buildings() ([]*Building, error) {
	var out []*Building
	for _, fp := range s.Footprints {
		b, err := Extrude(fp, s.Origin)
		if err != nil {
			geomLogger.Warningf("skipping footprint %d: %v", fp.ID, err)
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 && len(s.Footprints) > 0 {
		return nil, fmt.Errorf("none of %d footprints could be extruded", len(s.Footprints))
	}
	return out, nil
}

// Extrude builds the roof and walls of fp. Walls run from the roof down
// to Y = 0.
func Extrude(fp Footprint, origin orb.Point) (*Building, error) {
	if fp.Height <= 0 {
		return nil, fmt.Errorf("%w: height %v", ErrDegenerateFootprint, fp.Height)
	}
	ring := cleanRing(fp.Ring)
	if len(ring) < 3 {
		return nil, fmt.Errorf("%w: %d distinct vertices", ErrDegenerateFootprint, len(ring))
	}
	switch ring.Orientation() {
	case orb.CW:
		ring.Reverse()
	case 0:
		return nil, fmt.Errorf("%w: zero area", ErrDegenerateFootprint)
	}

	top := make([]r3.Vec, len(ring))
	for i, p := range ring {
		top[i] = r3.Vec{X: p[0] - origin[0], Y: fp.Height, Z: p[1] - origin[1]}
	}
	roofTris, err := Triangulate(top)
	if err != nil {
		return nil, err
	}

	b := &Building{ID: fp.ID, Height: fp.Height, Footprint: ring}
	b.Faces = append(b.Faces, &Face{Verts: top, Tris: roofTris})
	for i := range top {
		a, c := top[i], top[(i+1)%len(top)]
		b.Faces = append(b.Faces, &Face{
			Verts: []r3.Vec{a, c, {X: a.X, Z: a.Z}, {X: c.X, Z: c.Z}},
			Tris:  []Triangle{{0, 1, 2}, {1, 3, 2}},
		})
	}
	return b, nil
}

// cleanRing returns ring without its closing point, repeated points, or
// vertices collinear with their neighbors.
func cleanRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	for changed := true; changed && len(out) >= 3; {
		changed = false
		for i := 0; i < len(out); i++ {
			a, b, c := out[(i-1+len(out))%len(out)], out[i], out[(i+1)%len(out)]
			if (b[0]-a[0])*(c[1]-a[1])-(b[1]-a[1])*(c[0]-a[0]) == 0 {
				out = append(out[:i], out[i+1:]...)
				changed = true
				break
			}
		}
	}
	return out
}

// SceneMesh merges every building and obstacle layer into one mesh for
// the BVH.
func SceneMesh(buildings []*Building, obstacles []*Mesh) *Mesh {
	m := new(Mesh)
	for _, b := range buildings {
		m.Append(b.Mesh())
	}
	for _, o := range obstacles {
		m.Append(o)
	}
	return m
}
