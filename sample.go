package main

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// FaceMeta describes the sample points of one face. Points of a face are
// contiguous and faces appear in building order.
type FaceMeta struct {
	Points   int
	Area     float64
	Vertical bool

	// Width and Normal are set only for vertical faces. The face's
	// points form a Width × Points/Width grid, column by column.
	Width  int
	Normal r3.Vec
}

// Height returns the number of grid rows of a vertical face.
func (f *FaceMeta) Height() int {
	if f.Width == 0 {
		return 0
	}
	return f.Points / f.Width
}

// BuildingMeta locates a building's sample points in SampleSet.Points.
type BuildingMeta struct {
	ID         int
	Start, End int // [Start, End)
	Faces      []FaceMeta
}

type SampleSet struct {
	Points    []r3.Vec
	Buildings []BuildingMeta
}

// SamplePoints samples every face of every building: roofs by
// SampleTriangles and walls by SampleRectangle.
func SamplePoints(buildings []*Building) *SampleSet {
	s := new(SampleSet)
	for _, b := range buildings {
		bm := BuildingMeta{ID: b.ID, Start: len(s.Points)}
		add := func(pts []r3.Vec, fm FaceMeta) {
			fm.Points = len(pts)
			s.Points = append(s.Points, pts...)
			bm.Faces = append(bm.Faces, fm)
		}

		roof := b.Roof()
		pts, area := SampleTriangles(roof.Verts, roof.Tris)
		add(pts, FaceMeta{Area: area})
		for _, w := range b.Walls() {
			pts, area, width, normal := SampleRectangle(w.Verts)
			add(pts, FaceMeta{Area: area, Vertical: true, Width: width, Normal: normal})
		}

		bm.End = len(s.Points)
		s.Buildings = append(s.Buildings, bm)
	}
	return s
}

// SampleTriangles places points on a barycentric lattice over each
// triangle. A triangle of area A gets n = ceil(sqrt(A)) subdivisions,
// shrunk toward its centroid so that no point lies on an edge. It
// returns the points and the total area.
func SampleTriangles(verts []r3.Vec, tris []Triangle) (pts []r3.Vec, area float64) {
	for _, t := range tris {
		a, b, c := verts[t.A], verts[t.B], verts[t.C]
		triArea := r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a))) / 2
		area += triArea
		n := int(math.Ceil(math.Sqrt(triArea)))
		if n == 0 {
			continue
		}
		eps := 1 - 1/float64(n)
		for i := 0; i <= n; i++ {
			for j := 0; j <= n-i; j++ {
				u := float64(i)/float64(n)*eps + (1-eps)/3
				v := float64(j)/float64(n)*eps + (1-eps)/3
				w := 1 - u - v
				pts = append(pts, r3.Add(r3.Add(r3.Scale(u, a), r3.Scale(v, b)), r3.Scale(w, c)))
			}
		}
	}
	return pts, area
}

// SampleRectangle places a grid of points at unit spacing centered on the
// rectangle {v0, v1, v2, v3}, where v0→v1 is the horizontal edge and
// v0→v2 the vertical one. Point i*height+j is at column i, row j.
func SampleRectangle(verts []r3.Vec) (pts []r3.Vec, area float64, width int, normal r3.Vec) {
	first := verts[0]
	hor := r3.Sub(verts[1], first)
	ver := r3.Sub(verts[2], first)
	horLen, verLen := r3.Norm(hor), r3.Norm(ver)

	area = horLen * verLen
	width = int(math.Ceil(horLen))
	height := int(math.Ceil(verLen))
	if c := r3.Cross(hor, ver); r3.Norm(c) > 0 {
		normal = r3.Unit(c)
	}
	if width == 0 || height == 0 {
		return nil, area, 0, normal
	}

	horDir, verDir := r3.Unit(hor), r3.Unit(ver)
	offset := r3.Add(
		r3.Sub(hor, r3.Scale(float64(width-1), horDir)),
		r3.Sub(ver, r3.Scale(float64(height-1), verDir)),
	)
	first = r3.Add(first, r3.Scale(0.5, offset))

	pts = make([]r3.Vec, 0, width*height)
	for i := 0; i < width; i++ {
		for j := 0; j < height; j++ {
			pts = append(pts, r3.Add(first, r3.Add(r3.Scale(float64(i), horDir), r3.Scale(float64(j), verDir))))
		}
	}
	return pts, area, width, normal
}
