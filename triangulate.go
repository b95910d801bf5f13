package main

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var ErrDegenerateFootprint = errors.New("degenerate footprint")

// Triangulate triangulates a simple polygon lying in a horizontal plane
// by ear clipping. pts must be in counter-clockwise order seen from above
// (X east, Z north). Holes and shared edges are not supported.
func Triangulate(pts []r3.Vec) ([]Triangle, error) {
	if len(pts) < 3 {
		return nil, fmt.Errorf("%w: %d vertices", ErrDegenerateFootprint, len(pts))
	}
	remaining := make([]int, len(pts))
	for i := range remaining {
		remaining[i] = i
	}

	tris := make([]Triangle, 0, len(pts)-2)
	for len(remaining) > 3 {
		n := len(remaining)
		ear := -1
		for i := 0; i < n; i++ {
			prev, curr, next := remaining[(i-1+n)%n], remaining[i], remaining[(i+1)%n]
			if isEar(pts, prev, curr, next, remaining) {
				tris = append(tris, Triangle{prev, curr, next})
				ear = i
				break
			}
		}
		if ear < 0 {
			return nil, fmt.Errorf("%w: no ear among %d remaining vertices", ErrDegenerateFootprint, n)
		}
		remaining = append(remaining[:ear], remaining[ear+1:]...)
	}
	tris = append(tris, Triangle{remaining[0], remaining[1], remaining[2]})
	return tris, nil
}

func isEar(pts []r3.Vec, prev, curr, next int, remaining []int) bool {
	a, b, c := pts[prev], pts[curr], pts[next]
	if cross2(a, b, c) <= 0 {
		// Reflex or collinear.
		return false
	}
	for _, vi := range remaining {
		if vi == prev || vi == curr || vi == next {
			continue
		}
		if pointInTriangle(pts[vi], a, b, c) {
			return false
		}
	}
	return true
}

// cross2 is the Z component of (b-a)×(c-a) in the XZ plane. It is
// positive when a, b, c turn counter-clockwise.
func cross2(a, b, c r3.Vec) float64 {
	return (b.X-a.X)*(c.Z-a.Z) - (b.Z-a.Z)*(c.X-a.X)
}

// pointInTriangle reports whether p is inside or on the boundary of abc.
func pointInTriangle(p, a, b, c r3.Vec) bool {
	d1 := cross2(a, b, p)
	d2 := cross2(b, c, p)
	d3 := cross2(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
