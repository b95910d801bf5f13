package main

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// parallelEpsilon is the smallest determinant magnitude for which a ray
// is not considered parallel to a triangle's plane.
const parallelEpsilon = 1e-6

type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec // Must be normalized
}

// IntersectTriangle returns the distance along r to tri, if r hits tri
// at a distance in [near, far].
func (r *Ray) IntersectTriangle(tri *r3.Triangle, near, far float64) (t float64, ok bool) {
	// Möller–Trumbore intersection, based on Wikipedia implementation
	// and the Scratchapixel implementation.
	edge1 := r3.Sub(tri[1], tri[0])
	edge2 := r3.Sub(tri[2], tri[0])
	h := r3.Cross(r.Dir, edge2)
	det := r3.Dot(edge1, h)
	// If the determinant is close to 0, the ray is parallel to the plane
	// of the triangle. Both faces of a triangle count as hits.
	if math.Abs(det) < parallelEpsilon {
		return 0, false
	}
	invDet := 1 / det
	s := r3.Sub(r.Origin, tri[0])
	u := invDet * r3.Dot(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(s, edge1)
	v := invDet * r3.Dot(r.Dir, q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	// t is the distance on the ray to the intersection point.
	t = invDet * r3.Dot(edge2, q)
	if t < near || t > far {
		return 0, false
	}
	return t, true
}

// IntersectBox reports whether the segment of r between near and far
// passes through b.
func (r *Ray) IntersectBox(b *Box, near, far float64) bool {
	return intersectSlabs(r.Origin, r.Dir, b, near, far)
}

func intersectSlabs(o, d r3.Vec, b *Box, near, far float64) bool {
	if b.Empty() {
		return false
	}
	tMin, tMax := near, far
	for axis := 0; axis < 3; axis++ {
		oa, da := component(o, axis), component(d, axis)
		lo, hi := component(b.Min, axis), component(b.Max, axis)
		if da == 0 {
			// Parallel to this slab: inside it or never.
			if oa < lo || oa > hi {
				return false
			}
			continue
		}
		t0 := (lo - oa) / da
		t1 := (hi - oa) / da
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}

// Along returns the point at distance t along r.
func (r *Ray) Along(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Dir))
}

// IntersectMesh tests r against every triangle of m and returns the
// closest hit in [near, far].
func (r *Ray) IntersectMesh(m *Mesh, near, far float64) (tri int, t float64, ok bool) {
	tri = -1
	for i, idxs := range m.Tris {
		tr := r3.Triangle{m.Verts[idxs.A], m.Verts[idxs.B], m.Verts[idxs.C]}
		tHit, hit := r.IntersectTriangle(&tr, near, far)
		if !hit {
			continue
		}
		if !ok || tHit < t {
			tri, t, ok = i, tHit, true
		}
	}
	return tri, t, ok
}

// Traverse returns the index (into b.Tris) of the closest triangle hit by
// r in [near, far].
func (b *BVH) Traverse(r *Ray, near, far float64) (tri int, t float64, ok bool) {
	tri = -1
	t = math.Inf(1)

	// Popping one node and pushing two never holds more than Depth
	// entries in a complete tree.
	stack := make([]int, b.Depth)
	stack[0] = 1
	top := 0
	for top >= 0 {
		idx := stack[top]
		top--
		node := &b.Nodes[idx]
		if !r.IntersectBox(&node.Box, near, far) {
			continue
		}
		if b.IsLeaf(idx) {
			for i := node.Start; i < node.Start+node.Count; i++ {
				tr := b.Triangle(i)
				if tHit, hit := r.IntersectTriangle(&tr, near, far); hit && tHit < t {
					tri, t, ok = i, tHit, true
				}
			}
			continue
		}
		stack[top+1] = 2 * idx
		stack[top+2] = 2*idx + 1
		top += 2
	}
	if !ok {
		return -1, 0, false
	}
	return tri, t, true
}

// Occluded reports whether r hits any triangle in [near, far]. It stops
// at the first hit.
func (b *BVH) Occluded(r *Ray, near, far float64) bool {
	stack := make([]int, b.Depth)
	stack[0] = 1
	top := 0
	for top >= 0 {
		idx := stack[top]
		top--
		node := &b.Nodes[idx]
		if !r.IntersectBox(&node.Box, near, far) {
			continue
		}
		if b.IsLeaf(idx) {
			for i := node.Start; i < node.Start+node.Count; i++ {
				tr := b.Triangle(i)
				if _, hit := r.IntersectTriangle(&tr, near, far); hit {
					return true
				}
			}
			continue
		}
		stack[top+1] = 2 * idx
		stack[top+2] = 2*idx + 1
		top += 2
	}
	return false
}
