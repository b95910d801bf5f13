package main

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aclements/bipv/log"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	MinDepth = 1
	MaxDepth = 16
)

var ErrBadDepth = errors.New("bvh depth out of range")

var bvhLogger = log.New("bvh")

// A Triangle is three indexes into a vertex buffer.
type Triangle struct {
	A, B, C int
}

// Box is an axis-aligned bounding box. Unlike r3.Box, a Box with zero
// extent along an axis is not empty; a flat roof still has a box. The
// empty box has Min = +Inf and Max = -Inf so that fitting any point
// yields that point.
type Box struct {
	Min, Max r3.Vec
}

func emptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

func (b Box) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

func (b Box) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

func (b Box) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Diagonal returns the length of the box diagonal, or 0 for an empty box.
func (b Box) Diagonal() float64 {
	if b.Empty() {
		return 0
	}
	return r3.Norm(b.Size())
}

func (b *Box) fit(v r3.Vec) {
	b.Min = r3.Vec{X: math.Min(b.Min.X, v.X), Y: math.Min(b.Min.Y, v.Y), Z: math.Min(b.Min.Z, v.Z)}
	b.Max = r3.Vec{X: math.Max(b.Max.X, v.X), Y: math.Max(b.Max.Y, v.Y), Z: math.Max(b.Max.Z, v.Z)}
}

func (b *Box) fitTriangle(t r3.Triangle) {
	b.fit(t[0])
	b.fit(t[1])
	b.fit(t[2])
}

// Contains reports whether o lies entirely within b. Every box contains
// the empty box.
func (b Box) Contains(o Box) bool {
	if o.Empty() {
		return true
	}
	return b.containsPoint(o.Min) && b.containsPoint(o.Max)
}

func (b Box) containsPoint(v r3.Vec) bool {
	return b.Min.X <= v.X && v.X <= b.Max.X &&
		b.Min.Y <= v.Y && v.Y <= b.Max.Y &&
		b.Min.Z <= v.Z && v.Z <= b.Max.Z
}

// A Node of the BVH. Every node records the range of triangles below it;
// only leaves are tested against rays.
type Node struct {
	Box
	Start, Count int
}

// BVH is a fixed-depth bounding volume hierarchy over a triangle mesh.
//
// Nodes are stored as a complete binary tree in a flat array: index 0 is
// unused, 1 is the root, and the children of node i are 2i and 2i+1. A
// node is a leaf iff its index is at least len(Nodes)/2.
type BVH struct {
	Verts []r3.Vec
	Tris  []Triangle
	Nodes []Node
	Depth int
}

// BuildBVH builds a BVH of the given depth over tris. tris is reordered
// in place and retained by the BVH.
//
// Nodes are split at the center of their longest axis, without regard to
// how many triangles land on either side. Clustered geometry can therefore
// produce empty or very unbalanced leaves.
func BuildBVH(verts []r3.Vec, tris []Triangle, depth int) (*BVH, error) {
	if depth < MinDepth || depth > MaxDepth {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrBadDepth, depth, MinDepth, MaxDepth)
	}
	for i, t := range tris {
		for _, idx := range [3]int{t.A, t.B, t.C} {
			if idx < 0 || idx >= len(verts) {
				return nil, fmt.Errorf("triangle %d: vertex index %d out of range [0, %d)", i, idx, len(verts))
			}
		}
	}

	b := &BVH{
		Verts: verts,
		Tris:  tris,
		Nodes: make([]Node, 1<<depth),
		Depth: depth,
	}

	start := time.Now()
	root := &b.Nodes[1]
	root.Box = emptyBox()
	for _, v := range verts {
		root.fit(v)
	}
	root.Start, root.Count = 0, len(tris)
	b.split(1, depth)

	st := b.Stats()
	bvhLogger.Debugf("built bvh in %v: depth %d, %d triangles, %d leaves (%d empty), max leaf %d",
		time.Since(start), depth, len(tris), st.Leaves, st.EmptyLeaves, st.MaxLeaf)
	return b, nil
}

// split partitions node idx into its two children and recurses until
// height reaches 1.
func (b *BVH) split(idx, height int) {
	if height <= 1 {
		return
	}
	node := b.Nodes[idx]
	childA, childB := &b.Nodes[2*idx], &b.Nodes[2*idx+1]
	childA.Box, childB.Box = emptyBox(), emptyBox()

	partition := node.Start - 1
	if node.Count > 0 {
		axis := splitAxis(node.Size())
		center := component(node.Center(), axis)
		for i := node.Start; i < node.Start+node.Count; i++ {
			tri := b.Triangle(i)
			if component(tri.Centroid(), axis) <= center {
				childA.fitTriangle(tri)
				partition++
				b.Tris[i], b.Tris[partition] = b.Tris[partition], b.Tris[i]
			} else {
				childB.fitTriangle(tri)
			}
		}
	}

	childA.Start = node.Start
	childA.Count = partition + 1 - node.Start
	childB.Start = node.Start + childA.Count
	childB.Count = node.Count - childA.Count

	b.split(2*idx, height-1)
	b.split(2*idx+1, height-1)
}

// splitAxis returns the axis along which size is largest. X wins only if
// it is strictly largest; otherwise Y wins over Z only if strictly larger.
func splitAxis(size r3.Vec) int {
	if size.X > math.Max(size.Y, size.Z) {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// Triangle returns the vertices of triangle i in the BVH's current order.
func (b *BVH) Triangle(i int) r3.Triangle {
	t := b.Tris[i]
	return r3.Triangle{b.Verts[t.A], b.Verts[t.B], b.Verts[t.C]}
}

func (b *BVH) IsLeaf(idx int) bool {
	return idx >= len(b.Nodes)/2
}

// Bounds returns the root box.
func (b *BVH) Bounds() Box {
	return b.Nodes[1].Box
}

type BVHStats struct {
	Nodes       int
	Leaves      int
	EmptyLeaves int
	MaxLeaf     int
}

func (b *BVH) Stats() BVHStats {
	st := BVHStats{Nodes: len(b.Nodes) - 1}
	for i := len(b.Nodes) / 2; i < len(b.Nodes); i++ {
		st.Leaves++
		n := b.Nodes[i].Count
		if n == 0 {
			st.EmptyLeaves++
		}
		if n > st.MaxLeaf {
			st.MaxLeaf = n
		}
	}
	return st
}

// Check verifies the structural invariants of the tree: array size,
// triangle count conservation, contiguous child ranges, box containment
// and that leaf ranges partition the triangle buffer.
func (b *BVH) Check() error {
	if len(b.Nodes) != 1<<b.Depth {
		return fmt.Errorf("node array has %d slots, want %d", len(b.Nodes), 1<<b.Depth)
	}
	root := b.Nodes[1]
	if root.Start != 0 || root.Count != len(b.Tris) {
		return fmt.Errorf("root covers [%d, %d), want [0, %d)", root.Start, root.Start+root.Count, len(b.Tris))
	}
	half := len(b.Nodes) / 2
	for i := 1; i < half; i++ {
		n, a, c := b.Nodes[i], b.Nodes[2*i], b.Nodes[2*i+1]
		if a.Count+c.Count != n.Count {
			return fmt.Errorf("node %d: children hold %d+%d triangles, want %d", i, a.Count, c.Count, n.Count)
		}
		if a.Start != n.Start || c.Start != a.Start+a.Count {
			return fmt.Errorf("node %d: child ranges [%d,+%d) [%d,+%d) not contiguous from %d", i, a.Start, a.Count, c.Start, c.Count, n.Start)
		}
		if !n.Contains(a.Box) || !n.Contains(c.Box) {
			return fmt.Errorf("node %d: box does not contain its children", i)
		}
	}
	next := 0
	for i := half; i < len(b.Nodes); i++ {
		leaf := b.Nodes[i]
		if leaf.Start != next {
			return fmt.Errorf("leaf %d starts at %d, want %d", i, leaf.Start, next)
		}
		for t := leaf.Start; t < leaf.Start+leaf.Count; t++ {
			tb := emptyBox()
			tb.fitTriangle(b.Triangle(t))
			if !leaf.Contains(tb) {
				return fmt.Errorf("leaf %d: triangle %d outside leaf box", i, t)
			}
		}
		next += leaf.Count
	}
	if next != len(b.Tris) {
		return fmt.Errorf("leaves cover %d triangles, want %d", next, len(b.Tris))
	}
	return nil
}
