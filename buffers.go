package main

import (
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"
)

// liveBufferSets counts buffer sets that have not been released.
var liveBufferSets atomic.Int32

// bufferSet holds the packed scene and sample data read by a
// PointEvaluator during one pass.
type bufferSet struct {
	// Triangles in BVH order, with vertices resolved.
	Triangles []r3.Triangle

	// BVH node storage, in the same layout as BVH.Nodes.
	Nodes []Node
	Depth int

	// Sample points.
	Points []r3.Vec

	// Ray extent for occlusion tests.
	Near, Far float64
}

// Pack the BVH and the sample points into a new buffer set. The caller
// must call release when done with it.
func newBufferSet(bvh *BVH, points []r3.Vec, epsilon float64) *bufferSet {
	bs := &bufferSet{
		Triangles: make([]r3.Triangle, len(bvh.Tris)),
		Nodes:     append([]Node(nil), bvh.Nodes...),
		Depth:     bvh.Depth,
		Points:    append([]r3.Vec(nil), points...),
		Near:      epsilon,
		Far:       bvh.Bounds().Diagonal(),
	}
	for i := range bvh.Tris {
		bs.Triangles[i] = bvh.Triangle(i)
	}
	liveBufferSets.Add(1)
	return bs
}

func (bs *bufferSet) isLeaf(idx int) bool {
	return idx >= len(bs.Nodes)/2
}

// release drops all buffers. It is safe to call more than once.
func (bs *bufferSet) release() {
	if bs.Nodes == nil {
		return
	}
	bs.Triangles = nil
	bs.Nodes = nil
	bs.Points = nil
	liveBufferSets.Add(-1)
}
