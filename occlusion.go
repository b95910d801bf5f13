package main

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/aclements/bipv/log"
	"gonum.org/v1/gonum/spatial/r3"
)

var occlusionLogger = log.New("occlusion")

// A PointEvaluator computes, for every sample point in buf, whether the
// point is shaded from a sun shining along sunDir. out[i] is set to 1 if
// point i is blocked and 0 otherwise; len(out) == len(buf.Points).
type PointEvaluator interface {
	Evaluate(ctx context.Context, buf *bufferSet, sunDir r3.Vec, out []uint32) error
}

// CPUEvaluator evaluates points on a pool of goroutines. Each goroutine
// handles a contiguous chunk of points and writes only its own slots of
// out.
type CPUEvaluator struct {
	Workers int // <= 0 means runtime.NumCPU()
}

func (e *CPUEvaluator) workers(n int) int {
	w := e.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

func (e *CPUEvaluator) Evaluate(ctx context.Context, buf *bufferSet, sunDir r3.Vec, out []uint32) error {
	if len(out) != len(buf.Points) {
		return fmt.Errorf("output has %d slots for %d points", len(out), len(buf.Points))
	}
	toSun := r3.Scale(-1, sunDir)

	n := len(buf.Points)
	workers := e.workers(n)
	per, rem := n/workers, n%workers

	var wg sync.WaitGroup
	wg.Add(workers)
	start := 0
	for w := 0; w < workers; w++ {
		// The first rem workers take one extra point.
		count := per
		if w < rem {
			count++
		}
		go func(lo, hi int) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			stack := make([]int, buf.Depth)
			for i := lo; i < hi; i++ {
				r := Ray{Origin: buf.Points[i], Dir: toSun}
				out[i] = 0
				if buf.occluded(&r, stack) {
					out[i] = 1
				}
			}
		}(start, start+count)
		start += count
	}
	wg.Wait()
	return ctx.Err()
}

// occluded is BVH.Occluded over packed buffers, using a caller-supplied
// stack of at least Depth slots.
func (bs *bufferSet) occluded(r *Ray, stack []int) bool {
	stack[0] = 1
	top := 0
	for top >= 0 {
		idx := stack[top]
		top--
		node := &bs.Nodes[idx]
		if !intersectSlabs(r.Origin, r.Dir, &node.Box, bs.Near, bs.Far) {
			continue
		}
		if bs.isLeaf(idx) {
			for i := node.Start; i < node.Start+node.Count; i++ {
				if _, hit := r.IntersectTriangle(&bs.Triangles[i], bs.Near, bs.Far); hit {
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

// OcclusionEngine runs a PointEvaluator once per sun direction.
type OcclusionEngine struct {
	Evaluator PointEvaluator
}

// Run returns one occlusion array per entry of sunDirs. Hours are
// evaluated one after the other.
func (e *OcclusionEngine) Run(ctx context.Context, buf *bufferSet, sunDirs []r3.Vec) ([][]uint32, error) {
	ev := e.Evaluator
	if ev == nil {
		ev = new(CPUEvaluator)
	}
	occ := make([][]uint32, len(sunDirs))
	for h, dir := range sunDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		out := make([]uint32, len(buf.Points))
		if err := ev.Evaluate(ctx, buf, dir, out); err != nil {
			return nil, fmt.Errorf("hour %d: %w", h, err)
		}
		occ[h] = out
		blocked := 0
		for _, o := range out {
			blocked += int(o)
		}
		occlusionLogger.Debugf("hour %d: %d of %d points blocked (%v)", h, blocked, len(out), time.Since(start))
	}
	return occ, nil
}
