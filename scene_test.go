package main

import (
	"math/rand"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"
)

// boxMesh returns the 12 triangles of the axis-aligned box [min, max].
func boxMesh(min, max r3.Vec) *Mesh {
	m := &Mesh{}
	for i := 0; i < 8; i++ {
		v := min
		if i&1 != 0 {
			v.X = max.X
		}
		if i&2 != 0 {
			v.Y = max.Y
		}
		if i&4 != 0 {
			v.Z = max.Z
		}
		m.Verts = append(m.Verts, v)
	}
	m.Tris = []Triangle{
		{0, 1, 3}, {0, 3, 2}, // Z = min
		{4, 6, 7}, {4, 7, 5}, // Z = max
		{0, 4, 5}, {0, 5, 1}, // Y = min
		{2, 3, 7}, {2, 7, 6}, // Y = max
		{0, 2, 6}, {0, 6, 4}, // X = min
		{1, 5, 7}, {1, 7, 3}, // X = max
	}
	return m
}

// randomMesh returns n small triangles scattered in [0, size)³.
func randomMesh(rng *rand.Rand, n int, size float64) *Mesh {
	m := &Mesh{}
	for i := 0; i < n; i++ {
		c := r3.Vec{X: rng.Float64() * size, Y: rng.Float64() * size, Z: rng.Float64() * size}
		base := len(m.Verts)
		for k := 0; k < 3; k++ {
			m.Verts = append(m.Verts, r3.Add(c, r3.Vec{
				X: rng.Float64()*4 - 2,
				Y: rng.Float64()*4 - 2,
				Z: rng.Float64()*4 - 2,
			}))
		}
		m.Tris = append(m.Tris, Triangle{base, base + 1, base + 2})
	}
	return m
}

// randomRay returns a ray starting in [0, size)³ with a random unit
// direction.
func randomRay(rng *rand.Rand, size float64) Ray {
	o := r3.Vec{X: rng.Float64() * size, Y: rng.Float64() * size, Z: rng.Float64() * size}
	d := r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
	return Ray{Origin: o, Dir: r3.Unit(d)}
}

// squareFootprint is a w × d rectangle with its south-west corner at
// (x, y), in clockwise order.
func squareFootprint(id int, x, y, w, d, height float64) Footprint {
	return Footprint{
		ID:     id,
		Height: height,
		Ring: orb.Ring{
			{x, y}, {x, y + d}, {x + w, y + d}, {x + w, y}, {x, y},
		},
	}
}
