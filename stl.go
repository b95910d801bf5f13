package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// A Mesh is an indexed triangle mesh in the world frame (X east, Y up,
// Z north).
type Mesh struct {
	Header string

	Verts []r3.Vec
	Tris  []Triangle
}

// Append adds the triangles of o to m, offsetting o's vertex indexes.
func (m *Mesh) Append(o *Mesh) {
	base := len(m.Verts)
	m.Verts = append(m.Verts, o.Verts...)
	for _, t := range o.Tris {
		m.Tris = append(m.Tris, Triangle{t.A + base, t.B + base, t.C + base})
	}
}

// ReadSTL reads a binary STL file. STL files are Z-up, so Y and Z are
// swapped on the way in.
func ReadSTL(r io.Reader) (*Mesh, error) {
	m := new(Mesh)

	var header struct {
		H    [80]byte
		NTri uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	m.Header = strings.TrimRight(string(header.H[:]), " \x00")

	vertMap := make(map[[3]float32]int)

	var vert [3]float32
	var tri [3]int
	triBuf := make([]byte, 4*3*4+2)
	for i := 0; i < int(header.NTri); i++ {
		// Read a triangle
		if _, err := io.ReadFull(r, triBuf); err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, err)
		}
		// Read the vertexes.
		for v := range tri {
			// Read the coordinates of this vertex.
			for c := range vert {
				const start = 3 * 4 // Skip normal
				vert[c] = math.Float32frombits(binary.LittleEndian.Uint32(triBuf[start+12*v+4*c:]))
			}
			// Add the vertex to the vertex set.
			vertIndex, ok := vertMap[vert]
			if !ok {
				vertIndex = len(m.Verts)
				m.Verts = append(m.Verts, r3.Vec{X: float64(vert[0]), Y: float64(vert[2]), Z: float64(vert[1])})
				vertMap[vert] = vertIndex
			}
			tri[v] = vertIndex
		}
		// Add the triangle.
		m.Tris = append(m.Tris, Triangle{tri[0], tri[1], tri[2]})
	}

	return m, nil
}

// ReadSTLFile reads the binary STL file at path.
func ReadSTLFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadSTL(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return m, nil
}
