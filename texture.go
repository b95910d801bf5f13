package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// Image renders g as a Width × Height image, colored by scale. Pixel
// (i, j) is grid point (i, j), so row 0 is the top of the wall.
func (g *FaceGrid) Image(scale *ColorScale) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	for i := 0; i < g.Width; i++ {
		for j := 0; j < g.Height; j++ {
			img.SetNRGBA(i, j, scale.Color(g.At(i, j)).NRGBA())
		}
	}
	return img
}

// WriteTextures writes a PNG for every wall of results that has a grid
// into dir and returns the number written.
func WriteTextures(dir string, results []BuildingResult, day int, scale *ColorScale) (int, error) {
	n := 0
	for _, br := range results {
		for fi, fr := range br.Faces {
			if fr.Grid == nil {
				continue
			}
			if err := writePNG(filepath.Join(dir, TextureName(day, br.ID, fi)), fr.Grid.Image(scale)); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
