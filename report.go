package main

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

func newTable(buf *bytes.Buffer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}

// FaceTable renders the per-face results of a pass.
func FaceTable(res *Result) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Building", "Face", "Points", "Area (m²)", "Irradiance", "Direct", "Diffuse", "Reflected", "Color")
	var total, area float64
	for bi, br := range res.Buildings {
		bm := res.Samples.Buildings[bi]
		for fi, fr := range br.Faces {
			fm := bm.Faces[fi]
			face := "roof"
			if fm.Vertical {
				face = fmt.Sprintf("wall %d", fi)
			}
			table.Append([]string{
				fmt.Sprintf("%d", br.ID),
				face,
				fmt.Sprintf("%d", fm.Points),
				fmt.Sprintf("%.1f", fm.Area),
				fmt.Sprintf("%.1f", fr.Irradiance),
				fmt.Sprintf("%.1f", fr.Direct),
				fmt.Sprintf("%.1f", fr.Diffuse),
				fmt.Sprintf("%.1f", fr.Reflected),
				fr.Color.Hex(),
			})
			total += fr.Irradiance * fm.Area
			area += fm.Area
		}
	}
	mean := 0.0
	if area > 0 {
		mean = total / area
	}
	table.SetFooter([]string{"", "", "", fmt.Sprintf("%.1f", area), fmt.Sprintf("%.1f", mean), "", "", "", ""})
	table.Render()
	return buf.String()
}

// BVHTable renders the shape of a BVH.
func BVHTable(b *BVH) string {
	var buf bytes.Buffer
	st := b.Stats()
	table := newTable(&buf, "Depth", "Triangles", "Nodes", "Leaves", "Empty leaves", "Max leaf", "Diagonal (m)")
	table.Append([]string{
		fmt.Sprintf("%d", b.Depth),
		fmt.Sprintf("%d", len(b.Tris)),
		fmt.Sprintf("%d", st.Nodes),
		fmt.Sprintf("%d", st.Leaves),
		fmt.Sprintf("%d", st.EmptyLeaves),
		fmt.Sprintf("%d", st.MaxLeaf),
		fmt.Sprintf("%.1f", b.Bounds().Diagonal()),
	})
	table.Render()
	return buf.String()
}

// SunPosRow compares the pass's sun model with suncalc for one hour.
type SunPosRow struct {
	Hour      int
	Model     SunAngles
	Elevation float64 // SiteElevation, radians
	Reference SunPos
}

// SunPosTable renders sun positions in degrees. The model's site
// elevation and compass azimuth sit next to suncalc's; the scene columns
// show where the light direction puts the sun in the world frame.
func SunPosTable(rows []SunPosRow) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Hour", "Elevation", "suncalc elevation", "Azimuth", "suncalc azimuth", "Scene elevation", "Scene azimuth")
	for _, r := range rows {
		sceneEl, sceneAz := r.Model.Horizon()
		table.Append([]string{
			fmt.Sprintf("%d", r.Hour),
			fmt.Sprintf("%.2f", r.Elevation*rad2deg),
			fmt.Sprintf("%.2f", r.Reference.Altitude),
			fmt.Sprintf("%.2f", r.Model.Compass()*rad2deg),
			fmt.Sprintf("%.2f", r.Reference.Azimuth),
			fmt.Sprintf("%.2f", sceneEl*rad2deg),
			fmt.Sprintf("%.2f", sceneAz*rad2deg),
		})
	}
	table.Render()
	return buf.String()
}
