package main

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	featureCRS          = "urn:ogc:def:crs:OGC:1.3:CRS84"
	featureXYResolution = 1e-6
)

// TextureName returns the file name of the wall texture of face on
// building on day.
func TextureName(day, building, face int) string {
	return fmt.Sprintf("%d_%d_%d.png", day, building, face)
}

// Features builds one Polygon feature per roof and one LineString feature
// per wall edge, in the footprints' source coordinates. results must
// correspond to buildings one to one.
func Features(buildings []*Building, results []BuildingResult, day int, runID string) (*geojson.FeatureCollection, error) {
	if len(buildings) != len(results) {
		return nil, fmt.Errorf("%d results for %d buildings", len(results), len(buildings))
	}
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"crs": map[string]any{
			"type":       "name",
			"properties": map[string]any{"name": featureCRS},
		},
		"xy_coordinate_resolution": featureXYResolution,
	}
	if runID != "" {
		fc.ExtraMembers["run"] = runID
	}

	for bi, b := range buildings {
		br := results[bi]
		if len(br.Faces) != len(b.Faces) {
			return nil, fmt.Errorf("building %d: %d results for %d faces", b.ID, len(br.Faces), len(b.Faces))
		}
		ring := append(b.Footprint.Clone(), b.Footprint[0])
		n := len(b.Footprint)
		for fi, fr := range br.Faces {
			var f *geojson.Feature
			if fi == 0 {
				f = geojson.NewFeature(orb.Polygon{ring})
				f.Properties["name"] = "Roof"
			} else {
				f = geojson.NewFeature(orb.LineString{b.Footprint[fi-1], b.Footprint[fi%n]})
				f.Properties["name"] = "Wall"
				if fr.Grid != nil {
					f.Properties["texture"] = TextureName(day, b.ID, fi)
				}
			}
			f.Properties["building"] = b.ID
			f.Properties["face"] = fi
			f.Properties["height"] = b.Height
			f.Properties["color"] = fr.Color.Hex()
			f.Properties["irradiance"] = fr.Irradiance
			f.Properties["direct"] = fr.Direct
			f.Properties["diffuse"] = fr.Diffuse
			fc.Append(f)
		}
	}
	return fc, nil
}

// WriteFeatures writes fc to path as GeoJSON.
func WriteFeatures(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0666)
}
