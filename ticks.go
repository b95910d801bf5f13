package main

import (
	"fmt"
	"time"

	"gonum.org/v1/plot"
)

// timeOfDayTicks renders a time.Duration since midnight as a time of day.
type timeOfDayTicks struct {
	targetTicks int // Create around targetTicks number of ticks
}

func (o timeOfDayTicks) Ticks(min, max float64) []plot.Tick {
	minD, maxD := time.Duration(min), time.Duration(max)

	// Find a good duration between ticks
	best, minor := optimizeDurationTicks(minD, maxD, o.targetTicks)

	// Generate ticks and labels.
	var ticks []plot.Tick
	first := int((minD + minor - 1) / minor)
	last := int(maxD / minor)
	minorFactor := int(best / minor)
	var dayBase = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := first; i <= last; i++ {
		t := time.Duration(i) * minor
		label := ""
		if i%minorFactor == 0 {
			label = dayBase.Add(t).Format("3:04PM")
		}
		ticks = append(ticks, plot.Tick{
			Value: float64(t),
			Label: label,
		})
	}
	return ticks
}

var durationScales = []time.Duration{12 * time.Hour, 3 * time.Hour, time.Hour, 30 * time.Minute, 10 * time.Minute, 5 * time.Minute, time.Minute}

func optimizeDurationTicks(minD, maxD time.Duration, targetTicks int) (best, minor time.Duration) {
	// Compute how many ticks would appear in [minD, maxD] for each
	// scale and pick the closest to targetTicks.
	bestNDelta := 0
	for i, scale := range durationScales {
		first := int((minD + scale - 1) / scale)
		last := int(maxD / scale)
		if n := last - first + 1; n > 0 {
			delta := n - targetTicks
			if delta < 0 {
				delta = -delta
			}
			if best == 0 || delta < bestNDelta {
				best, bestNDelta = scale, delta
				if i+1 < len(durationScales) {
					minor = durationScales[i+1]
				} else {
					minor = 0
				}
			}
		}
	}
	if best == 0 {
		best, minor = durationScales[0], durationScales[1]
	}
	return best, minor
}

// faceTicks labels the rows of a face heat map. Each building's roof
// gets a labeled tick; walls get unlabeled ones.
type faceTicks []BuildingResult

func (ft faceTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	row := 0
	for _, br := range ft {
		for fi := range br.Faces {
			if v := float64(row); v >= min && v <= max {
				label := ""
				if fi == 0 {
					label = fmt.Sprintf("b%d", br.ID)
				}
				ticks = append(ticks, plot.Tick{Value: v, Label: label})
			}
			row++
		}
	}
	return ticks
}
