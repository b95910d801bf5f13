package main

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi

	HoursPerYear = 8760
)

// lightForward is the direction a directional light shines before it is
// tilted and turned toward the sun.
var lightForward = r3.Vec{Z: 1}

// SunAngles are the solar elevation and azimuth, in radians, as produced
// by SolarAngles. They are Euler angles for the sun light rather than
// conventional horizon coordinates: during the day Elevation is negative
// so that the light direction points down.
//
// Azimuth is the azimuth of the sun seen from the site, measured from
// north toward east. Elevation is the negated elevation for a site at
// latitude -lat, so away from the equinoxes the light comes from a sun
// mirrored across the equator. Shadows are cast from that mirrored sun.
type SunAngles struct {
	Elevation float64
	Azimuth   float64
}

// SolarAngles returns the sun angles at the given hour of the year for a
// site at latitude lat (radians). Hours are local solar hours; the
// declination only changes once per day.
func SolarAngles(hourOfYear int, lat float64) SunAngles {
	day := hourOfYear / 24
	dec := -23.45 * math.Cos(360.0/365.0*float64(day+11)*deg2rad) * deg2rad
	hAngle := 15 * float64(hourOfYear%24-12) * deg2rad

	el := math.Asin(math.Sin(dec)*math.Sin(lat) - math.Cos(dec)*math.Cos(lat)*math.Cos(hAngle))
	azi := math.Atan2(
		-math.Sin(hAngle),
		math.Tan(dec)*math.Cos(lat)-math.Sin(lat)*math.Cos(hAngle),
	)
	return SunAngles{Elevation: el, Azimuth: azi}
}

// Direction returns the unit direction sun light travels. The light is
// tilted by -Elevation about X and then turned by -Azimuth about Y.
func (a SunAngles) Direction() r3.Vec {
	tilt := r3.NewRotation(-a.Elevation, r3.Vec{X: 1})
	turn := r3.NewRotation(-a.Azimuth, r3.Vec{Y: 1})
	return r3.Unit(turn.Rotate(tilt.Rotate(lightForward)))
}

// SunDirection returns the light direction at hourOfYear.
func SunDirection(hourOfYear int, lat float64) r3.Vec {
	return SolarAngles(hourOfYear, lat).Direction()
}

// SunDirections returns one light direction per hour of the window
// starting at startHour on day.
func SunDirections(day, startHour, hours int, lat float64) []r3.Vec {
	dirs := make([]r3.Vec, hours)
	for h := range dirs {
		dirs[h] = SunDirection(day*24+startHour+h, lat)
	}
	return dirs
}

// SunElevation returns the altitude of the sun above the horizon, in
// radians, for a light traveling in direction dir.
func SunElevation(dir r3.Vec) float64 {
	return math.Asin(-r3.Unit(dir).Y)
}

// Horizon returns the elevation above the horizon and the azimuth
// clockwise from north, both in radians, of the sun as Direction places
// it in the world frame. The azimuth is in [0, 2π).
//
// This is not the sun seen from the site. The tilt by -Elevation puts
// the sun where it stands for a site at latitude -lat, and the turn by
// -Azimuth reflects the azimuth across the east-west line: the horizon
// azimuth is π - Azimuth. Use SiteElevation and Compass for the sun seen
// from the site.
func (a SunAngles) Horizon() (elevation, azimuth float64) {
	toSun := r3.Scale(-1, a.Direction())
	elevation = math.Asin(toSun.Y)
	azimuth = math.Atan2(toSun.X, toSun.Z)
	if azimuth < 0 {
		azimuth += 2 * math.Pi
	}
	return elevation, azimuth
}

// Compass returns Azimuth clockwise from north in [0, 2π). Unlike the
// world-frame azimuth from Horizon, this is the azimuth of the sun seen
// from the site.
func (a SunAngles) Compass() float64 {
	az := math.Mod(a.Azimuth, 2*math.Pi)
	if az < 0 {
		az += 2 * math.Pi
	}
	return az
}

// SiteElevation returns the elevation of the sun above the horizon, in
// radians, seen from a site at latitude lat. SolarAngles mirrors the site
// across the equator, so this is the horizon elevation of the angles for
// -lat.
func SiteElevation(hourOfYear int, lat float64) float64 {
	el, _ := SolarAngles(hourOfYear, -lat).Horizon()
	return el
}
