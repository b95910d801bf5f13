package main

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
	"gonum.org/v1/gonum/spatial/r3"
)

// SunPos is a reference sun position computed by suncalc. It is used to
// sanity check SolarAngles and to synthesize clear-sky weather; the
// obstruction pass itself always uses SolarAngles.
type SunPos struct {
	T time.Time

	// Altitude is the altitude of the sun in the alt-azimuth coordinate
	// system, in degrees. This ranges from -90 to 90, where 0 is the
	// horizon and 90 is directly overhead.
	Altitude float64

	// Azimuth is the azimuth of the sun in the alt-azimuth coordinate
	// system, in degrees. This ranges from 0 to 360, where 0 is north
	// and 90 is east.
	Azimuth float64
}

// GetSunPos returns the sun position in horizonal alt-azimuth
// coordinates at the given time and location. Latitude and longitude
// are in degrees, where north and east are positive, respectively.
func GetSunPos(t time.Time, latitude, longitude float64) SunPos {
	p := suncalc.GetPosition(t, latitude, longitude)
	// suncalc returns angles in radians (even though it takes latitude
	// and longitude in degrees). Also, it uses a non-standard
	// convention for azimuth where -90 is east, 0 is south, 90 is west,
	// and 180 is north.
	return SunPos{t, p.Altitude * rad2deg, p.Azimuth*rad2deg + 180}
}

// Direction returns the direction sun light travels in the world frame.
func (p SunPos) Direction() r3.Vec {
	al := p.Altitude * deg2rad
	az := p.Azimuth * deg2rad
	toSun := r3.Vec{
		X: math.Sin(az) * math.Cos(al),
		Y: math.Sin(al),
		Z: math.Cos(az) * math.Cos(al),
	}
	return r3.Scale(-1, r3.Unit(toSun))
}

// SolarHourTime converts an hour of the year in local solar time at
// longitude (degrees) into an absolute time in the given year.
func SolarHourTime(year, hourOfYear int, longitude float64) time.Time {
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(hourOfYear) * time.Hour)
	// Solar noon is 4 minutes earlier in UTC per degree east.
	return t.Add(-time.Duration(longitude * 4 * float64(time.Minute)))
}

// GlobalIntensity computes the total global radiation of the sun (aka
// solar flux, aka insolation) at this position on a plane perpendicular
// to the sun, in W/m², under a clear sky, split into its direct and
// diffuse parts.
func (p SunPos) GlobalIntensity(elevationMeters float64) (direct, diffuse float64) {
	// This is based on https://www.pveducation.org/pvcdrom/properties-of-sunlight/air-mass
	if p.Altitude < 0 {
		return 0, 0
	}

	// Compute air mass. This is a unitless number that is between 1 if
	// the sun is directly overhead (minimal air mass) and ~38 if the
	// sun is at the horizon. The core of this formula is simply the
	// 1/cos(Θ); the rest of the terms account for the curvature of the
	// Earth.
	//
	// From Kasten, F. and Young, A. T., “Revised optical air mass
	// tables and approximation formula”, Applied Optics, vol. 28, pp.
	// 4735–4738, 1989.
	zenithAngle := 90 - p.Altitude // 0 is overhead
	airMass := 1 / (math.Cos(zenithAngle*deg2rad) + (0.50572 * math.Pow((96.07995-zenithAngle), -1.6364)))

	// Compute direct component of sunlight, accounting for elevation.
	// From Meinel, A. B. and Meinel, M. P., Applied Solar Energy.
	// Addison Wesley Publishing Co., 1976.
	h := elevationMeters / 1000
	a := 0.14
	iDirect := 1353 * ((1-a*h)*math.Pow(0.7, math.Pow(airMass, 0.678)) + a*h)

	// Diffuse radiation is ~10% of direct radiation.
	return iDirect, 0.1 * iDirect
}

// ClearSkyWeather synthesizes a year of hourly weather from the
// clear-sky model, for sites without an EPW file.
func ClearSkyWeather(year int, latitude, longitude, elevationMeters float64) Weather {
	w := make(Weather, HoursPerYear)
	for h := range w {
		p := GetSunPos(SolarHourTime(year, h, longitude), latitude, longitude)
		dni, dhi := p.GlobalIntensity(elevationMeters)
		w[h] = WeatherRecord{
			GHI: dni*math.Max(0, math.Sin(p.Altitude*deg2rad)) + dhi,
			DNI: dni,
			DHI: dhi,
		}
	}
	return w
}
