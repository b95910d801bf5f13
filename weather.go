package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aclements/bipv/log"
)

var weatherLogger = log.New("weather")

var ErrShortWeather = errors.New("weather data does not cover the requested hours")

// EPW files carry 8 header lines before the hourly records. Columns are
// zero-based.
const (
	epwHeaderLines = 8
	epwGHIColumn   = 13
	epwDNIColumn   = 14
	epwDHIColumn   = 15
)

// WeatherRecord is the irradiance for one hour, in W/m².
type WeatherRecord struct {
	GHI float64 // Global horizontal
	DNI float64 // Direct normal
	DHI float64 // Diffuse horizontal
}

// Weather is indexed by hour of the year.
type Weather []WeatherRecord

// Window returns the records for count hours starting at hourOfYear.
func (w Weather) Window(hourOfYear, count int) ([]WeatherRecord, error) {
	if hourOfYear < 0 || count < 0 || hourOfYear+count > len(w) {
		return nil, fmt.Errorf("%w: hours [%d, %d) of %d", ErrShortWeather, hourOfYear, hourOfYear+count, len(w))
	}
	return w[hourOfYear : hourOfYear+count], nil
}

// ReadEPW reads the hourly irradiance columns of an EnergyPlus weather
// file.
func ReadEPW(r io.Reader) (Weather, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	var w Weather
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("epw line %d: %w", line, err)
		}
		if line <= epwHeaderLines {
			continue
		}
		if len(rec) <= epwDHIColumn {
			return nil, fmt.Errorf("epw line %d: %d fields, want at least %d", line, len(rec), epwDHIColumn+1)
		}
		var vals [3]float64
		for i, col := range [3]int{epwGHIColumn, epwDNIColumn, epwDHIColumn} {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("epw line %d column %d: %w", line, col, err)
			}
			vals[i] = v
		}
		w = append(w, WeatherRecord{GHI: vals[0], DNI: vals[1], DHI: vals[2]})
	}
	return w, nil
}

// ReadEPWFile reads the EPW file at path.
func ReadEPWFile(path string) (Weather, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w, err := ReadEPW(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	weatherLogger.Infof("loaded %d hours of weather from %s", len(w), path)
	return w, nil
}
