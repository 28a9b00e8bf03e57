/*
Copyright © 2024 the EDS authors.
This file is part of EDS.

EDS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EDS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EDS.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package weather reads daily weather records and field plantings and
// aligns them into per-field weather series for disease severity
// simulations.
package weather

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spatialmodel/eds"
	"github.com/spf13/cast"
)

// Record is one day of weather at a location.
type Record struct {
	ID        string
	DOY       int     // day of year, 1 = January 1
	Precip    float64 // [mm]
	MaxTemp   float64 // [°C]
	MinTemp   float64 // [°C]
	WindSpeed float64 // [m/s]
	Latitude  float64
	Longitude float64
}

// Planting describes a crop planted at a location.
type Planting struct {
	ID    string
	Field string
	Year  int

	// Date is the planting date. DateText holds it as written in the input.
	Date     time.Time
	DateText string

	// DaysAfterPlanting is the number of days after planting that
	// disease was observed, which ends the simulation. It is eds.NoCutoff
	// when the input leaves it blank.
	DaysAfterPlanting int
	Crop              string
}

// InfoID identifies the planting in output.
func (p Planting) InfoID() string {
	return strings.Join([]string{p.ID, fmt.Sprint(p.Year), p.DateText,
		fmt.Sprint(p.DaysAfterPlanting), p.Crop}, "_")
}

// columns maps the header of a CSV file to column indices, checking that
// the required columns are present.
func columns(header []string, required, optional []string) (map[string]int, error) {
	m := make(map[string]int)
	for i, h := range header {
		m[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, r := range required {
		if _, ok := m[r]; !ok {
			return nil, fmt.Errorf("weather: missing column %q", r)
		}
	}
	for _, o := range optional {
		if _, ok := m[o]; !ok {
			m[o] = -1
		}
	}
	return m, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// toFloat parses a numeric cell; empty and "NA" cells are NaN.
func toFloat(s string) (float64, error) {
	switch s {
	case "", "NA", "NaN", "nan":
		return math.NaN(), nil
	}
	return cast.ToFloat64E(s)
}

func toInt(s string) (int, error) {
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(v), nil
}

func toCutoff(s string) (int, error) {
	switch s {
	case "", "NA":
		return eds.NoCutoff, nil
	}
	return toInt(s)
}

// ReadWeather reads daily weather records from a CSV file with the columns
// ID, DOY, precipitation, maximum_temperature and minimum_temperature, and
// optionally wind_speed, latitude and longitude. Only the first record
// for each location and day of year is kept.
func ReadWeather(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("weather: reading header: %v", err)
	}
	col, err := columns(header,
		[]string{"ID", "DOY", "precipitation", "maximum_temperature", "minimum_temperature"},
		[]string{"wind_speed", "latitude", "longitude"})
	if err != nil {
		return nil, err
	}
	type key struct {
		id  string
		doy int
	}
	seen := make(map[key]bool)
	var out []Record
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("weather: line %d: %v", line, err)
		}
		var o Record
		o.ID = field(rec, col["ID"])
		if o.DOY, err = toInt(field(rec, col["DOY"])); err != nil {
			return nil, fmt.Errorf("weather: line %d: DOY: %v", line, err)
		}
		for _, f := range []struct {
			name string
			v    *float64
		}{
			{"precipitation", &o.Precip},
			{"maximum_temperature", &o.MaxTemp},
			{"minimum_temperature", &o.MinTemp},
			{"wind_speed", &o.WindSpeed},
			{"latitude", &o.Latitude},
			{"longitude", &o.Longitude},
		} {
			if *f.v, err = toFloat(field(rec, col[f.name])); err != nil {
				return nil, fmt.Errorf("weather: line %d: %s: %v", line, f.name, err)
			}
		}
		k := key{o.ID, o.DOY}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, o)
	}
	return out, nil
}

var dateLayouts = []string{"2006-01-02", "20060102", "2006/01/02", "1/2/2006", "01/02/2006"}

func parseDate(s string) (time.Time, error) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ReadPlantings reads field plantings from a CSV file with the columns
// ID, Field, year, planting_date, obs_planting_delta and Crop. Duplicate
// rows are removed and the result is sorted.
func ReadPlantings(r io.Reader) ([]Planting, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("weather: reading plantings header: %v", err)
	}
	col, err := columns(header,
		[]string{"ID", "Field", "year", "planting_date", "obs_planting_delta", "Crop"}, nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[Planting]bool)
	var out []Planting
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("weather: plantings line %d: %v", line, err)
		}
		p := Planting{
			ID:       field(rec, col["ID"]),
			Field:    field(rec, col["Field"]),
			DateText: field(rec, col["planting_date"]),
			Crop:     field(rec, col["Crop"]),
		}
		if p.Year, err = toInt(field(rec, col["year"])); err != nil {
			return nil, fmt.Errorf("weather: plantings line %d: year: %v", line, err)
		}
		if p.DaysAfterPlanting, err = toCutoff(field(rec, col["obs_planting_delta"])); err != nil {
			return nil, fmt.Errorf("weather: plantings line %d: obs_planting_delta: %v", line, err)
		}
		if p.Date, err = parseDate(p.DateText); err != nil {
			return nil, fmt.Errorf("weather: plantings line %d: %v", line, err)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ID != b.ID:
			return a.ID < b.ID
		case a.Field != b.Field:
			return a.Field < b.Field
		case a.Year != b.Year:
			return a.Year < b.Year
		case !a.Date.Equal(b.Date):
			return a.Date.Before(b.Date)
		case a.DaysAfterPlanting != b.DaysAfterPlanting:
			return a.DaysAfterPlanting < b.DaysAfterPlanting
		}
		return a.Crop < b.Crop
	})
	return out, nil
}
