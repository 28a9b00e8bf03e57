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

package weather

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spatialmodel/eds"
	"github.com/spatialmodel/eds/crop"
)

// DefaultPrecipThreshold is the daily precipitation [mm] at or above which
// a day counts as rainy.
const DefaultPrecipThreshold = 2.

// Day is one day of a field's weather record.
type Day struct {
	Date        time.Time
	Precip      float64 // [mm]
	MaxTemp     float64 // [°C]
	MinTemp     float64 // [°C]
	Temperature float64 // mean of MaxTemp and MinTemp [°C]
	GDU         float64 // growing degree units, clamped to the crop's limits
	PrecipOccur bool
	WindSpeed   float64 // [m/s]
	Latitude    float64
	Longitude   float64
}

// Field is the weather record for a planting, sorted by date.
type Field struct {
	Planting Planting
	Days     []Day
}

// Options control how weather records are aligned to plantings.
type Options struct {
	// RepeatYears is the number of times the record for each location is
	// repeated in the following years.
	RepeatYears int

	// PrecipThreshold is the daily precipitation [mm] at or above which a
	// day counts as rainy.
	PrecipThreshold float64

	// Crops supplies the growing degree unit limits for each crop.
	// Days of plantings whose crop is not included are dropped.
	Crops map[string]*crop.Crop
}

// Prepare aligns the weather records with each planting. The day of year
// of each record is counted from December 31 of the year before planting.
func Prepare(records []Record, plantings []Planting, o Options) []Field {
	byID := make(map[string][]Record)
	for _, r := range records {
		byID[r.ID] = append(byID[r.ID], r)
	}
	fields := make([]Field, len(plantings))
	for i, p := range plantings {
		fields[i] = Field{Planting: p, Days: prepareField(byID[p.ID], p, o)}
	}
	return fields
}

func prepareField(records []Record, p Planting, o Options) []Day {
	c, ok := o.Crops[p.Crop]
	if !ok {
		return nil
	}
	origin := time.Date(p.Year-1, time.December, 31, 0, 0, 0, 0, time.UTC)
	seen := make(map[time.Time]bool)
	var days []Day
	add := func(r Record, shift int) {
		date := origin.AddDate(0, 0, r.DOY+shift)
		if seen[date] {
			return
		}
		seen[date] = true
		if math.IsNaN(r.MaxTemp) || math.IsNaN(r.MinTemp) {
			return
		}
		mean := (r.MaxTemp + r.MinTemp) / 2
		days = append(days, Day{
			Date:        date,
			Precip:      r.Precip,
			MaxTemp:     r.MaxTemp,
			MinTemp:     r.MinTemp,
			Temperature: mean,
			GDU:         math.Max(c.GDUMin, math.Min(c.GDUMax, mean-c.GDUBase)),
			PrecipOccur: r.Precip >= o.PrecipThreshold,
			WindSpeed:   r.WindSpeed,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		})
	}
	for _, r := range records {
		add(r, 0)
	}
	for i := 1; i <= o.RepeatYears; i++ {
		for _, r := range records {
			add(r, i*365)
		}
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// From returns the days of the field on or after start.
func (f *Field) From(start time.Time) []Day {
	i := sort.Search(len(f.Days), func(i int) bool { return !f.Days[i].Date.Before(start) })
	return f.Days[i:]
}

// Weather returns the simulation weather for the field starting on
// start, numbered from day 1, together with the corresponding days.
// It returns an error wrapping eds.ErrEmptyDateRange if no days remain.
func (f *Field) Weather(start time.Time) ([]eds.Weather, []Day, error) {
	days := f.From(start)
	if len(days) == 0 {
		return nil, nil, fmt.Errorf("weather: location %s from %s: %w",
			f.Planting.ID, start.Format("2006-01-02"), eds.ErrEmptyDateRange)
	}
	w := make([]eds.Weather, len(days))
	for i, d := range days {
		w[i] = eds.Weather{
			Day:         i + 1,
			Temperature: d.Temperature,
			PrecipOccur: d.PrecipOccur,
			Precip:      d.Precip,
		}
	}
	return w, days, nil
}
