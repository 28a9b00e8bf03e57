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


package batch

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/spatialmodel/eds"
	"github.com/spatialmodel/eds/weather"
)

// Summary holds summary statistics of the disease severity for one run.
type Summary struct {
	LocationID string
	InfoID     string
	Crop       string

	// Date1 and Date2 are the first and last simulated dates, and NDays
	// is the number of days between them.
	Date1, Date2 time.Time
	NDays        int

	Latitude, Longitude float64

	Applications int
	Resistance   string

	SevMedian float64 // median daily severity
	SevMax    float64 // maximum daily severity

	// AUC is the area under the severity curve over the days with
	// nonzero severity, with a spacing of one.
	AUC float64

	FinalDay int

	// Key identifies the inputs of the run.
	Key string

	// Err holds the error that stopped the run, if any. The severity
	// statistics are NaN when Err is set.
	Err error
}

func base(sc Scenario, p weather.Planting, days []weather.Day) Summary {
	s := Summary{
		LocationID:   p.ID,
		InfoID:       p.InfoID(),
		Crop:         p.Crop,
		Applications: sc.Applications,
		Resistance:   sc.Resistance.Name,
	}
	if len(days) > 0 {
		s.Date1 = days[0].Date
		s.Latitude = days[0].Latitude
		s.Longitude = days[0].Longitude
	}
	return s
}

func failed(sc Scenario, p weather.Planting, days []weather.Day, err error) Summary {
	s := base(sc, p, days)
	s.SevMedian, s.SevMax, s.AUC = math.NaN(), math.NaN(), math.NaN()
	s.Err = err
	return s
}

// Summarize computes the summary statistics of a simulation of the
// given planting and scenario. days are the weather days the simulation
// was run on, starting with day 1.
func Summarize(sc Scenario, p weather.Planting, days []weather.Day, r *eds.Result) Summary {
	s := base(sc, p, days)
	s.FinalDay = r.FinalDay
	if r.FinalDay > 0 && r.FinalDay <= len(days) {
		s.Date2 = days[r.FinalDay-1].Date
		s.NDays = int(math.Round(s.Date2.Sub(s.Date1).Hours() / 24))
	}
	sev := make([]float64, len(r.States))
	for i, st := range r.States {
		sev[i] = st.Sev
	}
	s.SevMedian = median(sev)
	if len(sev) > 0 {
		s.SevMax = floats.Max(sev)
	} else {
		s.SevMax = math.NaN()
	}
	s.AUC = auc(sev)
	return s
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// auc integrates the nonzero values of sev using the trapezoidal rule
// with unit spacing.
func auc(sev []float64) float64 {
	var f []float64
	for _, v := range sev {
		if v != 0 {
			f = append(f, v)
		}
	}
	if len(f) < 2 {
		return 0
	}
	x := make([]float64, len(f))
	floats.Span(x, 0, float64(len(f)-1))
	return integrate.Trapezoidal(x, f)
}
