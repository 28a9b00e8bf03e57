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

package eds

import "math"

// Day-one state of every field.
const (
	initialHealthy = 2500000.  // healthy sites [sites]
	siteMax        = 10000000. // site carrying capacity [sites]
	relGrowth      = 0.173     // relative growth rate [1/day]
	relSenescence  = 0.002307  // relative senescence rate [1/day]
	relMortality   = 0.0001    // relative mortality rate [1/day]
	aggregation    = 1.        // crowding exponent

	// Mortality and removal rates on day one.
	initialRDI = 0.000100004821661 // [sites/day]
	initialREM = 0.999948211789    // [sites/day]
)

// CheckConfig returns a function that validates the simulation
// parameters. The fungicide schedule is copied first so that simulations
// sharing a schedule do not write to it.
func CheckConfig() Manipulator {
	return func(s *Simulation) error {
		if s.Fungicide != nil {
			f := *s.Fungicide
			s.Fungicide = &f
		}
		return s.Config.Validate()
	}
}

// SeedDayOne returns a function that creates the state for the first day
// after planting.
func SeedDayOne() Manipulator {
	return func(s *Simulation) error {
		st := DailyState{
			Day:     1,
			POpt:    s.Resistance.POpt,
			IPOpt:   s.IPOpt,
			RRDD:    relMortality,
			H:       initialHealthy,
			SiteMax: siteMax,
			RRG:     relGrowth,
			RRSEN:   relSenescence,
			RRLEX:   s.Resistance.RRLEX,
			Agg:     aggregation,
			Inocp:   s.Inocp,
		}
		if err := s.periods(&st); err != nil {
			return err
		}
		st.I = st.IP
		if err := s.totals(&st); err != nil {
			return err
		}
		st.RcOpt = s.Resistance.RcOpt - st.RRLEX

		st.RcFCur, st.FungEffcCur, st.EffRes, st.RcRes = 1, 1, 1, 1
		st.Residual = s.Fungicide.InitialResidual()
		st.FungEffecRes = st.Residual
		st.Rc = st.RcOpt * st.RcT * st.RcA * st.RcW * (st.RcFCur * st.FungEffecRes)

		if st.H <= 0 {
			return &DegeneracyError{Day: 1, Quantity: "H", Value: st.H}
		}
		st.COFR = 1 - st.DIS/(2*st.H)
		st.RI = st.Rc*st.I*math.Pow(st.COFR, st.Agg) + 1
		if err := checkFinite(1, "COFR", st.COFR); err != nil {
			return err
		}
		if err := checkFinite(1, "RI", st.RI); err != nil {
			return err
		}
		s.RI[0] = st.RI

		st.RSEN = st.RRDD + st.RRSEN*st.H
		st.RLEX = st.RRLEX * st.I * st.COFR
		st.RDI = initialRDI
		st.REM = initialREM
		st.RDL = 0
		st.FlowRes = s.Fungicide.Flow(1, s.Weather[0].Precip)

		s.queue.Enqueue(1, int(math.RoundToEven(st.P)))
		st.RT = s.queue.Advance(s.RI)

		s.Day = 1
		s.States = append(s.States, st)
		return nil
	}
}

// periods sets the temperature and the temperature-dependent incubation
// and latent periods for st.Day.
func (s *Simulation) periods(st *DailyState) error {
	st.Temp = s.Weather[st.Day-1].Temperature
	st.IP = st.IPOpt * s.Tables.IP.Interpolate(st.Temp)
	st.P = st.POpt / s.Tables.P.Interpolate(st.Temp)
	return checkFinite(st.Day, "p", st.P)
}

// totals recomputes the site totals, crop development, growth and the
// environmental infection factors of st from its pools.
func (s *Simulation) totals(st *DailyState) error {
	st.CumuLeak = st.LeakL + st.LeakI
	st.DIS = st.R + st.I + st.CumuLeak + st.L
	st.TotSites = st.HSEN + st.H + st.DIS
	if st.TotSites <= 0 {
		return &DegeneracyError{Day: st.Day, Quantity: "TotSites", Value: st.TotSites}
	}
	st.Sev = st.DIS / st.TotSites
	if err := checkFinite(st.Day, "Sev", st.Sev); err != nil {
		return err
	}
	st.DVS8 = s.Tables.DVS8.Interpolate(st.GDUSum)
	if st.DVS8 < 7 {
		st.RAUPC = st.Sev
	} else {
		st.RAUPC = 0
	}
	st.GDU = st.Temp - s.GDUBase
	st.RTInc = st.GDU
	st.RG = st.RRG * st.H * (1 - st.TotSites/st.SiteMax)

	score, err := PrecipScore(st.Day, s.occur)
	if err != nil {
		return err
	}
	st.RcW = float64(score)
	st.RcT = s.Tables.RcT.Interpolate(st.Temp)
	st.RcA = s.Tables.RcA.Interpolate(st.DVS8)
	return nil
}

func checkFinite(day int, name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &DegeneracyError{Day: day, Quantity: name, Value: v}
	}
	return nil
}
