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

// StepDay returns a function that computes the state for s.Day from the
// state carried forward from the previous day.
func StepDay() Manipulator {
	return func(s *Simulation) error {
		d := s.Day
		st := s.pending
		prevRI := s.RI[d-2]

		st.H += st.RG - prevRI - st.RSEN - st.RLEX
		st.HSEN += st.RSEN
		st.LeakI += st.RDI
		st.LeakL += st.RDL
		st.R += st.REM
		st.ResSpray += st.FlowRes
		if st.H <= 0 {
			return &DegeneracyError{Day: d, Quantity: "H", Value: st.H}
		}

		if err := s.periods(&st); err != nil {
			return err
		}
		if err := s.totals(&st); err != nil {
			return err
		}

		f := s.Fungicide
		st.FungEffcCur = f.CurrentEfficacy(d)
		st.RcFCur = st.FungEffcCur
		st.Residual = f.ResidualFraction(st.ResSpray)
		st.RcRes = st.FungEffcCur * st.Residual
		st.FungEffecRes = f.EffectiveResidual(d, st.ResSpray)
		st.EffRes = st.FungEffcCur
		st.Rc = st.RcOpt * st.RcT * st.RcA * st.RcW * (st.RcFCur * st.FungEffecRes)

		var start float64
		if d > 10 {
			start = st.Inocp
		}
		st.COFR = 1 - st.DIS/(st.DIS+st.H)
		if err := checkFinite(d, "COFR", st.COFR); err != nil {
			return err
		}
		st.RI = st.Rc*st.I*math.Pow(st.COFR, st.Agg) + start
		if err := checkFinite(d, "RI", st.RI); err != nil {
			return err
		}
		s.RI[d-1] = st.RI

		st.RSEN = st.RRDD + st.RRSEN*st.H
		st.RLEX = st.RRLEX * st.I * st.COFR
		st.RDI = st.I * st.RRDD
		st.RDL = st.L * st.RRDD
		if float64(d) > st.IP {
			st.REM = s.States[removalDay(d, st.IP)-1].RT
		}
		st.FlowRes = f.Flow(d, s.Weather[d-1].Precip)

		s.queue.Enqueue(d, int(math.RoundToEven(st.P)))
		st.RT = s.queue.Advance(s.RI)

		s.States = append(s.States, st)
		return nil
	}
}

// removalDay returns the day whose latent-to-infectious transitions are
// removed on day d, one incubation period ip later. Days before the first
// day map to the most recent day, d-1.
func removalDay(d int, ip float64) int {
	k := int(math.Ceil(float64(d)-ip)) - 1
	if k < 1 || k > d-1 {
		return d - 1
	}
	return k
}
