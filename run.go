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

// NoCutoff is the days-after-planting value for a simulation that runs to
// the end of its weather record.
const NoCutoff = -1

// NextDay returns a function that advances the simulation to the next
// day, carrying the pools forward from the most recent state, and sets
// s.Done when the weather record is exhausted.
func NextDay() Manipulator {
	return func(s *Simulation) error {
		if s.Day+1 > s.LastDay() {
			s.Done = true
			return nil
		}
		prev := s.States[len(s.States)-1]
		s.pending = prev.carry(s.RI[prev.Day-1])
		s.Day = s.pending.Day
		return nil
	}
}

// CutoffAfter returns a function that ends the simulation once the
// current day is later than daysAfterPlanting. The final state keeps only
// the carried-forward infectious and latent pools and the cumulative
// totals. If daysAfterPlanting is negative, such as NoCutoff, the
// simulation is never cut off.
func CutoffAfter(daysAfterPlanting int) Manipulator {
	return func(s *Simulation) error {
		if daysAfterPlanting < 0 || s.Day <= daysAfterPlanting {
			return nil
		}
		s.States = append(s.States, DailyState{
			Day:    s.pending.Day,
			I:      s.pending.I,
			L:      s.pending.L,
			AUDPC:  s.pending.AUDPC,
			GDUSum: s.pending.GDUSum,
		})
		s.Log.WithField("day", s.Day).Debug("eds: reached days after planting cutoff")
		s.Done = true
		return nil
	}
}
