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

import (
	"fmt"
	"math"
)

// DefaultSprayInterval is the number of days a spray remains active when
// Fungicide.Interval is not set.
const DefaultSprayInterval = 7

// Spray is a single fungicide application.
type Spray struct {
	Number   int     `toml:"number"`
	Moment   int     `toml:"moment"`   // day of application, counted from planting
	Efficacy float64 `toml:"efficacy"` // fraction of infection rate remaining, [0, 1]
}

// Fungicide is a spray schedule together with the table relating
// cumulative post-spray rainfall (mm) to the fraction of fungicide residue
// remaining. A nil or empty Fungicide has no effect on the simulation.
type Fungicide struct {
	Sprays   []Spray
	Residual Table
	Interval int // days; DefaultSprayInterval if zero
}

// Validate checks the schedule and residual table.
func (f *Fungicide) Validate() error {
	if !f.enabled() {
		return nil
	}
	if f.Interval < 0 {
		return fmt.Errorf("%w: spray interval %d", ErrInvalidSchedule, f.Interval)
	}
	for _, s := range f.Sprays {
		if s.Moment <= 0 {
			return fmt.Errorf("%w: spray %d applied on day %d", ErrInvalidSchedule, s.Number, s.Moment)
		}
		if s.Efficacy < 0 || s.Efficacy > 1 {
			return fmt.Errorf("%w: spray %d efficacy %g", ErrInvalidSchedule, s.Number, s.Efficacy)
		}
	}
	if err := f.Residual.Validate(); err != nil {
		return fmt.Errorf("eds: fungicide residual: %w", err)
	}
	return nil
}

func (f *Fungicide) enabled() bool { return f != nil && len(f.Sprays) > 0 }

func (f *Fungicide) interval() int {
	if f.Interval == 0 {
		return DefaultSprayInterval
	}
	return f.Interval
}

// Active returns the first spray whose residue is active on day:
// applied before day and no more than the spray interval before it.
func (f *Fungicide) Active(day int) (Spray, bool) {
	if !f.enabled() {
		return Spray{}, false
	}
	iv := f.interval()
	for _, s := range f.Sprays {
		if s.Moment < day && day <= s.Moment+iv {
			return s, true
		}
	}
	return Spray{}, false
}

// CurrentEfficacy returns the largest efficacy among the sprays applied
// on or up to one spray interval before day, or 1 if there are none.
// Undefined (NaN) efficacies are ignored.
func (f *Fungicide) CurrentEfficacy(day int) float64 {
	if !f.enabled() {
		return 1
	}
	iv := f.interval()
	eff := math.NaN()
	for _, s := range f.Sprays {
		if s.Moment <= day && day <= s.Moment+iv && !math.IsNaN(s.Efficacy) {
			if math.IsNaN(eff) || s.Efficacy > eff {
				eff = s.Efficacy
			}
		}
	}
	if math.IsNaN(eff) {
		return 1
	}
	return eff
}

// ResidualFraction returns the fraction of fungicide residue remaining
// after resSpray mm of cumulative post-spray rainfall.
func (f *Fungicide) ResidualFraction(resSpray float64) float64 {
	if !f.enabled() {
		return 1
	}
	return f.Residual.Interpolate(resSpray)
}

// InitialResidual returns the effective residual on day one, which is
// taken directly from the residual table with no rainfall.
func (f *Fungicide) InitialResidual() float64 {
	return f.ResidualFraction(0)
}

// EffectiveResidual returns the residual protection factor for day given
// the cumulative post-spray rainfall resSpray: the residual fraction
// scaled by the efficacy of the first active spray, or 1 if no spray
// is active.
func (f *Fungicide) EffectiveResidual(day int, resSpray float64) float64 {
	s, ok := f.Active(day)
	if !ok {
		return 1
	}
	eff := s.Efficacy
	if math.IsNaN(eff) {
		eff = 1
	}
	return f.ResidualFraction(resSpray) * eff
}

// Flow returns the rainfall (mm) that washes into the residue on day, which
// is the day's rainfall when a spray is active and zero otherwise.
func (f *Fungicide) Flow(day int, precip float64) float64 {
	if _, ok := f.Active(day); ok {
		return precip
	}
	return 0
}
