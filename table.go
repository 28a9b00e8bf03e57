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

	"gonum.org/v1/gonum/interp"
)

// Table is a piecewise-linear lookup table. X must be strictly ascending
// and have the same length as Y.
type Table struct {
	X []float64 `toml:"x"`
	Y []float64 `toml:"y"`

	fit *interp.PiecewiseLinear
}

// NewTable creates and validates a table from the given points.
func NewTable(x, y []float64) (*Table, error) {
	t := &Table{X: x, Y: y}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTable is like NewTable but panics if the table is invalid. It is
// intended for built-in parameter sets.
func MustTable(x, y []float64) Table {
	t, err := NewTable(x, y)
	if err != nil {
		panic(err)
	}
	return *t
}

// Validate checks the table and prepares it for interpolation.
// It must be called before the table is shared between goroutines.
func (t *Table) Validate() error {
	if len(t.X) != len(t.Y) {
		return fmt.Errorf("%w: %d x values and %d y values", ErrInvalidTable, len(t.X), len(t.Y))
	}
	if len(t.X) < 2 {
		return fmt.Errorf("%w: need at least 2 points, have %d", ErrInvalidTable, len(t.X))
	}
	for i := range t.X {
		if math.IsNaN(t.X[i]) || math.IsInf(t.X[i], 0) || math.IsNaN(t.Y[i]) || math.IsInf(t.Y[i], 0) {
			return fmt.Errorf("%w: non-finite value at point %d", ErrInvalidTable, i)
		}
		if i > 0 && t.X[i] <= t.X[i-1] {
			return fmt.Errorf("%w: x values not strictly ascending at point %d (%g <= %g)",
				ErrInvalidTable, i, t.X[i], t.X[i-1])
		}
	}
	fit := new(interp.PiecewiseLinear)
	if err := fit.Fit(t.X, t.Y); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	t.fit = fit
	return nil
}

// Interpolate returns the linearly interpolated value at x. Values of x
// outside of the table are clamped to the first or last point.
func (t *Table) Interpolate(x float64) float64 {
	fit := t.fit
	if fit == nil {
		// Unvalidated tables are fit on a copy so that concurrent callers
		// never write to t.
		c := Table{X: t.X, Y: t.Y}
		if err := c.Validate(); err != nil {
			return math.NaN()
		}
		fit = c.fit
	}
	return fit.Predict(x)
}
