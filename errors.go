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
	"errors"
	"fmt"
)

var (
	// ErrInvalidTable is returned when a lookup table has fewer than two
	// points, mismatched columns, or x values that are not strictly ascending.
	ErrInvalidTable = errors.New("eds: invalid lookup table")

	// ErrInvalidSchedule is returned for a fungicide schedule with an
	// efficacy outside of [0, 1], a spray moment before day 1, or a
	// non-positive spray interval.
	ErrInvalidSchedule = errors.New("eds: invalid fungicide schedule")

	// ErrInsufficientWeather is returned when the weather record is too
	// short to simulate.
	ErrInsufficientWeather = errors.New("eds: insufficient weather data")

	// ErrNumericDegeneracy is returned when the healthy or total site pool
	// is exhausted, leaving severity or the crowding factor undefined or
	// out of range.
	ErrNumericDegeneracy = errors.New("eds: numeric degeneracy")

	// ErrEmptyDateRange is returned when no weather remains after
	// filtering to a requested start date.
	ErrEmptyDateRange = errors.New("eds: no weather in date range")
)

// DegeneracyError records the day and quantity at which a simulation
// became numerically undefined.
type DegeneracyError struct {
	Day      int
	Quantity string
	Value    float64
}

func (e *DegeneracyError) Error() string {
	return fmt.Sprintf("eds: numeric degeneracy on day %d: %s = %g", e.Day, e.Quantity, e.Value)
}

// Unwrap allows errors.Is(err, ErrNumericDegeneracy).
func (e *DegeneracyError) Unwrap() error { return ErrNumericDegeneracy }
