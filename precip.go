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

import "fmt"

// PrecipScore returns a score from 1 (dry) to 4 describing how conducive
// rainfall is to infection on the given day (1-based). occur holds one
// value per day indicating whether significant rain fell.
//
// The score is computed over a four-day window that starts on day and
// extends three days forward, truncated at the end of the record:
//
//	0 rain days in the window       -> 1
//	1 rain day                      -> 2
//	2 rain days                     -> 3
//	2 consecutive rain days         -> 3
//	3 consecutive rain days         -> 3
//	otherwise                       -> 4
func PrecipScore(day int, occur []bool) (int, error) {
	if day < 1 || day > len(occur) {
		return 0, fmt.Errorf("eds: precipitation score for day %d of %d: %w",
			day, len(occur), ErrInsufficientWeather)
	}
	end := day + 3
	if end > len(occur) {
		end = len(occur)
	}
	w := occur[day-1 : end]

	sum := 0
	for _, r := range w {
		if r {
			sum++
		}
	}
	switch sum {
	case 0:
		return 1, nil
	case 1:
		return 2, nil
	case 2:
		return 3, nil
	}
	if hasRun(w, 2) || hasRun(w, 3) {
		return 3, nil
	}
	return 4, nil
}

// hasRun reports whether w contains n consecutive rain days.
func hasRun(w []bool, n int) bool {
	run := 0
	for _, r := range w {
		if r {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}
