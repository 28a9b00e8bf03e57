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
	"testing"
)

func TestPrecipScore(t *testing.T) {
	type test struct {
		window []bool
		want   int
	}
	const o, x = false, true
	for _, tt := range []test{
		{window: []bool{o, o, o, o}, want: 1},
		{window: []bool{x, o, o, o}, want: 2},
		{window: []bool{o, o, o, x}, want: 2},
		{window: []bool{x, x, o, o}, want: 3},
		{window: []bool{x, o, o, x}, want: 3},
		{window: []bool{x, x, x, x}, want: 3},
		{window: []bool{x, x, x, o}, want: 3},
		{window: []bool{x, o, x, x}, want: 3},
	} {
		have, err := PrecipScore(1, tt.window)
		if err != nil {
			t.Fatal(err)
		}
		if have != tt.want {
			t.Errorf("%v: want %d, have %d", tt.window, tt.want, have)
		}
	}
}

func TestPrecipScoreWindow(t *testing.T) {
	occur := []bool{true, true, false, false, false, false, true}
	for _, tt := range []struct {
		day, want int
	}{
		{day: 1, want: 3}, // days 1-4
		{day: 2, want: 2}, // days 2-5
		{day: 3, want: 1}, // days 3-6
		{day: 4, want: 2}, // days 4-7
		{day: 6, want: 2}, // days 6-7, truncated
		{day: 7, want: 2}, // day 7 only
	} {
		have, err := PrecipScore(tt.day, occur)
		if err != nil {
			t.Fatal(err)
		}
		if have != tt.want {
			t.Errorf("day %d: want %d, have %d", tt.day, tt.want, have)
		}
	}
	for _, day := range []int{0, 8} {
		if _, err := PrecipScore(day, occur); !errors.Is(err, ErrInsufficientWeather) {
			t.Errorf("day %d: want ErrInsufficientWeather, have %v", day, err)
		}
	}
}
