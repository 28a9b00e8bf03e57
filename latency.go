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

// LatencyQueue tracks the cohort of sites infected on each day until they
// become infectious. Each cohort carries a countdown of whole days; a
// cohort enqueued on day d with delay k graduates on day d+k.
type LatencyQueue struct {
	count []int  // remaining days, indexed by day-1
	live  []bool // whether the cohort is still latent
}

// NewLatencyQueue returns a queue sized for the given number of days.
func NewLatencyQueue(days int) *LatencyQueue {
	return &LatencyQueue{
		count: make([]int, days),
		live:  make([]bool, days),
	}
}

// Enqueue starts the countdown for the cohort infected on day.
func (q *LatencyQueue) Enqueue(day, delay int) {
	for len(q.count) < day {
		q.count = append(q.count, 0)
		q.live = append(q.live, false)
	}
	q.count[day-1] = delay
	q.live[day-1] = true
}

// Advance returns the number of sites that become infectious today, which
// is the sum of ri (new infections, indexed by day-1) over cohorts whose
// countdown has reached zero, and then moves every countdown one day
// forward.
func (q *LatencyQueue) Advance(ri []float64) float64 {
	var rt float64
	for i, c := range q.count {
		if !q.live[i] {
			continue
		}
		if c == 0 {
			if i < len(ri) {
				rt += ri[i]
			}
			q.live[i] = false
			continue
		}
		if c < 0 {
			// Cohorts with a negative delay never graduate.
			q.live[i] = false
			continue
		}
		q.count[i] = c - 1
	}
	return rt
}
