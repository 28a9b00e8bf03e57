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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusOK      = "ok"
	statusError   = "error"
	statusSkipped = "skipped"
)

// Metrics records counts and durations of simulation runs. A nil
// *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	days     prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics returns metrics registered on their own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eds",
			Name:      "runs_total",
			Help:      "Number of simulation runs by status.",
		}, []string{"status"}),
		days: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eds",
			Name:      "simulated_days_total",
			Help:      "Number of days simulated.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eds",
			Name:      "run_duration_seconds",
			Help:      "Wall time of simulation runs.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 10),
		}),
	}
	m.registry.MustRegister(m.runs, m.days, m.duration)
	return m
}

// WriteTextfile writes the metrics to path in the Prometheus text
// exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(status string, d time.Duration, days int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.days.Add(float64(days))
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) skip() {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(statusSkipped).Inc()
}
