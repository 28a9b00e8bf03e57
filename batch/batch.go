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


// Package batch runs the disease severity model for many fields and
// management scenarios and summarizes the results.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/spatialmodel/eds"
	"github.com/spatialmodel/eds/crop"
	"github.com/spatialmodel/eds/internal/hash"
	"github.com/spatialmodel/eds/weather"
)

// DefaultApplications are the numbers of fungicide applications
// simulated when none are specified.
var DefaultApplications = []int{0, 1, 2, 3}

// Store saves the results of individual runs.
type Store interface {
	Save(ctx context.Context, batchID string, s *Summary, states []eds.DailyState) error
}

// Runner runs the model for every combination of field, number of
// fungicide applications and resistance class.
type Runner struct {
	// Crops holds the parameters for each crop, keyed by the crop name
	// used in the plantings file.
	Crops map[string]*crop.Crop

	// Resistances are the names of the resistance classes to simulate.
	Resistances []string

	// Applications are the numbers of fungicide applications to simulate.
	Applications []int

	// SprayInterval is the number of days a spray protects the crop.
	SprayInterval int

	// Workers is the maximum number of simulations run at once.
	// If zero, GOMAXPROCS is used.
	Workers int

	// Daily specifies whether the daily states of each run are kept
	// in the output.
	Daily bool

	// LogDays specifies whether each simulated day is logged at the
	// debug level.
	LogDays bool

	Log     logrus.FieldLogger
	Metrics *Metrics // optional
	Store   Store    // optional

	resistances []eds.Resistance
}

// Scenario is a management scenario applied to a field.
type Scenario struct {
	Resistance   eds.Resistance
	Applications int
}

// Output is the result of one run.
type Output struct {
	Summary

	// States and Days hold the daily model states and the weather days
	// they were simulated from. They are only set if Runner.Daily is true.
	States []eds.DailyState
	Days   []weather.Day
}

// Batch holds the results of a call to Runner.Run.
type Batch struct {
	ID      string
	Started time.Time
	Outputs []Output
}

// Validate checks the crop parameters and scenarios, returning the first
// problem found.
func (r *Runner) Validate() error {
	if len(r.Crops) == 0 {
		return fmt.Errorf("batch: no crops")
	}
	if r.SprayInterval < 0 {
		return fmt.Errorf("batch: spray interval %d: %w", r.SprayInterval, eds.ErrInvalidSchedule)
	}
	for _, n := range r.Applications {
		if n < 0 {
			return fmt.Errorf("batch: %d fungicide applications: %w", n, eds.ErrInvalidSchedule)
		}
	}
	for _, name := range crop.Names(r.Crops) {
		c := r.Crops[name]
		if err := c.Validate(); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
		for _, n := range r.applications() {
			if err := c.Fungicide(n, r.SprayInterval).Validate(); err != nil {
				return fmt.Errorf("batch: crop %s with %d applications: %w", name, n, err)
			}
		}
	}
	names := r.Resistances
	if len(names) == 0 {
		names = crop.DefaultResistances
	}
	r.resistances = make([]eds.Resistance, len(names))
	for i, name := range names {
		res, err := crop.ResistanceClass(name)
		if err != nil {
			return fmt.Errorf("batch: %w", err)
		}
		r.resistances[i] = res
	}
	return nil
}

func (r *Runner) applications() []int {
	if len(r.Applications) == 0 {
		return DefaultApplications
	}
	return r.Applications
}

func (r *Runner) workers() int {
	if r.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return r.Workers
}

// Run simulates every scenario for every field, starting each
// simulation on the field's planting date. Fields without weather on or
// after the planting date are skipped. Errors from individual
// simulations are recorded in their summaries; Run itself only returns
// an error for invalid parameters, a failure to store results, or
// cancellation of ctx.
func (r *Runner) Run(ctx context.Context, fields []weather.Field) (*Batch, error) {
	if r.Log == nil {
		r.Log = logrus.StandardLogger()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	b := &Batch{ID: uuid.NewString(), Started: time.Now()}
	log := r.Log.WithField("batch", b.ID)
	log.WithFields(logrus.Fields{
		"fields":       len(fields),
		"applications": r.applications(),
		"resistances":  len(r.resistances),
		"workers":      r.workers(),
	}).Info("starting batch")

	var mu sync.Mutex
	collect := func(o Output) {
		mu.Lock()
		b.Outputs = append(b.Outputs, o)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i := range fields {
		f := &fields[i]
		c, ok := r.Crops[f.Planting.Crop]
		if !ok {
			log.Warnf("Location %s NOT USED. Crop %q has no parameters.", f.Planting.InfoID(), f.Planting.Crop)
			r.Metrics.skip()
			continue
		}
		w, days, err := f.Weather(f.Planting.Date)
		if err != nil {
			log.Warnf("Location %s NOT USED. No dates in range.", f.Planting.InfoID())
			r.Metrics.skip()
			continue
		}
		for _, n := range r.applications() {
			for _, res := range r.resistances {
				sc := Scenario{Resistance: res, Applications: n}
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					o := r.run(c, sc, f.Planting, w, days, log)
					if r.Store != nil {
						if err := r.Store.Save(gctx, b.ID, &o.Summary, o.States); err != nil {
							return fmt.Errorf("batch: saving %s: %w", o.InfoID, err)
						}
					}
					if !r.Daily {
						o.States, o.Days = nil, nil
					}
					collect(o)
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return b, err
	}
	Sort(b.Outputs)
	log.WithFields(logrus.Fields{
		"runs":    len(b.Outputs),
		"elapsed": time.Since(b.Started).String(),
	}).Info("batch complete")
	return b, nil
}

// run simulates a single scenario.
func (r *Runner) run(c *crop.Crop, sc Scenario, p weather.Planting, w []eds.Weather, days []weather.Day, log logrus.FieldLogger) Output {
	start := time.Now()
	cfg := c.Config(sc.Resistance, sc.Applications, r.SprayInterval, p.DaysAfterPlanting)
	key := hash.Fingerprint(cfg, w)

	sim := eds.NewSimulation(cfg, w)
	runLog := log.WithFields(logrus.Fields{
		"location":     p.InfoID(),
		"applications": sc.Applications,
		"resistance":   sc.Resistance.Name,
	})
	sim.Log = runLog
	if r.LogDays {
		sim.RunFuncs = append(sim.RunFuncs, eds.Log(runLog))
	}
	err := sim.Init()
	if err == nil {
		err = sim.Run()
	}
	if err == nil {
		err = sim.Cleanup()
	}
	if err != nil {
		runLog.WithError(err).Warn("simulation failed")
		s := failed(sc, p, days, err)
		s.Key = key
		r.Metrics.observe(statusError, time.Since(start), 0)
		return Output{Summary: s, Days: days}
	}
	res := sim.Result()
	s := Summarize(sc, p, days, res)
	s.Key = key
	r.Metrics.observe(statusOK, time.Since(start), res.FinalDay)
	return Output{Summary: s, States: res.States, Days: days}
}

// Sort orders outputs by location, crop, start date, number of
// applications and resistance class.
func Sort(o []Output) {
	sort.SliceStable(o, func(i, j int) bool {
		a, b := &o[i].Summary, &o[j].Summary
		switch {
		case a.LocationID != b.LocationID:
			return a.LocationID < b.LocationID
		case a.Crop != b.Crop:
			return a.Crop < b.Crop
		case !a.Date1.Equal(b.Date1):
			return a.Date1.Before(b.Date1)
		case a.Applications != b.Applications:
			return a.Applications < b.Applications
		case a.Resistance != b.Resistance:
			return a.Resistance < b.Resistance
		}
		return a.InfoID < b.InfoID
	})
}
