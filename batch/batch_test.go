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
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/spatialmodel/eds"
	"github.com/spatialmodel/eds/crop"
	"github.com/spatialmodel/eds/weather"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

var start = time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC)

func testField(id, cropName string, n int) weather.Field {
	days := make([]weather.Day, n)
	for i := range days {
		days[i] = weather.Day{
			Date:        start.AddDate(0, 0, i),
			Temperature: 20,
			PrecipOccur: i%3 == 0,
			Precip:      6,
			Latitude:    40.1,
			Longitude:   -88.2,
		}
	}
	return weather.Field{
		Planting: weather.Planting{
			ID:       id,
			Year:     2020,
			Date:     start,
			DateText: "2020-05-01",
			Crop:     cropName,

			DaysAfterPlanting: eds.NoCutoff,
		},
		Days: days,
	}
}

type memStore struct {
	mu    sync.Mutex
	ids   map[string]int
	days  int
	fails bool
}

func (m *memStore) Save(_ context.Context, batchID string, s *Summary, states []eds.DailyState) error {
	if m.fails {
		return fmt.Errorf("disk full")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids == nil {
		m.ids = make(map[string]int)
	}
	m.ids[batchID]++
	m.days += len(states)
	return nil
}

func testRunner() *Runner {
	return &Runner{
		Crops:        map[string]*crop.Crop{"Corn": crop.Corn()},
		Resistances:  []string{crop.Susceptible, crop.Resistant},
		Applications: []int{0, 1},
		Workers:      2,
		Daily:        true,
	}
}

func TestRun(t *testing.T) {
	r := testRunner()
	r.Metrics = NewMetrics()
	st := new(memStore)
	r.Store = st
	b, err := r.Run(context.Background(), []weather.Field{testField("L1", "Corn", 60)})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Outputs) != 4 {
		t.Fatalf("want 4 outputs, have %d", len(b.Outputs))
	}
	want := []struct {
		apps int
		res  string
	}{
		{0, crop.Resistant}, {0, crop.Susceptible}, {1, crop.Resistant}, {1, crop.Susceptible},
	}
	for i, o := range b.Outputs {
		if o.Applications != want[i].apps || o.Resistance != want[i].res {
			t.Errorf("output %d: have %d %s, want %d %s", i, o.Applications, o.Resistance, want[i].apps, want[i].res)
		}
		if o.Err != nil {
			t.Errorf("output %d: %v", i, o.Err)
		}
		if o.FinalDay != 57 {
			t.Errorf("output %d: final day %d", i, o.FinalDay)
		}
		if len(o.States) != 57 || len(o.Days) != 60 {
			t.Errorf("output %d: %d states and %d days", i, len(o.States), len(o.Days))
		}
		if !o.Date1.Equal(start) || o.NDays != 56 {
			t.Errorf("output %d: dates %v %v %d", i, o.Date1, o.Date2, o.NDays)
		}
		if o.Key == "" {
			t.Errorf("output %d: missing key", i)
		}
	}
	if b.Outputs[0].SevMax >= b.Outputs[1].SevMax {
		t.Errorf("resistant severity %g should be less than susceptible %g",
			b.Outputs[0].SevMax, b.Outputs[1].SevMax)
	}
	if b.Outputs[0].Key == b.Outputs[2].Key {
		t.Error("runs with different inputs share a key")
	}
	if st.ids[b.ID] != 4 || st.days != 4*57 {
		t.Errorf("store has %v runs and %d days", st.ids, st.days)
	}
	if v := testutil.ToFloat64(r.Metrics.runs.WithLabelValues(statusOK)); v != 4 {
		t.Errorf("ok runs = %g", v)
	}
	if v := testutil.ToFloat64(r.Metrics.days); v != 4*57 {
		t.Errorf("simulated days = %g", v)
	}
}

func TestRun_skip(t *testing.T) {
	r := testRunner()
	r.Metrics = NewMetrics()
	r.Daily = false
	late := testField("L2", "Corn", 60)
	late.Planting.Date = start.AddDate(0, 3, 0)
	fields := []weather.Field{
		testField("L1", "Corn", 30),
		late,
		testField("L3", "Wheat", 30),
	}
	b, err := r.Run(context.Background(), fields)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Outputs) != 4 {
		t.Fatalf("want 4 outputs, have %d", len(b.Outputs))
	}
	for _, o := range b.Outputs {
		if o.LocationID != "L1" {
			t.Errorf("unexpected location %s", o.LocationID)
		}
		if o.States != nil || o.Days != nil {
			t.Error("daily output should not be kept")
		}
	}
	if v := testutil.ToFloat64(r.Metrics.runs.WithLabelValues(statusSkipped)); v != 2 {
		t.Errorf("skipped = %g", v)
	}
}

func TestRun_failed(t *testing.T) {
	r := testRunner()
	r.Metrics = NewMetrics()
	b, err := r.Run(context.Background(), []weather.Field{testField("L1", "Corn", 3)})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Outputs) != 4 {
		t.Fatalf("want 4 outputs, have %d", len(b.Outputs))
	}
	for _, o := range b.Outputs {
		if !errors.Is(o.Err, eds.ErrInsufficientWeather) {
			t.Errorf("want insufficient weather, have %v", o.Err)
		}
		if !math.IsNaN(o.SevMax) {
			t.Errorf("failed run has severity %g", o.SevMax)
		}
	}
	if v := testutil.ToFloat64(r.Metrics.runs.WithLabelValues(statusError)); v != 4 {
		t.Errorf("errors = %g", v)
	}
}

func TestRun_storeError(t *testing.T) {
	r := testRunner()
	r.Store = &memStore{fails: true}
	_, err := r.Run(context.Background(), []weather.Field{testField("L1", "Corn", 30)})
	if err == nil {
		t.Fatal("want an error from the store")
	}
}

func TestRun_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testRunner().Run(ctx, []weather.Field{testField("L1", "Corn", 30)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, have %v", err)
	}
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name   string
		modify func(r *Runner)
	}{
		{name: "no crops", modify: func(r *Runner) { r.Crops = nil }},
		{name: "resistance", modify: func(r *Runner) { r.Resistances = []string{"Immune"} }},
		{name: "applications", modify: func(r *Runner) { r.Applications = []int{-1} }},
		{name: "interval", modify: func(r *Runner) { r.SprayInterval = -7 }},
		{name: "table", modify: func(r *Runner) {
			c := crop.Corn()
			c.Tables.P = eds.Table{X: []float64{1}, Y: []float64{1}}
			r.Crops["Corn"] = c
		}},
		{name: "efficacy", modify: func(r *Runner) {
			c := crop.Corn()
			c.Sprays[0].Efficacy = 1.5
			r.Crops["Corn"] = c
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			r := testRunner()
			test.modify(r)
			if err := r.Validate(); err == nil {
				t.Error("want an error")
			}
		})
	}
	r := testRunner()
	r.Resistances = nil
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(r.resistances) != len(crop.DefaultResistances) {
		t.Errorf("default resistances not used: %v", r.resistances)
	}
}

func TestSort(t *testing.T) {
	d2 := start.AddDate(0, 0, 1)
	o := []Output{
		{Summary: Summary{LocationID: "b", Crop: "Corn", Date1: start}},
		{Summary: Summary{LocationID: "a", Crop: "Soy", Date1: start}},
		{Summary: Summary{LocationID: "a", Crop: "Corn", Date1: d2}},
		{Summary: Summary{LocationID: "a", Crop: "Corn", Date1: start, Applications: 1}},
		{Summary: Summary{LocationID: "a", Crop: "Corn", Date1: start, Resistance: "Susceptible"}},
		{Summary: Summary{LocationID: "a", Crop: "Corn", Date1: start, Resistance: "Moderate"}},
	}
	Sort(o)
	want := []string{"a Corn 0 0 Moderate", "a Corn 0 0 Susceptible", "a Corn 0 1 ",
		"a Corn 1 0 ", "a Soy 0 0 ", "b Corn 0 0 "}
	for i, x := range o {
		have := fmt.Sprintf("%s %s %d %d %s", x.LocationID, x.Crop,
			int(x.Date1.Sub(start).Hours()/24), x.Applications, x.Resistance)
		if have != want[i] {
			t.Errorf("%d: have %q, want %q", i, have, want[i])
		}
	}
}
