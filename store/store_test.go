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


package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/spatialmodel/eds"
	"github.com/spatialmodel/eds/batch"
	"github.com/spatialmodel/eds/crop"
	"github.com/spatialmodel/eds/weather"
)

var start = time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)

func testField(n int) weather.Field {
	days := make([]weather.Day, n)
	for i := range days {
		days[i] = weather.Day{
			Date:        start.AddDate(0, 0, i),
			Temperature: 22,
			PrecipOccur: i%4 == 0,
			Latitude:    41.6,
			Longitude:   -93.6,
		}
	}
	return weather.Field{
		Planting: weather.Planting{ID: "IA1", Year: 2021, Date: start, DateText: "2021-06-01", Crop: "Soy",
			DaysAfterPlanting: eds.NoCutoff},
		Days:     days,
	}
}

func TestStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "results", "eds.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	r := &batch.Runner{
		Crops:        map[string]*crop.Crop{"Soy": crop.Soy()},
		Resistances:  []string{crop.Moderate},
		Applications: []int{0, 2},
		Store:        s,
	}
	ctx := context.Background()
	b, err := r.Run(ctx, []weather.Field{testField(40)})
	if err != nil {
		t.Fatal(err)
	}
	sums, err := s.Summaries(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != len(b.Outputs) {
		t.Fatalf("have %d summaries, want %d", len(sums), len(b.Outputs))
	}
	for i, have := range sums {
		want := b.Outputs[i].Summary
		if have.Key != want.Key || have.InfoID != want.InfoID || have.Applications != want.Applications {
			t.Errorf("summary %d: have %+v, want %+v", i, have, want)
		}
		if !have.Date1.Equal(want.Date1) || !have.Date2.Equal(want.Date2) || have.NDays != want.NDays {
			t.Errorf("summary %d dates: have %v %v, want %v %v", i, have.Date1, have.Date2, want.Date1, want.Date2)
		}
		if have.SevMax != want.SevMax || have.AUC != want.AUC || have.SevMedian != want.SevMedian {
			t.Errorf("summary %d severity: have %g %g %g, want %g %g %g", i,
				have.SevMedian, have.SevMax, have.AUC, want.SevMedian, want.SevMax, want.AUC)
		}
	}
	n, err := s.DayCount(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2*37 {
		t.Errorf("have %d days, want %d", n, 2*37)
	}
	if sums, err := s.Summaries(ctx, "no such batch"); err != nil || len(sums) != 0 {
		t.Errorf("unknown batch: %v %v", sums, err)
	}
}

func TestStore_failed(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()
	sum := &batch.Summary{
		LocationID: "X",
		InfoID:     "X_2021",
		Crop:       "Corn",
		Resistance: crop.Resistant,
		SevMedian:  math.NaN(),
		SevMax:     math.NaN(),
		AUC:        math.NaN(),
		Err:        eds.ErrInsufficientWeather,
	}
	if err := s.Save(ctx, "b1", sum, nil); err != nil {
		t.Fatal(err)
	}
	sums, err := s.Summaries(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 {
		t.Fatalf("have %d summaries", len(sums))
	}
	have := sums[0]
	if !math.IsNaN(have.SevMax) || !have.Date1.IsZero() {
		t.Errorf("missing values not restored: %+v", have)
	}
	if have.Err == nil || have.Err.Error() != eds.ErrInsufficientWeather.Error() {
		t.Errorf("error not restored: %v", have.Err)
	}
}

func TestSave_replace(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()
	states := []eds.DailyState{{Day: 1, Sev: 0.1}, {Day: 2, Sev: 0.2, FungEffcCur: math.NaN()}}
	sum := &batch.Summary{InfoID: "X", Key: "k"}
	if err := s.Save(ctx, "b1", sum, states); err != nil {
		t.Fatal(err)
	}
	// Saving again replaces the earlier rows.
	if err := s.Save(ctx, "b1", sum, states); err != nil {
		t.Fatal(err)
	}
	n, err := s.DayCount(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("have %d days, want 2", n)
	}
	var sev float64
	if err := s.db.QueryRow(`SELECT "Sev" FROM days WHERE "Day" = 2`).Scan(&sev); err != nil {
		t.Fatal(err)
	}
	if sev != 0.2 {
		t.Errorf("sev = %g", sev)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("want an error for an empty path")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	err = s.Save(ctx, "b", &batch.Summary{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, have %v", err)
	}
}
