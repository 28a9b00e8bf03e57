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
	"math"
	"reflect"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func testConfig() Config {
	return Config{
		Tables: CropTables{
			IP:   MustTable([]float64{10, 20, 35}, []float64{0, 1, 0}),
			P:    MustTable([]float64{15, 25}, []float64{0.6, 1}),
			RcT:  MustTable([]float64{15, 20, 30}, []float64{0.2, 1, 0.2}),
			DVS8: MustTable([]float64{100, 1000, 2000}, []float64{0, 6, 10}),
			RcA:  MustTable([]float64{0, 7}, []float64{1, 1}),
		},
		Resistance: Resistance{Name: "test", POpt: 7, RcOpt: 0.35, RRLEX: 0.1},
		Inocp:      10,
		IPOpt:      14,
		GDUBase:    10,

		DaysAfterPlanting: NoCutoff,
	}
}

// testWeather returns n days of weather that varies in temperature and
// has rain on every third day.
func testWeather(n int) []Weather {
	w := make([]Weather, n)
	for i := range w {
		w[i] = Weather{
			Day:         i + 1,
			Temperature: 20 + 4*math.Sin(float64(i)/5),
		}
		if i%3 == 0 {
			w[i].Precip = 6
			w[i].PrecipOccur = true
		}
	}
	return w
}

func constantWeather(n int, temp float64) []Weather {
	w := make([]Weather, n)
	for i := range w {
		w[i] = Weather{Day: i + 1, Temperature: temp}
	}
	return w
}

func TestConservation(t *testing.T) {
	c := testConfig()
	c.Fungicide = testFungicide()
	r, err := Simulate(c, testWeather(100))
	if err != nil {
		t.Fatal(err)
	}
	if r.FinalDay != 97 || len(r.States) != 97 {
		t.Fatalf("want 97 days, have final day %d and %d states", r.FinalDay, len(r.States))
	}
	for _, s := range r.States {
		if s.TotSites != s.HSEN+s.H+s.DIS {
			t.Errorf("day %d: TotSites %g != HSEN+H+DIS %g", s.Day, s.TotSites, s.HSEN+s.H+s.DIS)
		}
		if s.DIS != s.R+s.I+s.CumuLeak+s.L {
			t.Errorf("day %d: DIS %g != R+I+CumuLeak+L %g", s.Day, s.DIS, s.R+s.I+s.CumuLeak+s.L)
		}
		if s.CumuLeak != s.LeakL+s.LeakI {
			t.Errorf("day %d: CumuLeak %g != LeakL+LeakI %g", s.Day, s.CumuLeak, s.LeakL+s.LeakI)
		}
		if s.Sev < 0 || s.Sev > 1 {
			t.Errorf("day %d: severity %g out of bounds", s.Day, s.Sev)
		}
		if s.RI != r.RI[s.Day-1] {
			t.Errorf("day %d: RI %g != series %g", s.Day, s.RI, r.RI[s.Day-1])
		}
	}
}

func TestDayOne(t *testing.T) {
	r, err := Simulate(testConfig(), constantWeather(4, 20))
	if err != nil {
		t.Fatal(err)
	}
	if r.FinalDay != 1 {
		t.Fatalf("final day: want 1, have %d", r.FinalDay)
	}
	s := r.States[0]
	want := DailyState{
		Day: 1, Temp: 20, IP: 14, P: 7 / 0.8,
		H: 2500000, I: 14, DIS: 14, TotSites: 2500014, Sev: 14. / 2500014,
		RAUPC: 14. / 2500014, GDU: 10, RTInc: 10, RcW: 1, RcT: 1, RcA: 1, RcOpt: 0.25,
		POpt: 7, IPOpt: 14, RRLEX: 0.1, RRSEN: 0.002307, RRG: 0.173, RRDD: 0.0001,
		SiteMax: 10000000, Agg: 1, Inocp: 10, REM: 0.999948211789, RDI: 0.000100004821661,
		FungEffcCur: 1, RcFCur: 1, Residual: 1, FungEffecRes: 1, RcRes: 1, EffRes: 1,
	}
	want.Rc = 0.25
	want.COFR = 1 - 14./5000000
	want.RI = want.Rc*want.I*want.COFR + 1
	want.RG = 0.173 * 2500000 * (1 - 2500014./10000000)
	want.RSEN = 0.0001 + 0.002307*2500000
	want.RLEX = 0.1 * 14 * want.COFR
	have := s.Values()
	names, _, _ := Columns()
	for i, v := range want.Values() {
		if different(have[i], v, 1e-12) && !(v == 0 && have[i] == 0) {
			t.Errorf("%s: want %g, have %g", names[i], v, have[i])
		}
	}
}

func TestLatencyPeriod(t *testing.T) {
	c := testConfig()
	// A latent period of exactly 5 days at every temperature.
	c.Tables.P = MustTable([]float64{0, 50}, []float64{1, 1})
	c.Resistance.POpt = 5
	r, err := Simulate(c, testWeather(40))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range r.States {
		var want float64
		if s.Day > 5 {
			want = r.RI[s.Day-6]
		}
		if s.RT != want {
			t.Errorf("day %d: RT want %g, have %g", s.Day, want, s.RT)
		}
	}
}

func TestRemovalDay(t *testing.T) {
	for _, tt := range []struct {
		d    int
		ip   float64
		want int
	}{
		{d: 10, ip: 3.5, want: 6},
		{d: 10, ip: 3, want: 6},
		{d: 5, ip: 3, want: 1},
		{d: 5, ip: 4.2, want: 4},
		{d: 5, ip: -2, want: 4},
	} {
		if have := removalDay(tt.d, tt.ip); have != tt.want {
			t.Errorf("removalDay(%d, %g): want %d, have %d", tt.d, tt.ip, tt.want, have)
		}
	}
}

func TestRemoval(t *testing.T) {
	c := testConfig()
	r, err := Simulate(c, constantWeather(60, 20))
	if err != nil {
		t.Fatal(err)
	}
	// ip is 14 days at 20 °C.
	for _, s := range r.States[1:] {
		want := r.States[0].REM
		if s.Day > 14 {
			k := s.Day - 15
			if k < 1 {
				k = s.Day - 1
			}
			want = r.States[k-1].RT
		}
		if s.REM != want {
			t.Errorf("day %d: REM want %g, have %g", s.Day, want, s.REM)
		}
	}
}

func TestIdempotence(t *testing.T) {
	c := testConfig()
	c.Fungicide = testFungicide()
	w := testWeather(80)
	r1, err := Simulate(c, w)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Simulate(c, w)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Error("repeated simulations differ")
	}
}

func TestFungicideReducesSeverity(t *testing.T) {
	c := testConfig()
	w := testWeather(100)
	r0, err := Simulate(c, w)
	if err != nil {
		t.Fatal(err)
	}
	c.Fungicide = testFungicide()
	r1, err := Simulate(c, w)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 9; i++ {
		if r0.States[i] != r1.States[i] {
			t.Errorf("day %d: states differ before the first spray", i+1)
		}
	}
	last := len(r0.States) - 1
	if r1.States[last].Sev >= r0.States[last].Sev {
		t.Errorf("severity with fungicide %g should be less than without %g",
			r1.States[last].Sev, r0.States[last].Sev)
	}
	var washed bool
	for _, s := range r1.States {
		if s.ResSpray > 0 {
			washed = true
		}
	}
	if !washed {
		t.Error("no rainfall washed into the fungicide residue")
	}
}

func TestCutoff(t *testing.T) {
	c := testConfig()
	c.DaysAfterPlanting = 20
	r, err := Simulate(c, testWeather(60))
	if err != nil {
		t.Fatal(err)
	}
	if r.FinalDay != 21 || len(r.States) != 21 {
		t.Fatalf("want final day 21, have %d (%d states)", r.FinalDay, len(r.States))
	}
	prev := r.States[19]
	want := DailyState{
		Day:    21,
		I:      prev.I + (prev.RT + prev.RLEX - prev.REM - prev.RDI),
		L:      prev.L + (r.RI[19] - prev.RT - prev.RDL),
		AUDPC:  prev.AUDPC + prev.RAUPC,
		GDUSum: prev.GDUSum + prev.RTInc,
	}
	if have := r.States[20]; have != want {
		t.Errorf("final state:\nwant %+v\nhave %+v", want, have)
	}
}

func TestCutoff_zero(t *testing.T) {
	c := testConfig()
	c.DaysAfterPlanting = 0
	r, err := Simulate(c, testWeather(60))
	if err != nil {
		t.Fatal(err)
	}
	if r.FinalDay != 2 || len(r.States) != 2 {
		t.Fatalf("want final day 2, have %d (%d states)", r.FinalDay, len(r.States))
	}
	if last := r.States[1]; last.Day != 2 || last.Sev != 0 || last.I == 0 {
		t.Errorf("final state: %+v", last)
	}
}

func TestErrors(t *testing.T) {
	for _, tt := range []struct {
		name    string
		modify  func(*Config)
		weather []Weather
		want    error
	}{
		{
			name:    "short weather",
			modify:  func(*Config) {},
			weather: constantWeather(3, 20),
			want:    ErrInsufficientWeather,
		},
		{
			name:    "no weather",
			modify:  func(*Config) {},
			weather: nil,
			want:    ErrInsufficientWeather,
		},
		{
			name:    "invalid table",
			modify:  func(c *Config) { c.Tables.RcA = Table{X: []float64{1}, Y: []float64{1}} },
			weather: constantWeather(10, 20),
			want:    ErrInvalidTable,
		},
		{
			name: "invalid schedule",
			modify: func(c *Config) {
				c.Fungicide = testFungicide()
				c.Fungicide.Sprays[0].Efficacy = 2
			},
			weather: constantWeather(10, 20),
			want:    ErrInvalidSchedule,
		},
		{
			name:    "infinite latent period",
			modify:  func(c *Config) { c.Tables.P = MustTable([]float64{0, 30}, []float64{0, 0}) },
			weather: constantWeather(10, 20),
			want:    ErrNumericDegeneracy,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			tt.modify(&c)
			_, err := Simulate(c, tt.weather)
			if !errors.Is(err, tt.want) {
				t.Errorf("want %v, have %v", tt.want, err)
			}
		})
	}
}

func TestDegeneracyError(t *testing.T) {
	c := testConfig()
	c.Tables.P = MustTable([]float64{0, 30}, []float64{0, 0})
	_, err := Simulate(c, constantWeather(10, 20))
	var de *DegeneracyError
	if !errors.As(err, &de) {
		t.Fatalf("want *DegeneracyError, have %v", err)
	}
	if de.Day != 1 || de.Quantity != "p" || !math.IsInf(de.Value, 1) {
		t.Errorf("unexpected error detail: %+v", de)
	}
}

func TestColumns(t *testing.T) {
	names, desc, units := Columns()
	if len(names) != len(desc) || len(names) != len(units) {
		t.Fatal("column metadata lengths differ")
	}
	if names[0] != "Day" || units[0] != "day" {
		t.Errorf("first column: have %s [%s]", names[0], units[0])
	}
	if len(DailyState{}.Values()) != len(names) {
		t.Error("values and columns differ in length")
	}
}

// TestStepDayDegeneracy steps a carried-forward state whose pools have been
// drained so that the healthy or total site pool is no longer positive.
func TestStepDayDegeneracy(t *testing.T) {
	for _, tt := range []struct {
		name     string
		drain    func(s *Simulation)
		quantity string
		value    float64
	}{
		{
			name: "healthy exhausted",
			drain: func(s *Simulation) {
				p := &s.pending
				p.H, p.RG, p.RSEN, p.RLEX = 0, 0, 0, 0
				s.RI[0] = 0
			},
			quantity: "H",
			value:    0,
		},
		{
			name: "healthy negative",
			drain: func(s *Simulation) {
				p := &s.pending
				p.H, p.RG, p.RSEN, p.RLEX = 1, 0, 0, 0
				s.RI[0] = 5
			},
			quantity: "H",
			value:    -4,
		},
		{
			name: "no sites",
			drain: func(s *Simulation) {
				p := &s.pending
				p.H, p.RG, p.RSEN, p.RLEX = 10, 0, 0, 0
				p.HSEN = -20
				p.I, p.L, p.R, p.LeakI, p.LeakL = 0, 0, 0, 0, 0
				p.RDI, p.RDL, p.REM = 0, 0, 0
				s.RI[0] = 0
			},
			quantity: "TotSites",
			value:    -10,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSimulation(testConfig(), constantWeather(10, 20))
			if err := s.Init(); err != nil {
				t.Fatal(err)
			}
			if err := NextDay()(s); err != nil {
				t.Fatal(err)
			}
			tt.drain(s)
			err := StepDay()(s)
			if !errors.Is(err, ErrNumericDegeneracy) {
				t.Fatalf("want %v, have %v", ErrNumericDegeneracy, err)
			}
			var de *DegeneracyError
			if !errors.As(err, &de) {
				t.Fatalf("want *DegeneracyError, have %T", err)
			}
			if de.Day != 2 || de.Quantity != tt.quantity || de.Value != tt.value {
				t.Errorf("want day 2 %s = %g, have %+v", tt.quantity, tt.value, de)
			}
			if len(s.States) != 1 {
				t.Errorf("degenerate day was recorded: %d states", len(s.States))
			}
		})
	}
}
