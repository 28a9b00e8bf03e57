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

	"github.com/sirupsen/logrus"
)

// Weather is the weather on one day of a field's record.
type Weather struct {
	Day         int     // days since planting, starting at 1
	Temperature float64 // mean of daily maximum and minimum [°C]
	PrecipOccur bool    // whether precipitation exceeded the rain threshold
	Precip      float64 // [mm]
}

// CropTables holds the crop-specific rate tables.
type CropTables struct {
	IP   Table `toml:"ip"`   // temperature [°C] -> incubation period multiplier
	P    Table `toml:"p"`    // temperature [°C] -> latent period divisor
	RcT  Table `toml:"rc_t"` // temperature [°C] -> infection rate factor
	DVS8 Table `toml:"dvs8"` // cumulative GDU -> development stage
	RcA  Table `toml:"rc_a"` // development stage -> infection rate factor
}

// Validate checks and prepares each of the tables.
func (c *CropTables) Validate() error {
	for _, t := range []struct {
		name string
		t    *Table
	}{
		{"ip", &c.IP}, {"p", &c.P}, {"rc_t", &c.RcT}, {"dvs8", &c.DVS8}, {"rc_a", &c.RcA},
	} {
		if err := t.t.Validate(); err != nil {
			return fmt.Errorf("eds: %s table: %w", t.name, err)
		}
	}
	return nil
}

// Resistance holds the parameters of a genetic resistance class.
type Resistance struct {
	Name  string  `toml:"name"`
	POpt  float64 `toml:"p_opt"`  // optimal latent period [days]
	RcOpt float64 `toml:"rc_opt"` // maximum infection rate [1/day]
	RRLEX float64 `toml:"rrlex"`  // relative lesion expansion rate [1/day]
}

// Config holds the parameters of a simulation.
type Config struct {
	Tables     CropTables
	Resistance Resistance

	// Fungicide is the spray schedule. It may be nil.
	Fungicide *Fungicide

	Inocp   float64 // daily inoculum after day 10 [sites/day]
	IPOpt   float64 // optimal incubation period [days]
	GDUBase float64 // base temperature for growing degree units [°C]

	// DaysAfterPlanting is the last day to simulate. With NoCutoff the
	// simulation continues to the end of the weather record.
	DaysAfterPlanting int
}

// Validate checks the configuration before any simulation is run.
func (c *Config) Validate() error {
	if err := c.Tables.Validate(); err != nil {
		return err
	}
	if err := c.Fungicide.Validate(); err != nil {
		return err
	}
	for _, v := range []struct {
		name string
		v    float64
	}{
		{"p_opt", c.Resistance.POpt}, {"rc_opt", c.Resistance.RcOpt}, {"rrlex", c.Resistance.RRLEX},
		{"inocp", c.Inocp}, {"ip_opt", c.IPOpt}, {"gdu_base", c.GDUBase},
	} {
		if math.IsNaN(v.v) || math.IsInf(v.v, 0) {
			return fmt.Errorf("eds: parameter %s is %g", v.name, v.v)
		}
	}
	if c.Resistance.POpt <= 0 {
		return fmt.Errorf("eds: resistance class %q: p_opt must be positive, got %g",
			c.Resistance.Name, c.Resistance.POpt)
	}
	return nil
}

// Manipulator is a function that operates on a simulation.
type Manipulator func(s *Simulation) error

// Simulation holds the state of a single field simulation.
type Simulation struct {
	Config
	Weather []Weather

	// InitFuncs are run once, before the simulation starts.
	InitFuncs []Manipulator
	// RunFuncs are run once per simulated day until Done is true.
	RunFuncs []Manipulator
	// CleanupFuncs are run once after the simulation finishes.
	CleanupFuncs []Manipulator

	// Day is the day currently being simulated.
	Day int

	// States holds one record per simulated day; States[d-1] is day d.
	States []DailyState

	// RI holds the new infection rate for each day of the weather
	// record; RI[d-1] is day d.
	RI []float64

	// Done is set when the simulation has finished.
	Done bool

	// Log receives diagnostic messages. If nil, the standard logger is used.
	Log logrus.FieldLogger

	occur   []bool
	queue   *LatencyQueue
	pending DailyState // state carried into Day before it is stepped
}

// Result is the outcome of a simulation.
type Result struct {
	States []DailyState

	// RI holds the new infection rate for each day of the weather record.
	RI []float64

	// FinalDay is the last day simulated.
	FinalDay int
}

// NewSimulation returns a simulation of the given weather record with the
// standard initialization and daily step functions.
func NewSimulation(c Config, w []Weather) *Simulation {
	return &Simulation{
		Config:    c,
		Weather:   w,
		InitFuncs: []Manipulator{CheckConfig(), CheckWeather(), SeedDayOne()},
		RunFuncs: []Manipulator{
			NextDay(),
			CutoffAfter(c.DaysAfterPlanting),
			StepDay(),
		},
	}
}

// Simulate runs a simulation of the given weather record and returns
// its result.
func Simulate(c Config, w []Weather) (*Result, error) {
	s := NewSimulation(c, w)
	if err := s.Init(); err != nil {
		return nil, err
	}
	if err := s.Run(); err != nil {
		return nil, err
	}
	if err := s.Cleanup(); err != nil {
		return nil, err
	}
	return s.Result(), nil
}

// Init initializes the simulation by running s.InitFuncs.
func (s *Simulation) Init() error {
	if s.Log == nil {
		s.Log = logrus.StandardLogger()
	}
	for _, f := range s.InitFuncs {
		if err := f(s); err != nil {
			return err
		}
	}
	return nil
}

// Run carries out the simulation by running s.RunFuncs until s.Done is
// true. Once Done is set, the remaining RunFuncs for that day are skipped.
func (s *Simulation) Run() error {
	for !s.Done {
		for _, f := range s.RunFuncs {
			if err := f(s); err != nil {
				return err
			}
			if s.Done {
				break
			}
		}
	}
	return nil
}

// Cleanup finalizes the simulation by running s.CleanupFuncs.
func (s *Simulation) Cleanup() error {
	for _, f := range s.CleanupFuncs {
		if err := f(s); err != nil {
			return err
		}
	}
	return nil
}

// Result returns the outcome of a finished simulation.
func (s *Simulation) Result() *Result {
	return &Result{
		States:   s.States,
		RI:       s.RI,
		FinalDay: len(s.States),
	}
}

// LastDay returns the last day that the weather record allows to be
// simulated. The rainfall score looks three days ahead, so the final
// three days of the record are not simulated.
func (s *Simulation) LastDay() int {
	return len(s.Weather) - 3
}

// CheckWeather returns a function that checks that the weather record is
// long enough to simulate and prepares the rainfall series.
func CheckWeather() Manipulator {
	return func(s *Simulation) error {
		if len(s.Weather) < 4 {
			return fmt.Errorf("eds: %d days of weather, need at least 4: %w",
				len(s.Weather), ErrInsufficientWeather)
		}
		s.occur = make([]bool, len(s.Weather))
		for i, w := range s.Weather {
			if math.IsNaN(w.Temperature) || math.IsInf(w.Temperature, 0) {
				return fmt.Errorf("eds: temperature on day %d is %g: %w",
					i+1, w.Temperature, ErrInsufficientWeather)
			}
			s.occur[i] = w.PrecipOccur
		}
		s.RI = make([]float64, len(s.Weather))
		s.queue = NewLatencyQueue(len(s.Weather))
		s.States = make([]DailyState, 0, s.LastDay())
		return nil
	}
}

// Log returns a function that logs the state of the simulation at the
// debug level after each simulated day.
func Log(l logrus.FieldLogger) Manipulator {
	return func(s *Simulation) error {
		if len(s.States) == 0 {
			return nil
		}
		st := s.States[len(s.States)-1]
		l.WithFields(logrus.Fields{
			"day":   st.Day,
			"sev":   st.Sev,
			"audpc": st.AUDPC,
			"ri":    st.RI,
			"rt":    st.RT,
		}).Debug("simulated day")
		return nil
	}
}
