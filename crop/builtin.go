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

package crop

import (
	"fmt"
	"sort"

	"github.com/spatialmodel/eds"
)

// Names of the built-in resistance classes.
const (
	Susceptible = "Susceptible"
	Moderate    = "Moderate"
	Resistant   = "Resistant"
)

var resistances = map[string]eds.Resistance{
	Susceptible: {Name: Susceptible, POpt: 7, RcOpt: 0.35, RRLEX: 0.1},
	Moderate:    {Name: Moderate, POpt: 10, RcOpt: 0.25, RRLEX: 0.01},
	Resistant:   {Name: Resistant, POpt: 14, RcOpt: 0.15, RRLEX: 0.0001},
}

// DefaultResistances lists the built-in resistance classes from most to
// least susceptible.
var DefaultResistances = []string{Susceptible, Moderate, Resistant}

// ResistanceClass returns the built-in resistance class with the given name.
func ResistanceClass(name string) (eds.Resistance, error) {
	r, ok := resistances[name]
	if !ok {
		return eds.Resistance{}, fmt.Errorf("crop: unknown resistance class %q", name)
	}
	return r, nil
}

func defaultSprays() []eds.Spray {
	return []eds.Spray{
		{Number: 1, Moment: 45, Efficacy: 0.4},
		{Number: 2, Moment: 62, Efficacy: 0.4},
		{Number: 3, Moment: 79, Efficacy: 0.4},
	}
}

func defaultResidual() eds.Table {
	return eds.MustTable(
		[]float64{0, 5, 10, 15, 20},
		[]float64{1, 0.8, 0.5, 0.25, 0},
	)
}

// Corn returns the built-in parameters for corn.
func Corn() *Crop {
	return &Crop{
		Name: "Corn",
		Tables: eds.CropTables{
			IP: eds.MustTable(
				[]float64{10, 13, 15.5, 17, 20, 26, 30, 35},
				[]float64{0, 0.14, 0.27, 0.82, 1, 0.92, 0.41, 0},
			),
			P: eds.MustTable(
				[]float64{15, 20, 25},
				[]float64{0.6, 0.81, 1},
			),
			RcT: eds.MustTable(
				[]float64{15, 20, 22.5, 24, 26, 30},
				[]float64{0.22, 1, 0.44, 0.43, 0.41, 0.22},
			),
			DVS8: eds.MustTable(
				[]float64{110, 200, 350, 475, 610, 740, 1135, 1660, 1925, 2320, 2700},
				[]float64{0, 1, 2, 3, 4, 5, 6, 8, 9, 10, 11},
			),
			RcA: eds.MustTable(
				[]float64{0, 1, 2, 3, 4, 5, 6, 7},
				[]float64{1, 1, 1, 1, 1, 1, 1, 1},
			),
		},
		Residual: defaultResidual(),
		Sprays:   defaultSprays(),
		IPOpt:    14,
		Inocp:    10,
		GDUBase:  10,
		GDUMin:   10,
		GDUMax:   30,
	}
}

// Soy returns the built-in parameters for soybean.
func Soy() *Crop {
	return &Crop{
		Name: "Soy",
		Tables: eds.CropTables{
			IP: eds.MustTable(
				[]float64{5, 11, 17, 23, 29, 35},
				[]float64{0, 0.33, 0.6, 1, 1, 0},
			),
			P: eds.MustTable(
				[]float64{0, 4, 8, 12, 16, 20, 24, 28, 32, 36, 40},
				[]float64{0, 0.31, 0.39, 0.53, 0.82, 1, 1, 0.75, 0.6, 0.3, 0},
			),
			RcT: eds.MustTable(
				[]float64{10, 12.5, 15, 17.5, 20, 23, 25, 27.5, 30},
				[]float64{0, 0.57, 0.88, 1, 1, 0.86, 0.61, 0.41, 0},
			),
			DVS8: eds.MustTable(
				[]float64{137, 366, 595, 824, 1053, 1282, 1511, 1740},
				[]float64{0, 1, 2, 3, 4, 5, 6, 7},
			),
			RcA: eds.MustTable(
				[]float64{0, 1, 2, 3, 4, 5, 6, 7},
				[]float64{1, 1, 1, 0.1, 0.0001, 0.0001, 0.0001, 0.0001},
			),
		},
		Residual: defaultResidual(),
		Sprays:   defaultSprays(),
		IPOpt:    28,
		Inocp:    10,
		GDUBase:  14,
		GDUMin:   14,
		GDUMax:   40,
	}
}

// Builtin returns the built-in crops, keyed by name.
func Builtin() map[string]*Crop {
	return map[string]*Crop{"Corn": Corn(), "Soy": Soy()}
}

// Names returns the sorted names of the crops in m.
func Names(m map[string]*Crop) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
