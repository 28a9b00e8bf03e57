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

// Package crop provides the crop-specific rate tables, fungicide schedules
// and genetic resistance classes used to configure disease severity
// simulations, either built in or loaded from TOML or Microsoft Excel files.
package crop

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/eds"
)

// Crop holds the parameters of a crop.
type Crop struct {
	Name string `toml:"name"`

	Tables   eds.CropTables `toml:"tables"`
	Residual eds.Table      `toml:"residual"` // cumulative post-spray rain [mm] -> residue fraction
	Sprays   []eds.Spray    `toml:"sprays"`

	IPOpt   float64 `toml:"ip_opt"`   // optimal incubation period [days]
	Inocp   float64 `toml:"inocp"`    // daily inoculum after day 10 [sites/day]
	GDUBase float64 `toml:"gdu_base"` // base temperature [°C]
	GDUMin  float64 `toml:"gdu_min"`  // lower bound of daily GDU
	GDUMax  float64 `toml:"gdu_max"`  // upper bound of daily GDU
}

// Validate checks the crop's tables and spray schedule.
func (c *Crop) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("crop: missing name")
	}
	if err := c.Tables.Validate(); err != nil {
		return fmt.Errorf("crop %s: %w", c.Name, err)
	}
	f := eds.Fungicide{Sprays: c.Sprays, Residual: c.Residual}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("crop %s: %w", c.Name, err)
	}
	if c.GDUMax < c.GDUMin {
		return fmt.Errorf("crop %s: gdu_max %g is less than gdu_min %g", c.Name, c.GDUMax, c.GDUMin)
	}
	return nil
}

// Fungicide returns the crop's spray schedule limited to the first
// applications sprays, or nil if applications is zero.
func (c *Crop) Fungicide(applications, interval int) *eds.Fungicide {
	if applications <= 0 {
		return nil
	}
	var sprays []eds.Spray
	for _, s := range c.Sprays {
		if s.Number <= applications {
			sprays = append(sprays, s)
		}
	}
	return &eds.Fungicide{Sprays: sprays, Residual: c.Residual, Interval: interval}
}

// Config returns a simulation configuration for the crop with the given
// resistance class, number of spray applications, spray interval and
// simulation length.
func (c *Crop) Config(r eds.Resistance, applications, interval, daysAfterPlanting int) eds.Config {
	return eds.Config{
		Tables:            c.Tables,
		Resistance:        r,
		Fungicide:         c.Fungicide(applications, interval),
		Inocp:             c.Inocp,
		IPOpt:             c.IPOpt,
		GDUBase:           c.GDUBase,
		DaysAfterPlanting: daysAfterPlanting,
	}
}

// Load reads a crop from a TOML (.toml) or Microsoft Excel (.xlsx) file.
// name sets the crop name for Excel files and overrides the name in TOML
// files if not empty.
func Load(path, name string) (*Crop, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		c, err := LoadTOML(path)
		if err != nil {
			return nil, err
		}
		if name != "" {
			c.Name = name
		}
		return c, nil
	case ".xlsx":
		return LoadExcel(path, name)
	default:
		return nil, fmt.Errorf("crop: unsupported parameter file type %q", path)
	}
}
