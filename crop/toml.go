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
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadTOML reads crop parameters from a TOML file, for example:
//
//	name = "Corn"
//	ip_opt = 14.0
//	inocp = 10.0
//	gdu_base = 10.0
//	gdu_min = 10.0
//	gdu_max = 30.0
//
//	[tables.ip]
//	x = [10.0, 20.0, 35.0]
//	y = [0.0, 1.0, 0.0]
//	# ... tables.p, tables.rc_t, tables.dvs8 and tables.rc_a
//
//	[residual]
//	x = [0.0, 20.0]
//	y = [1.0, 0.0]
//
//	[[sprays]]
//	number = 1
//	moment = 45
//	efficacy = 0.4
//
// Numeric parameters other than the spray number and moment must be
// written as floats. Unrecognized keys are an error.
func LoadTOML(path string) (*Crop, error) {
	c := new(Crop)
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("crop: reading %s: %v", path, err)
	}
	if u := md.Undecoded(); len(u) > 0 {
		keys := make([]string, len(u))
		for i, k := range u {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("crop: %s: unrecognized keys %s", path, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
