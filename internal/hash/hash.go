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

// Package hash computes fingerprints of simulation inputs so that stored
// results can be matched to the inputs that produced them.
package hash

import (
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// Fingerprint returns a key identifying the given values. Equal values
// give equal keys.
func Fingerprint(values ...interface{}) string {
	h := fnv.New128a()
	for _, v := range values {
		write(h, v)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func write(h hash.Hash, v interface{}) {
	if s, ok := v.(fmt.Stringer); ok {
		fmt.Fprint(h, s.String())
		return
	}
	printer.Fprintf(h, "%#v", v)
}

// printer writes a complete, deterministic representation of a value,
// including unexported fields and sorted map keys.
var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}
