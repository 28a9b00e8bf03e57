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

// Package eds estimates daily plant-disease severity for a field from a
// daily weather record and crop-specific rate tables, optionally including
// the effect of fungicide sprays.
//
// A simulation starts from a fixed day-one state and steps forward one day
// at a time. Each day's state is computed from the previous day's state,
// the history of new infections, and that day's weather. Newly infected
// sites become infectious after a temperature-dependent latent period
// (see LatencyQueue) and are removed after the incubation period.
package eds

// Version gives the version number.
const Version = "0.3.0"
