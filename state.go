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
	"reflect"
)

// DailyState holds the state of a field on one simulated day. A DailyState
// is never modified after the following day has been computed.
type DailyState struct {
	Day int `desc:"Days since planting" units:"day"`

	Temp   float64 `desc:"Mean daily temperature" units:"°C"`
	GDU    float64 `desc:"Growing degree units accumulated today" units:"°C day"`
	RTInc  float64 `desc:"Increment to cumulative growing degree units" units:"°C day"`
	GDUSum float64 `desc:"Cumulative growing degree units" units:"°C day"`
	DVS8   float64 `desc:"Crop development stage" units:"stage"`
	IP     float64 `desc:"Incubation period" units:"days"`
	P      float64 `desc:"Latent period" units:"days"`

	H        float64 `desc:"Healthy sites" units:"sites"`
	HSEN     float64 `desc:"Healthy sites lost to senescence" units:"sites"`
	L        float64 `desc:"Latently infected sites" units:"sites"`
	I        float64 `desc:"Infectious sites" units:"sites"`
	R        float64 `desc:"Removed sites" units:"sites"`
	LeakL    float64 `desc:"Latent sites lost to mortality" units:"sites"`
	LeakI    float64 `desc:"Infectious sites lost to mortality" units:"sites"`
	CumuLeak float64 `desc:"Total sites lost to mortality" units:"sites"`
	DIS      float64 `desc:"Diseased sites" units:"sites"`
	TotSites float64 `desc:"Total sites" units:"sites"`
	Sev      float64 `desc:"Disease severity" units:"fraction"`
	RAUPC    float64 `desc:"Severity contribution to AUDPC" units:"fraction"`
	AUDPC    float64 `desc:"Area under the disease progress curve" units:"fraction day"`

	RG   float64 `desc:"Site growth rate" units:"sites/day"`
	RSEN float64 `desc:"Senescence rate" units:"sites/day"`
	RLEX float64 `desc:"Lesion expansion rate" units:"sites/day"`
	RDI  float64 `desc:"Infectious mortality rate" units:"sites/day"`
	RDL  float64 `desc:"Latent mortality rate" units:"sites/day"`
	REM  float64 `desc:"Removal rate" units:"sites/day"`
	RT   float64 `desc:"Latent to infectious transition rate" units:"sites/day"`
	RI   float64 `desc:"New infection rate" units:"sites/day"`

	RcW   float64 `desc:"Rainfall score" units:"1-4"`
	RcT   float64 `desc:"Temperature infection factor" units:"fraction"`
	RcA   float64 `desc:"Canopy age infection factor" units:"fraction"`
	RcOpt float64 `desc:"Optimal infection rate" units:"1/day"`
	Rc    float64 `desc:"Effective infection rate" units:"1/day"`
	COFR  float64 `desc:"Crowding correction factor" units:"fraction"`

	POpt    float64 // optimal latent period [days]
	IPOpt   float64 // optimal incubation period [days]
	RRLEX   float64 // relative lesion expansion rate [1/day]
	RRSEN   float64 // relative senescence rate [1/day]
	RRG     float64 // relative growth rate [1/day]
	RRDD    float64 // relative mortality rate [1/day]
	SiteMax float64 // site carrying capacity [sites]
	Agg     float64 // aggregation exponent
	Inocp   float64 // daily inoculum after day 10 [sites/day]

	ResSpray     float64 `desc:"Cumulative post-spray rainfall" units:"mm"`
	FungEffcCur  float64 `desc:"Current spray efficacy" units:"fraction"`
	RcFCur       float64 `desc:"Current spray infection factor" units:"fraction"`
	Residual     float64 `desc:"Fungicide residue remaining" units:"fraction"`
	FungEffecRes float64 `desc:"Residual spray infection factor" units:"fraction"`
	RcRes        float64 `desc:"Current efficacy times residue" units:"fraction"`
	EffRes       float64 `desc:"Efficacy applied to residue" units:"fraction"`
	FlowRes      float64 `desc:"Rainfall washing into residue" units:"mm"`
}

// carry returns the state that begins the day after s, with the latent,
// infectious and cumulative pools advanced by s's rates. ri is the new
// infection rate on s.Day.
func (s DailyState) carry(ri float64) DailyState {
	n := s
	n.Day = s.Day + 1
	n.I += s.RT + s.RLEX - s.REM - s.RDI
	n.L += ri - s.RT - s.RDL
	n.AUDPC += s.RAUPC
	n.GDUSum += s.RTInc
	return n
}

// Columns returns the names, descriptions and units of the DailyState
// fields, in output order.
func Columns() (names, descriptions, units []string) {
	t := reflect.TypeOf(DailyState{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		names = append(names, f.Name)
		descriptions = append(descriptions, f.Tag.Get("desc"))
		units = append(units, f.Tag.Get("units"))
	}
	return
}

// Values returns the field values of s as float64, in the same order
// as Columns.
func (s DailyState) Values() []float64 {
	v := reflect.ValueOf(s)
	out := make([]float64, v.NumField())
	for i := range out {
		f := v.Field(i)
		switch f.Kind() {
		case reflect.Float64:
			out[i] = f.Float()
		case reflect.Int:
			out[i] = float64(f.Int())
		default:
			panic(fmt.Errorf("eds: unsupported DailyState field kind %v", f.Kind()))
		}
	}
	return out
}
