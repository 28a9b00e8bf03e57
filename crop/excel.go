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
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/eds"
	"github.com/tealeg/xlsx"
)

// Names of the worksheets in a crop parameter workbook. Each sheet holds
// one point per row with no header: x in the first column and y in the
// second, except for the fungicide sheet, whose columns are the spray
// number, the day of application and the efficacy.
const (
	SheetIP        = "ip_t_cof"
	SheetP         = "p_t_cof"
	SheetRcT       = "rc_t_input"
	SheetDVS8      = "dvs_8_input"
	SheetRcA       = "rc_a_input"
	SheetFungicide = "fungicide"
	SheetResidual  = "fungicide_residual"
)

// excelCache holds previously opened Microsoft Excel files
// to avoid reading the same file multiple times.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

// loadExcelFile loads a Microsoft Excel file from disk, utilizing
// a cache to avoid loading the same file more than once.
func loadExcelFile(fileName string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			filename := req.(string)
			f, err := xlsx.OpenFile(filename)
			if err != nil {
				return nil, fmt.Errorf("crop: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(100))
	})
	r := excelCache.NewRequest(context.Background(), fileName, fileName)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// columnsFromExcel returns the first ncol columns of the given sheet,
// stopping at the first row whose first cell is empty.
func columnsFromExcel(f *xlsx.File, fileName, sheet string, ncol int) ([][]float64, error) {
	s, ok := f.Sheet[sheet]
	if !ok {
		return nil, fmt.Errorf("crop: reading %s: no sheet %s", fileName, sheet)
	}
	o := make([][]float64, ncol)
	for j := 0; j < s.MaxRow; j++ {
		if strings.TrimSpace(s.Cell(j, 0).Value) == "" {
			break
		}
		for i := 0; i < ncol; i++ {
			cellString := strings.TrimSpace(s.Cell(j, i).Value)
			v, err := strconv.ParseFloat(cellString, 64)
			if err != nil {
				return nil, fmt.Errorf("crop: reading %s sheet %s row %d column %d: %v",
					fileName, sheet, j+1, i+1, err)
			}
			o[i] = append(o[i], v)
		}
	}
	return o, nil
}

func tableFromExcel(f *xlsx.File, fileName, sheet string) (eds.Table, error) {
	cols, err := columnsFromExcel(f, fileName, sheet, 2)
	if err != nil {
		return eds.Table{}, err
	}
	return eds.Table{X: cols[0], Y: cols[1]}, nil
}

// LoadExcel reads the parameters for the named crop from a Microsoft Excel
// workbook with the sheets listed above. The incubation period, inoculum
// and growing degree unit settings are taken from the built-in crop with
// the same name if there is one.
func LoadExcel(fileName, name string) (*Crop, error) {
	if name == "" {
		return nil, fmt.Errorf("crop: reading %s: a crop name is required", fileName)
	}
	f, err := loadExcelFile(fileName)
	if err != nil {
		return nil, err
	}
	c := &Crop{Name: name}
	if b, ok := Builtin()[name]; ok {
		c.IPOpt, c.Inocp = b.IPOpt, b.Inocp
		c.GDUBase, c.GDUMin, c.GDUMax = b.GDUBase, b.GDUMin, b.GDUMax
	}
	for _, t := range []struct {
		sheet string
		t     *eds.Table
	}{
		{SheetIP, &c.Tables.IP},
		{SheetP, &c.Tables.P},
		{SheetRcT, &c.Tables.RcT},
		{SheetDVS8, &c.Tables.DVS8},
		{SheetRcA, &c.Tables.RcA},
		{SheetResidual, &c.Residual},
	} {
		if *t.t, err = tableFromExcel(f, fileName, t.sheet); err != nil {
			return nil, err
		}
	}
	cols, err := columnsFromExcel(f, fileName, SheetFungicide, 3)
	if err != nil {
		return nil, err
	}
	for i := range cols[0] {
		c.Sprays = append(c.Sprays, eds.Spray{
			Number:   int(cols[0][i]),
			Moment:   int(cols[1][i]),
			Efficacy: cols[2][i],
		})
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
