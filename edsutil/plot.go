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


package edsutil

import (
	"fmt"

	"github.com/spatialmodel/eds/batch"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// plotSeverity saves a line plot of the daily disease severity of each
// output to path. The image format is determined by the file extension.
func plotSeverity(path string, outputs []batch.Output) error {
	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("edsutil: creating plot: %v", err)
	}
	p.Title.Text = "Disease severity"
	p.X.Label.Text = "Day"
	p.Y.Label.Text = "Severity (fraction)"
	var lines []interface{}
	for _, o := range outputs {
		xy := make(plotter.XYs, len(o.States))
		for i, st := range o.States {
			xy[i].X = float64(st.Day)
			xy[i].Y = st.Sev
		}
		lines = append(lines, o.InfoID, xy)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return fmt.Errorf("edsutil: plotting severity: %v", err)
	}
	p.Y.Min = 0
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("edsutil: saving plot: %v", err)
	}
	return nil
}
