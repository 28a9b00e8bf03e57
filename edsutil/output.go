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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spatialmodel/eds"
	"github.com/spatialmodel/eds/batch"
	"github.com/spf13/cast"
)

const dateFormat = "2006-01-02"

// summaryHeader holds the column names of the summary output.
var summaryHeader = []string{"locationId", "InfoID", "Date1", "Date2", "N_Days",
	"latitude", "longitude", "number_applications", "genetic_mechanistic", "crop",
	"Sev50%", "SevMAX", "AUC", "FinalDay", "Key", "Error"}

// WriteSummaries writes one CSV row of summary statistics per output.
func WriteSummaries(w io.Writer, outputs []batch.Output) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, o := range outputs {
		var errText string
		if o.Err != nil {
			errText = o.Err.Error()
		}
		row := []string{
			o.LocationID,
			o.InfoID,
			formatDate(o.Date1),
			formatDate(o.Date2),
			cast.ToString(o.NDays),
			cast.ToString(o.Latitude),
			cast.ToString(o.Longitude),
			cast.ToString(o.Applications),
			o.Resistance,
			o.Crop,
			cast.ToString(o.SevMedian),
			cast.ToString(o.SevMax),
			cast.ToString(o.AUC),
			cast.ToString(o.FinalDay),
			o.Key,
			errText,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDaily writes one CSV row per simulated day of each output, with
// a column for each model state variable.
func WriteDaily(w io.Writer, outputs []batch.Output) error {
	cw := csv.NewWriter(w)
	names, _, _ := eds.Columns()
	header := append([]string{"InfoID", "number_applications", "genetic_mechanistic", "Date"}, names...)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, o := range outputs {
		for _, st := range o.States {
			row[0] = o.InfoID
			row[1] = cast.ToString(o.Applications)
			row[2] = o.Resistance
			row[3] = ""
			if st.Day >= 1 && st.Day <= len(o.Days) {
				row[3] = formatDate(o.Days[st.Day-1].Date)
			}
			for i, v := range st.Values() {
				row[4+i] = cast.ToString(v)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeFile creates path and writes to it with write.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("edsutil: creating output file: %v", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("edsutil: writing %s: %v", path, err)
	}
	return f.Close()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}
