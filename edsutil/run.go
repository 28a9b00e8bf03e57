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
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/eds"
	"github.com/spatialmodel/eds/batch"
	"github.com/spatialmodel/eds/crop"
	"github.com/spatialmodel/eds/store"
	"github.com/spatialmodel/eds/weather"
)

// RunBatch simulates every planting in c.PlantingsFile with every
// combination of c.Applications and c.Resistances, and writes the
// results to the configured outputs.
func RunBatch(ctx context.Context, log logrus.FieldLogger, c *BatchConfig) (*batch.Batch, error) {
	fields, crops, err := readInputs(ctx, log, &c.Inputs)
	if err != nil {
		return nil, err
	}
	r := &batch.Runner{
		Crops:         crops,
		Resistances:   c.Resistances,
		Applications:  c.Applications,
		SprayInterval: c.SprayInterval,
		Workers:       c.Workers,
		Daily:         c.DailyOutputFile != "",
		LogDays:       c.LogLevel >= logrus.DebugLevel,
		Log:           log,
	}
	if c.MetricsFile != "" {
		r.Metrics = batch.NewMetrics()
	}
	var db *store.Store
	if c.Database != "" {
		if db, err = store.Open(c.upload.maybeUpload(c.Database)); err != nil {
			return nil, err
		}
		r.Store = db
	}

	b, err := r.Run(ctx, fields)
	if db != nil {
		if cerr := db.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("edsutil: closing database: %v", cerr)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := writeFile(c.upload.maybeUpload(c.OutputFile), func(w io.Writer) error {
		return WriteSummaries(w, b.Outputs)
	}); err != nil {
		return nil, err
	}
	if c.DailyOutputFile != "" {
		if err := writeFile(c.upload.maybeUpload(c.DailyOutputFile), func(w io.Writer) error {
			return WriteDaily(w, b.Outputs)
		}); err != nil {
			return nil, err
		}
	}
	if r.Metrics != nil {
		if err := r.Metrics.WriteTextfile(c.upload.maybeUpload(c.MetricsFile)); err != nil {
			return nil, fmt.Errorf("edsutil: writing metrics: %v", err)
		}
	}
	var failed int
	for _, o := range b.Outputs {
		if o.Err != nil {
			failed++
		}
	}
	log.WithFields(logrus.Fields{
		"batch":   b.ID,
		"runs":    len(b.Outputs),
		"failed":  failed,
		"output":  c.OutputFile,
		"elapsed": time.Since(b.Started).String(),
	}).Info("wrote results")
	return b, c.upload.uploadOutput(ctx, log)
}

// RunField simulates the plantings at location c.ID with a single
// management scenario, and writes the daily model state to c.OutputFile.
func RunField(ctx context.Context, log logrus.FieldLogger, c *FieldConfig) error {
	fields, crops, err := readInputs(ctx, log, &c.Inputs)
	if err != nil {
		return err
	}
	var selected []weather.Field
	for _, f := range fields {
		if f.Planting.ID != c.ID || (c.Crop != "" && f.Planting.Crop != c.Crop) {
			continue
		}
		if !c.StartDate.IsZero() {
			f.Planting.Date = c.StartDate
		}
		selected = append(selected, f)
	}
	if len(selected) == 0 {
		return fmt.Errorf("edsutil: no plantings found for location %q", c.ID)
	}
	r := &batch.Runner{
		Crops:         crops,
		Resistances:   []string{c.Resistance},
		Applications:  []int{c.Applications},
		SprayInterval: c.SprayInterval,
		Workers:       1,
		Daily:         true,
		LogDays:       c.LogLevel >= logrus.DebugLevel,
		Log:           log,
	}
	b, err := r.Run(ctx, selected)
	if err != nil {
		return err
	}
	if len(b.Outputs) == 0 {
		return fmt.Errorf("edsutil: location %q: %w", c.ID, eds.ErrEmptyDateRange)
	}
	for _, o := range b.Outputs {
		if o.Err != nil {
			return fmt.Errorf("edsutil: simulating %s: %w", o.InfoID, o.Err)
		}
		log.WithFields(logrus.Fields{
			"location": o.InfoID,
			"days":     o.FinalDay,
			"sev_max":  o.SevMax,
			"auc":      o.AUC,
		}).Info("simulated field")
	}
	if err := writeFile(c.upload.maybeUpload(c.OutputFile), func(w io.Writer) error {
		return WriteDaily(w, b.Outputs)
	}); err != nil {
		return err
	}
	if c.PlotFile != "" {
		if err := plotSeverity(c.upload.maybeUpload(c.PlotFile), b.Outputs); err != nil {
			return err
		}
	}
	return c.upload.uploadOutput(ctx, log)
}

// readInputs reads the crops, weather and plantings, and aligns the
// weather with each planting.
func readInputs(ctx context.Context, log logrus.FieldLogger, in *Inputs) ([]weather.Field, map[string]*crop.Crop, error) {
	crops, err := loadCrops(ctx, in.CropFiles, log)
	if err != nil {
		return nil, nil, err
	}
	wf, err := os.Open(maybeDownload(ctx, in.WeatherFile, log))
	if err != nil {
		return nil, nil, fmt.Errorf("edsutil: opening weather file: %v", err)
	}
	defer wf.Close()
	records, err := weather.ReadWeather(wf)
	if err != nil {
		return nil, nil, err
	}
	pf, err := os.Open(maybeDownload(ctx, in.PlantingsFile, log))
	if err != nil {
		return nil, nil, fmt.Errorf("edsutil: opening plantings file: %v", err)
	}
	defer pf.Close()
	plantings, err := weather.ReadPlantings(pf)
	if err != nil {
		return nil, nil, err
	}
	fields := weather.Prepare(records, plantings, weather.Options{
		RepeatYears:     in.RepeatYears,
		PrecipThreshold: in.PrecipThreshold,
		Crops:           crops,
	})
	log.WithFields(logrus.Fields{
		"records":   len(records),
		"plantings": len(plantings),
		"crops":     crop.Names(crops),
	}).Info("read inputs")
	return fields, crops, nil
}
