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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/eds/crop"
	"github.com/spf13/cast"
)

// Inputs holds the configuration shared by the run and field commands.
type Inputs struct {
	// WeatherFile and PlantingsFile are the paths to the input CSV files.
	WeatherFile, PlantingsFile string

	// CropFiles maps crop names to parameter files.
	CropFiles map[string]string

	RepeatYears     int
	PrecipThreshold float64 // [mm]
	SprayInterval   int     // [days]

	OutputFile string
	LogFile    string
	LogLevel   logrus.Level

	upload uploader
}

// BatchConfig holds the configuration for RunBatch.
type BatchConfig struct {
	Inputs

	Applications []int
	Resistances  []string
	Workers      int

	// DailyOutputFile, Database and MetricsFile are optional outputs.
	DailyOutputFile string
	Database        string
	MetricsFile     string
}

// FieldConfig holds the configuration for RunField.
type FieldConfig struct {
	Inputs

	ID           string
	Crop         string
	Resistance   string
	Applications int

	// StartDate is the first day to simulate. If it is zero, simulations
	// start on the planting date.
	StartDate time.Time

	PlotFile string
}

// inputs reads the options shared by all commands from cfg.
func inputs(cfg *viper.Viper) (Inputs, error) {
	var in Inputs
	in.WeatherFile = os.ExpandEnv(cfg.GetString("WeatherFile"))
	if in.WeatherFile == "" {
		return in, fmt.Errorf(`edsutil: you need to specify a weather file (for example: WeatherFile="weather.csv")`)
	}
	in.PlantingsFile = os.ExpandEnv(cfg.GetString("PlantingsFile"))
	if in.PlantingsFile == "" {
		return in, fmt.Errorf(`edsutil: you need to specify a plantings file (for example: PlantingsFile="plantings.csv")`)
	}
	var err error
	if in.CropFiles, err = getStringMapString("CropFiles", cfg); err != nil {
		return in, err
	}
	in.RepeatYears = cfg.GetInt("RepeatYears")
	if in.RepeatYears < 0 {
		return in, fmt.Errorf("edsutil: RepeatYears=%d but should be >= 0", in.RepeatYears)
	}
	in.PrecipThreshold = cfg.GetFloat64("PrecipThreshold")
	if math.IsNaN(in.PrecipThreshold) || math.IsInf(in.PrecipThreshold, 0) {
		return in, fmt.Errorf("edsutil: PrecipThreshold=%g but should be finite", in.PrecipThreshold)
	}
	in.SprayInterval = cfg.GetInt("SprayInterval")
	if in.SprayInterval < 1 {
		return in, fmt.Errorf("edsutil: SprayInterval=%d but should be > 0", in.SprayInterval)
	}
	if in.OutputFile, err = checkOutputFile(cfg.GetString("OutputFile")); err != nil {
		return in, err
	}
	in.LogFile = checkLogFile(os.ExpandEnv(cfg.GetString("LogFile")), in.OutputFile)
	if in.LogLevel, err = logrus.ParseLevel(cfg.GetString("LogLevel")); err != nil {
		return in, fmt.Errorf("edsutil: LogLevel: %v", err)
	}
	return in, nil
}

// batchConfig reads the configuration for the run command from cfg.
func batchConfig(cfg *viper.Viper) (*BatchConfig, error) {
	in, err := inputs(cfg)
	if err != nil {
		return nil, err
	}
	c := &BatchConfig{Inputs: in}
	if c.Applications, err = toIntSliceE(cfg.Get("Applications")); err != nil {
		return nil, fmt.Errorf("edsutil: Applications: %v", err)
	}
	c.Resistances = expandStringSlice(cfg.GetStringSlice("Resistances"))
	for _, r := range c.Resistances {
		if _, err := crop.ResistanceClass(r); err != nil {
			return nil, fmt.Errorf("edsutil: Resistances: %v", err)
		}
	}
	c.Workers = cfg.GetInt("Workers")
	c.DailyOutputFile = os.ExpandEnv(cfg.GetString("DailyOutputFile"))
	if c.DailyOutputFile != "" {
		if c.DailyOutputFile, err = checkOutputFile(c.DailyOutputFile); err != nil {
			return nil, err
		}
	}
	c.Database = os.ExpandEnv(cfg.GetString("Database"))
	c.MetricsFile = os.ExpandEnv(cfg.GetString("MetricsFile"))
	return c, nil
}

// fieldConfig reads the configuration for the field command from cfg.
func fieldConfig(cfg *viper.Viper) (*FieldConfig, error) {
	in, err := inputs(cfg)
	if err != nil {
		return nil, err
	}
	c := &FieldConfig{
		Inputs:       in,
		ID:           os.ExpandEnv(cfg.GetString("Field.ID")),
		Crop:         os.ExpandEnv(cfg.GetString("Field.Crop")),
		Resistance:   os.ExpandEnv(cfg.GetString("Field.Resistance")),
		Applications: cfg.GetInt("Field.Applications"),
		PlotFile:     os.ExpandEnv(cfg.GetString("Field.PlotFile")),
	}
	if c.ID == "" {
		return nil, fmt.Errorf(`edsutil: you need to specify a location (for example: Field.ID="A")`)
	}
	if _, err := crop.ResistanceClass(c.Resistance); err != nil {
		return nil, fmt.Errorf("edsutil: Field.Resistance: %v", err)
	}
	if c.Applications < 0 {
		return nil, fmt.Errorf("edsutil: Field.Applications=%d but should be >= 0", c.Applications)
	}
	if d := cfg.GetString("Field.StartDate"); d != "" {
		if c.StartDate, err = time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("edsutil: Field.StartDate: %v", err)
		}
	}
	return c, nil
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`edsutil: you need to specify an output file configuration variable (for example: OutputFile="output.csv")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		u, err := url.Parse(f)
		if err != nil {
			return f, err
		}
		if _, err = OpenBucket(context.TODO(), u.Scheme+"://"+u.Host); err != nil {
			return f, fmt.Errorf("edsutil: error when checking output location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("edsutil: the output directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return logFile
}

func toIntSliceE(s interface{}) ([]int, error) {
	switch v := s.(type) {
	case []int:
		return v, nil
	case []interface{}:
		o := make([]int, len(v))
		for i, val := range v {
			n, err := cast.ToIntE(val)
			if err != nil {
				return nil, err
			}
			o[i] = n
		}
		return o, nil
	case string:
		var o []int
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return cast.ToIntSliceE(s)
	}
}

// getStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func getStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		if err := json.NewDecoder(bytes.NewBufferString(v)).Decode(&o); err != nil {
			return nil, fmt.Errorf("edsutil: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("edsutil: invalid type for %s: %#v", varName, i)
	}
}

// loadCrops returns the built-in crops, with any crops in files added or
// replacing the built-in ones.
func loadCrops(ctx context.Context, files map[string]string, log logrus.FieldLogger) (map[string]*crop.Crop, error) {
	crops := crop.Builtin()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := maybeDownload(ctx, os.ExpandEnv(files[name]), log)
		c, err := crop.Load(path, name)
		if err != nil {
			return nil, fmt.Errorf("edsutil: loading crop %s: %w", name, err)
		}
		log.WithFields(logrus.Fields{"crop": name, "file": files[name]}).Info("loaded crop parameters")
		crops[name] = c
	}
	return crops, nil
}
