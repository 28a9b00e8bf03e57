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
	"runtime"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/eds"
	"github.com/spatialmodel/eds/crop"
	"github.com/spatialmodel/eds/weather"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to EDS.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "WeatherFile",
			usage: `
              WeatherFile is the path to the CSV file of daily weather. It must have
              the columns ID, DOY, precipitation, maximum_temperature and
              minimum_temperature, and may have wind_speed, latitude and longitude.
              It can be a local path, an http(s) URL, or a blob storage location
              (s3://, gs://, or file://), and can include environment variables.`,
			shorthand:  "w",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fieldCmd.Flags()},
		},
		{
			name: "PlantingsFile",
			usage: `
              PlantingsFile is the path to the CSV file of plantings, with the columns
              ID, Field, year, planting_date, obs_planting_delta and Crop. It can be
              a local path, an http(s) URL, or a blob storage location, and can
              include environment variables.`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fieldCmd.Flags()},
		},
		{
			name: "CropFiles",
			usage: `
              CropFiles maps crop names to parameter files in TOML (.toml) or
              Microsoft Excel (.xlsx) format. Crops given here replace or add to the
              built-in Corn and Soy parameters.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fieldCmd.Flags()},
		},
		{
			name: "RepeatYears",
			usage: `
              RepeatYears is the number of times the weather record for each
              location is repeated in the following years.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fieldCmd.Flags()},
		},
		{
			name: "PrecipThreshold",
			usage: `
              PrecipThreshold is the daily precipitation in mm at or above which
              a day counts as rainy.`,
			defaultVal: weather.DefaultPrecipThreshold,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fieldCmd.Flags()},
		},
		{
			name: "SprayInterval",
			usage: `
              SprayInterval is the number of days a fungicide spray protects
              the crop.`,
			defaultVal: eds.DefaultSprayInterval,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fieldCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output CSV file. For 'run' it holds
              one summary row per simulation and for 'field' it holds the daily model
              state. It can be a blob storage location and can include environment
              variables.`,
			shorthand:  "o",
			defaultVal: "eds_output.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fieldCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be saved in
              the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to write. Acceptable
              values are 'debug', 'info', 'warning' and 'error'.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Applications",
			usage: `
              Applications lists the numbers of fungicide applications to simulate.`,
			defaultVal: []int{0, 1, 2, 3},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Resistances",
			usage: `
              Resistances lists the resistance classes to simulate. Acceptable values
              are 'Susceptible', 'Moderate' and 'Resistant'.`,
			defaultVal: crop.DefaultResistances,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers is the number of simulations to run at once.`,
			defaultVal: runtime.GOMAXPROCS(0),
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DailyOutputFile",
			usage: `
              DailyOutputFile is the path to an optional CSV file holding the daily
              model state of every simulation. It can be a blob storage location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Database",
			usage: `
              Database is the path to an optional SQLite database where summaries and
              daily model states are saved. Results from repeated runs are kept and
              distinguished by batch ID.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MetricsFile",
			usage: `
              MetricsFile is the path to an optional file where run counts and
              durations are written in the Prometheus text format.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Field.ID",
			usage: `
              Field.ID is the location ID of the planting to simulate.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fieldCmd.Flags()},
		},
		{
			name: "Field.Crop",
			usage: `
              Field.Crop restricts the simulation to plantings of the given crop.
              If empty, all plantings at the location are simulated.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fieldCmd.Flags()},
		},
		{
			name: "Field.Resistance",
			usage: `
              Field.Resistance is the resistance class to simulate.`,
			defaultVal: crop.Susceptible,
			flagsets:   []*pflag.FlagSet{fieldCmd.Flags()},
		},
		{
			name: "Field.Applications",
			usage: `
              Field.Applications is the number of fungicide applications to simulate.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{fieldCmd.Flags()},
		},
		{
			name: "Field.StartDate",
			usage: `
              Field.StartDate is the first day to simulate, in the format YYYY-MM-DD.
              If empty, the simulation starts on the planting date.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fieldCmd.Flags()},
		},
		{
			name: "Field.PlotFile",
			usage: `
              Field.PlotFile is the path to an optional PNG image of the disease
              severity over time.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fieldCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("EDS")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case []int:
				set.IntSliceP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				if err := json.NewEncoder(b).Encode(v); err != nil {
					panic(err)
				}
				set.StringP(option.name, option.shorthand, b.String(), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(fieldCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	Cfg.AutomaticEnv()
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("eds: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "eds",
	Short: "A plant disease severity model.",
	Long: `EDS estimates the daily severity of a foliar plant disease in a field
from daily weather, crop parameters, host resistance and fungicide sprays.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'EDS_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of EDS.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("EDS v%s\n", eds.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that simulates every planting in a plantings file.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model for many fields.",
	Long: `run simulates every planting in PlantingsFile with every combination of
the Applications and Resistances options, and writes one row of summary
statistics per simulation to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := batchConfig(Cfg)
		if err != nil {
			return err
		}
		log, closeLog, err := setLogger(cmd.OutOrStdout(), c.LogFile, c.LogLevel, &c.upload)
		if err != nil {
			return err
		}
		defer closeLog()
		_, err = RunBatch(context.Background(), log, c)
		return err
	},
	DisableAutoGenTag: true,
}

// fieldCmd is a command that simulates the plantings at a single location.
var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Run the model for one field.",
	Long: `field simulates the plantings at the location Field.ID with a single
management scenario and writes the daily model state to OutputFile, and
optionally a plot of the disease severity to Field.PlotFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := fieldConfig(Cfg)
		if err != nil {
			return err
		}
		log, closeLog, err := setLogger(cmd.OutOrStdout(), c.LogFile, c.LogLevel, &c.upload)
		if err != nil {
			return err
		}
		defer closeLog()
		return RunField(context.Background(), log, c)
	},
	DisableAutoGenTag: true,
}
