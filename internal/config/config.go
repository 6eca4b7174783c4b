// Package config resolves runner options from defaults, an optional
// config file, environment variables and command-line flags.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DCMANON"

// Options is the resolved configuration for one run.
type Options struct {
	InputDir      string  `mapstructure:"input"`
	OutputDir     string  `mapstructure:"output"`
	StateDir      string  `mapstructure:"linklog"`
	SpaceGB       float64 `mapstructure:"space"`
	Grouping      string  `mapstructure:"group"`
	Workers       int     `mapstructure:"workers"`
	CaseSensitive bool    `mapstructure:"case-sensitive"`
	Verbose       bool    `mapstructure:"verbose"`
}

// DefaultWorkers picks a conservative pool size: half the cores, at
// least one, so the batch coexists with other host workloads.
func DefaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// Load merges configuration sources. Precedence, lowest to highest:
// built-in defaults, config file, DCMANON_* environment, explicit flags.
func Load(configFile string, flags *pflag.FlagSet) (Options, error) {
	v := viper.New()
	v.SetDefault("output", "./anondata")
	v.SetDefault("linklog", "./linklog")
	v.SetDefault("group", "s")
	v.SetDefault("space", 0.0)
	v.SetDefault("workers", DefaultWorkers())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Options{}, fmt.Errorf("could not read config file: %w", err)
		}
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Options{}, fmt.Errorf("could not bind flags: %w", err)
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("could not decode configuration: %w", err)
	}
	return opts, nil
}
