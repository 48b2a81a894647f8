// Package config loads broker startup configuration: the listen port, the
// debug mode, and the startup experiment allow-list (spec §6, §4.3's
// isInfraEnabled), via spf13/viper rather than bare flag parsing.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/h8ngry/supersurf/internal/logging"
)

const (
	defaultPort = 5555
	envPrefix   = "SUPERSURF"
)

// Config is the resolved startup configuration for a broker process.
type Config struct {
	Port               int
	Debug              logging.DebugMode
	DebugFile          string
	EnabledExperiments []string
}

// Load resolves configuration with precedence environment (SUPERSURF_
// prefix) > optional supersurf.yaml file (searched in cwd and
// /etc/supersurf) > defaults. No command-line flag sets these values;
// configFile, when non-empty, overrides the search path.
// A .env file in the cwd is loaded first, purely for local-dev
// convenience; its absence is never an error.
func Load(configFile string) (Config, error) {
	_ = godotenv.Load() // best-effort; missing .env is normal

	v := viper.New()
	v.SetDefault("port", defaultPort)
	v.SetDefault("debug", "")
	v.SetDefault("enabledExperiments", []string{})

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("supersurf")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/supersurf")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	experiments := v.GetStringSlice("enabledExperiments")
	if raw := v.GetString("experiments"); raw != "" {
		experiments = append(experiments, splitCSV(raw)...)
	}
	if raw := lookupExperimentsEnv(); raw != "" {
		experiments = append(experiments, splitCSV(raw)...)
	}

	debug := v.GetString("debug")
	if debug == "false" {
		debug = string(logging.DebugOff)
	}

	return Config{
		Port:               v.GetInt("port"),
		Debug:              logging.DebugMode(debug),
		DebugFile:          v.GetString("debugFile"),
		EnabledExperiments: dedupe(experiments),
	}, nil
}

// lookupExperimentsEnv reads SUPERSURF_EXPERIMENTS directly by its full
// name (viper does not apply the prefix to an explicitly named env var).
// Load's "experiments" key can pick up the same variable through
// AutomaticEnv; dedupe drops the repeated names.
func lookupExperimentsEnv() string {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.BindEnv("experiments_list", envPrefix+"_EXPERIMENTS")
	return v.GetString("experiments_list")
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
