package config

import "github.com/spf13/viper"

// RunConfig holds the CLI-level settings a scheduler invocation reads
// from .scheduler.yaml, SCHED_* env vars, and command flags: where to
// find the catalog, and how to log. Run-shape parameters (epoch, late
// part delay) stay in the SCHED_* getters above since they also matter
// to non-CLI callers; this struct is specific to the cobra layer.
type RunConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
	OutputPath  string `mapstructure:"output_path"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// LoadRunConfig reads CLI configuration from viper, applying defaults
// for anything not set by config file, environment, or flags.
func LoadRunConfig() RunConfig {
	viper.SetDefault("catalog_path", "catalog.json")
	viper.SetDefault("output_path", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")

	var cfg RunConfig
	_ = viper.Unmarshal(&cfg)
	return cfg
}
