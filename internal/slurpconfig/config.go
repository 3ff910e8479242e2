// Package slurpconfig provides optional YAML/env configuration for default
// flag values, layered under whatever the command line supplies.
package slurpconfig

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the tool's tunable defaults. Top, Debug, ListStrings and
// JSONOutput have matching CLI flags: an explicit --top replaces Top, and
// each boolean setting is on when either the flag or the config enables
// it. ChunkSizeBytes and LogLevel have no CLI flag and are not read by the
// rest of the tool.
type Config struct {
	Top            int    `mapstructure:"top"`
	Debug          bool   `mapstructure:"debug"`
	ListStrings    bool   `mapstructure:"list_strings"`
	JSONOutput     bool   `mapstructure:"json_output"`
	ChunkSizeBytes int    `mapstructure:"chunk_size_bytes"`
	LogLevel       string `mapstructure:"log_level"`
}

// Load reads configuration from configPath if non-empty, otherwise from a
// "hprof-slurp.yaml" in the standard locations, falling back silently to
// defaults when no file is found.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("hprof-slurp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/hprof-slurp")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no config file: defaults stand
		} else if os.IsNotExist(err) {
			// explicit path missing: defaults stand
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("HPROF_SLURP")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("top", 20)
	v.SetDefault("debug", false)
	v.SetDefault("list_strings", false)
	v.SetDefault("json_output", false)
	v.SetDefault("chunk_size_bytes", 64*1024*1024)
	v.SetDefault("log_level", "info")
}
