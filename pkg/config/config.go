// Package config provides a reusable loader for commander host configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/fluxbench/commander/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a commander host process.
type Config struct {
	Streams struct {
		ChangeBufferSize   int `mapstructure:"change_buffer_size" json:"change_buffer_size"`
		RequestBufferSize  int `mapstructure:"request_buffer_size" json:"request_buffer_size"`
	} `mapstructure:"streams" json:"streams"`

	Sandbox struct {
		ModuleDir  string `mapstructure:"module_dir" json:"module_dir"`
		MemoryName string `mapstructure:"memory_name" json:"memory_name"`
	} `mapstructure:"sandbox" json:"sandbox"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// defaults applies the values used when no configuration file is present.
func defaults() {
	viper.SetDefault("streams.change_buffer_size", 128)
	viper.SetDefault("streams.request_buffer_size", 32)
	viper.SetDefault("sandbox.module_dir", "./programs")
	viper.SetDefault("sandbox.memory_name", "memory")
	viper.SetDefault("logging.level", "info")
}

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files from cmd/config. If env is empty, only the default configuration
// (plus built-in defaults) is used; a missing default file is not an error.
func Load(env string) (*Config, error) {
	defaults()

	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.SetEnvPrefix("commander")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the COMMANDER_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("COMMANDER_ENV", ""))
}
