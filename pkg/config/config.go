package config

// Package config provides a reusable loader for brightchain configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"brightchain/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a brightchain node. It
// mirrors the structure of the YAML files under cmd/config.
type Config struct {
	Storage struct {
		BlockSize         int    `mapstructure:"block_size" json:"block_size"`
		DefaultDurability string `mapstructure:"default_durability" json:"default_durability"`
		PoolId            string `mapstructure:"pool_id" json:"pool_id"`
	} `mapstructure:"storage" json:"storage"`

	FEC struct {
		MaxParityShards int `mapstructure:"max_parity_shards" json:"max_parity_shards"`
	} `mapstructure:"fec" json:"fec"`

	SuperCBL struct {
		MaxDepth        int `mapstructure:"max_depth" json:"max_depth"`
		MaxMagnetURLLen int `mapstructure:"max_magnet_url_len" json:"max_magnet_url_len"`
	} `mapstructure:"super_cbl" json:"super_cbl"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up process environment variables

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the BRIGHTCHAIN_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("BRIGHTCHAIN_ENV", ""))
}
