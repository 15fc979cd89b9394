package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	PoolSize int    `mapstructure:"pool_size"`
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
}

// Load reads a yaml config from path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("pool_size", 128)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.PoolSize <= 0 {
		return nil, fmt.Errorf("pool_size must be positive, got %d", cfg.PoolSize)
	}
	return &cfg, nil
}
