package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration with CLI flags > environment > config file >
// defaults precedence. Environment variables use the SWYD_ prefix with
// dots replaced by underscores (SWYD_DB_URL, SWYD_LOG_LEVEL, ...).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("db_url", defaults.DatabaseURL)
	v.SetDefault("merchant_snapshot", defaults.MerchantSnapshot)
	v.SetDefault("rates_file", defaults.RatesFile)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)

	v.SetEnvPrefix("SWYD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:      v.GetString("db_url"),
		MerchantSnapshot: v.GetString("merchant_snapshot"),
		RatesFile:        v.GetString("rates_file"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
