// Package config loads this SDK's runtime configuration from a YAML file,
// environment variables, and defaults, using viper the way the rest of
// this codebase's ambient stack does.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration for a neuroplay-go
// daemon (scanner, recorder, dashboard).
type Config struct {
	Device     DeviceConfig     `mapstructure:"device"`
	Recording  RecordingConfig  `mapstructure:"recording"`
	Validation ValidationConfig `mapstructure:"validation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Web        WebConfig        `mapstructure:"web"`
	Store      StoreConfig      `mapstructure:"store"`
}

// DeviceConfig controls which devices the scanner accepts and how
// discovery is paced.
type DeviceConfig struct {
	Models          []string `mapstructure:"models"` // e.g. ["NeuroPlay-6C", "NeuroPlay-8Cap"]
	ScanTimeoutSecs int      `mapstructure:"scan_timeout_secs"`
}

// RecordingConfig controls where recordings are written and how buffering
// and EDF+ physical ranges behave.
type RecordingConfig struct {
	Directory         string  `mapstructure:"directory"`
	FlushEverySamples int     `mapstructure:"flush_every_samples"`
	PhysicalMinUV     float64 `mapstructure:"physical_min_uv"`
	PhysicalMaxUV     float64 `mapstructure:"physical_max_uv"`
}

// ValidationConfig bounds how long neuroplay-record waits for the
// channel-quality check (TimeoutSecs plus 2 seconds). The validator's own
// 5-second accumulation timeout is fixed and is not changed by it.
type ValidationConfig struct {
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus metrics server configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// WebConfig holds status dashboard server configuration.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// StoreConfig holds the session/device history database location.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from configFile (or the default search path
// when empty), environment variables prefixed NEUROPLAY_, and built-in
// defaults, then validates the result.
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/neuroplay-go")
	}

	viper.SetEnvPrefix("NEUROPLAY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no config file is fine, defaults apply
		} else if os.IsNotExist(err) {
			// explicitly named file missing is also fine
		} else {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("device.models", []string{"NeuroPlay-6C", "NeuroPlay-8Cap"})
	viper.SetDefault("device.scan_timeout_secs", 10)

	viper.SetDefault("recording.directory", "./recordings")
	viper.SetDefault("recording.flush_every_samples", 125)
	viper.SetDefault("recording.physical_min_uv", -10000.0)
	viper.SetDefault("recording.physical_max_uv", 10000.0)

	viper.SetDefault("validation.timeout_secs", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("web.enabled", true)
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8080)

	viper.SetDefault("store.path", "./neuroplay.db")
}
