// Package config loads the runtime configuration for the orchestration
// layer. This is operator configuration (timeouts, poll budgets, file
// locations); user-facing provider selection and credentials live in the
// settings store, which has its own persistence contract.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration.
type Config struct {
	Settings   SettingsConfig   `mapstructure:"settings"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Poll       PollConfig       `mapstructure:"poll"`
	Health     HealthConfig     `mapstructure:"health"`
	Log        LogConfig        `mapstructure:"log"`
}

// SettingsConfig holds the location of the persisted settings blob.
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// HTTPClientConfig holds outbound HTTP client tuning.
type HTTPClientConfig struct {
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	KeepAlive           time.Duration `mapstructure:"keep_alive"`
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`
}

// PollConfig holds long-running-job poll intervals and budgets. Video jobs
// poll at a longer interval than image jobs because video rendering is an
// order of magnitude slower and tight polling wastes request quota.
type PollConfig struct {
	ImageInterval time.Duration `mapstructure:"image_interval"`
	VideoInterval time.Duration `mapstructure:"video_interval"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
}

// HealthConfig holds connectivity monitor tuning.
type HealthConfig struct {
	FailureThreshold    uint32        `mapstructure:"failure_threshold"`
	CircuitTimeout      time.Duration `mapstructure:"circuit_timeout"`
	MaxHalfOpenRequests uint32        `mapstructure:"max_half_open_requests"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	v.SetEnvPrefix("ADFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in defaults without consulting files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always unmarshal cleanly.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("settings.path", defaultSettingsPath())

	// HTTP client defaults
	v.SetDefault("http_client.dial_timeout", 10*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 10)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 120*time.Second)

	// Poll defaults
	v.SetDefault("poll.image_interval", 2*time.Second)
	v.SetDefault("poll.video_interval", 10*time.Second)
	v.SetDefault("poll.max_attempts", 60)

	// Health defaults
	v.SetDefault("health.failure_threshold", 5)
	v.SetDefault("health.circuit_timeout", 60*time.Second)
	v.SetDefault("health.max_half_open_requests", 1)
	v.SetDefault("health.request_timeout", 10*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// defaultSettingsPath places the settings blob under the user config dir.
func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "adforge", "settings.json")
}
