package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// RateLimitMax requests per RateLimitWindow per client IP across
	// the HTTP API. Zero disables limiting.
	RateLimitMax    int           `mapstructure:"rate_limit_max" yaml:"rate_limit_max"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window" yaml:"rate_limit_window"`

	Upload UploadConfig `mapstructure:"upload" yaml:"upload"`
}

// UploadConfig holds image upload settings for the external media host.
type UploadConfig struct {
	CloudName string `mapstructure:"cloud_name" yaml:"cloud_name"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	APISecret string `mapstructure:"api_secret" yaml:"api_secret"`
	Folder    string `mapstructure:"folder" yaml:"folder"`
	MaxBytes  int64  `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":4000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "telemed.db",
		LogLevel:          "info",
		RateLimitMax:      300,
		RateLimitWindow:   15 * time.Minute,
		Upload: UploadConfig{
			Folder:   "telemed_chat",
			MaxBytes: 10 << 20,
		},
	}
}
