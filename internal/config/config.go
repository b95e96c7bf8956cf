// Package config loads application configuration from environment
// variables with an optional YAML file overlay. Fields set in the file
// override env-derived values; unset knobs fall back to struct-tag
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. ECOM_SERVER_PORT
const EnvPrefix = "ECOM"

// DefaultConfigFile is consulted when ECOM_CONFIG_FILE is unset
const DefaultConfigFile = "config.yaml"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig contains request protection configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
}

// Load reads the configuration: struct-tag defaults and environment
// variables first, then the optional YAML file overlay on top.
func Load() (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if path := configFilePath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			fileCfg, err := loadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
			merged := mergeConfigs(*fileCfg, *cfg)
			cfg = &merged
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		abs, err := filepath.Abs(DefaultConfigFile)
		if err == nil {
			return abs
		}
	}
	return ""
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs overlays env-derived values with file values. A zero
// value in the file config means the knob was not set there, so the
// env-derived value survives.
func mergeConfigs(fileCfg, envCfg Config) Config {
	merged := envCfg

	if fileCfg.Server.Port != 0 {
		merged.Server.Port = fileCfg.Server.Port
	}
	if fileCfg.Server.ReadTimeout != 0 {
		merged.Server.ReadTimeout = fileCfg.Server.ReadTimeout
	}
	if fileCfg.Server.WriteTimeout != 0 {
		merged.Server.WriteTimeout = fileCfg.Server.WriteTimeout
	}
	if fileCfg.Server.RequestTimeout != 0 {
		merged.Server.RequestTimeout = fileCfg.Server.RequestTimeout
	}
	if fileCfg.Logging.Level != "" {
		merged.Logging.Level = fileCfg.Logging.Level
	}
	if fileCfg.Logging.Format != "" {
		merged.Logging.Format = fileCfg.Logging.Format
	}
	if fileCfg.Paths.DataDir != "" {
		merged.Paths.DataDir = fileCfg.Paths.DataDir
	}
	if fileCfg.Paths.ReportsDir != "" {
		merged.Paths.ReportsDir = fileCfg.Paths.ReportsDir
	}
	if fileCfg.Security.RateLimit.RPS != 0 {
		merged.Security.RateLimit.RPS = fileCfg.Security.RateLimit.RPS
	}
	if fileCfg.Security.RateLimit.Burst != 0 {
		merged.Security.RateLimit.Burst = fileCfg.Security.RateLimit.Burst
	}
	return merged
}

// Validate checks the loaded configuration is internally consistent
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	if !c.Logging.IsValidLevel() {
		return fmt.Errorf("logging level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if !c.Logging.IsValidFormat() {
		return fmt.Errorf("logging format %q is not one of json, text", c.Logging.Format)
	}
	if c.Paths.DataDir == "" {
		return fmt.Errorf("data directory must be set")
	}
	if c.Paths.ReportsDir == "" {
		return fmt.Errorf("reports directory must be set")
	}
	if c.Security.RateLimit.Enabled {
		if c.Security.RateLimit.RPS <= 0 {
			return fmt.Errorf("rate limit rps %.2f must be positive", c.Security.RateLimit.RPS)
		}
		if c.Security.RateLimit.Burst < 1 {
			return fmt.Errorf("rate limit burst %d must be positive", c.Security.RateLimit.Burst)
		}
	}
	return nil
}

// IsValidLevel reports whether the configured log level is supported
func (l LoggingConfig) IsValidLevel() bool {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// IsValidFormat reports whether the configured log format is supported
func (l LoggingConfig) IsValidFormat() bool {
	switch l.Format {
	case "json", "text":
		return true
	}
	return false
}
