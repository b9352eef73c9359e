package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration
type Config struct {
	Database        DatabaseConfig `yaml:"database"`
	Log             LogConfig      `yaml:"log"`
	API             APIConfig      `yaml:"api"`
	Dispatch        DispatchConfig `yaml:"dispatch"`
	Entities        []EntityConfig `yaml:"entities"`        // Entities attached at startup
	GlobalDebounce  Duration       `yaml:"global_debounce"` // Quiet period for global settings bursts
	ShutdownTimeout Duration       `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`   // Structured JSON output instead of the console writer
	Colors bool   `yaml:"colors"` // Console writer colors
}

// APIConfig contains admin API server settings
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DispatchConfig contains action delivery settings
type DispatchConfig struct {
	AttemptTimeout Duration `yaml:"attempt_timeout"` // HTTP timeout per delivery attempt
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`  // Outbound request budget across all entities
}

// EntityConfig declares an entity to attach at startup
type EntityConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./daynightd.sqlite"
	}

	// API defaults
	if cfg.API.Host == "" {
		cfg.API.Host = "0.0.0.0"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8585
	}

	// Dispatch defaults
	if cfg.Dispatch.AttemptTimeout == 0 {
		cfg.Dispatch.AttemptTimeout = Duration(10 * time.Second)
	}
	if cfg.Dispatch.RateLimitRPS == 0 {
		cfg.Dispatch.RateLimitRPS = 10.0 // 10 requests per second
	}

	if cfg.GlobalDebounce == 0 {
		cfg.GlobalDebounce = Duration(300 * time.Millisecond)
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	return &cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
