// Package config loads the YAML file that tunes the layout engine and the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"erd/layout"
)

// Config is the root of the configuration file.
type Config struct {
	Layout layout.Config `yaml:"layout"`
	Log    LogConfig     `yaml:"log"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level    string `yaml:"level" validate:"oneof=debug info warn error"`
	Encoding string `yaml:"encoding" validate:"oneof=json console"`
}

var validate = validator.New()

// Default returns the shipped configuration.
func Default() *Config {
	return &Config{
		Layout: layout.DefaultConfig(),
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load reads path over the defaults. An empty path, or a path that does not
// exist, yields the defaults. ERD_LOG_LEVEL overrides the file's log level.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if level := os.Getenv("ERD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks every constraint declared on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid config: %w", err)
	}

	e := verrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "gt":
		return fmt.Errorf("invalid config: %s must be greater than %s", field, e.Param())
	case "gte", "min":
		return fmt.Errorf("invalid config: %s must be at least %s", field, e.Param())
	case "lte", "max":
		return fmt.Errorf("invalid config: %s must not exceed %s", field, e.Param())
	case "gtefield":
		return fmt.Errorf("invalid config: %s must not be below %s", field, e.Param())
	case "oneof":
		return fmt.Errorf("invalid config: %s must be one of [%s]", field, e.Param())
	default:
		return fmt.Errorf("invalid config: %s failed %s", field, e.Tag())
	}
}

// NewLogger builds a production zap logger honouring the log settings.
// verbose forces debug level.
func (c LogConfig) NewLogger(verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = c.Encoding
	zc.OutputPaths = []string{"stderr"}
	if c.Encoding == "console" {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	return zc.Build()
}
