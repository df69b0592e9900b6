package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bodul/crossgrid/crossword"
)

// Config is the service configuration, read from YAML and overridden by
// environment variables.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Generator crossword.Config `yaml:"generator"`
	Gemini    GeminiConfig     `yaml:"gemini"`
	Logging   LoggingConfig    `yaml:"logging"`
	Limits    LimitsConfig     `yaml:"limits"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// GeminiConfig enables word list scanning when ProjectID is set.
type GeminiConfig struct {
	ProjectID string `yaml:"project_id"`
	Region    string `yaml:"region"`
	Model     string `yaml:"model"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// LimitsConfig bounds per-client request rates and payload sizes.
type LimitsConfig struct {
	GeneratePerMinute int   `yaml:"generate_per_minute" validate:"gt=0"`
	ScanPerMinute     int   `yaml:"scan_per_minute" validate:"gt=0"`
	MovesPerSecond    int   `yaml:"moves_per_second" validate:"gt=0"`
	MaxUploadBytes    int64 `yaml:"max_upload_bytes" validate:"gt=0"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Generator: crossword.Config{
			Seed:      crossword.DefaultSeed,
			MaxPasses: crossword.DefaultMaxPasses,
			Attempts:  crossword.DefaultAttempts,
			MaxWords:  30,
		},
		Gemini: GeminiConfig{
			Region: defaultRegion,
			Model:  defaultModel,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Limits: LimitsConfig{
			GeneratePerMinute: 20,
			ScanPerMinute:     5,
			MovesPerSecond:    60,
			MaxUploadBytes:    10 << 20,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads path (if non-empty) over the defaults, applies the
// environment overrides and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Config{}, fmt.Errorf("invalid config: %s fails %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if project := os.Getenv("GCP_PROJECT_ID"); project != "" {
		c.Gemini.ProjectID = project
	}
	if region := os.Getenv("GCP_REGION"); region != "" {
		c.Gemini.Region = region
	}
	if seed := os.Getenv("CROSSWORD_SEED"); seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("CROSSWORD_SEED: %w", err)
		}
		c.Generator.Seed = n
	}
	return nil
}
