// Package config loads the accessguru YAML configuration file and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/happyhackingspace/accessguru"
	"github.com/happyhackingspace/accessguru/internal/dataset"
)

// DefaultPath is read when no path is given and ACCESSGURU_CONFIG is unset.
const DefaultPath = "accessguru.yaml"

// Config is the on-disk configuration.
type Config struct {
	Input    string                 `yaml:"input"`
	Table    string                 `yaml:"table"`
	ModelDir string                 `yaml:"model_dir"`
	Train    accessguru.TrainConfig `yaml:"train"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Input:    "data/violations.csv",
		Table:    dataset.DefaultTable,
		ModelDir: accessguru.DefaultModelDir,
		Train:    accessguru.DefaultTrainConfig(),
	}
}

// Load reads the file at path over the defaults, then applies environment
// overrides and validates the result. An empty path falls back to
// ACCESSGURU_CONFIG and then to DefaultPath; a missing default file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if envPath := os.Getenv("ACCESSGURU_CONFIG"); envPath != "" {
			path, explicit = envPath, true
		} else {
			path = DefaultPath
		}
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		slog.Debug("Loaded config", "path", path)
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("config: %w", err)
	}

	envOverride(&cfg.Input, "ACCESSGURU_INPUT")
	envOverride(&cfg.Table, "ACCESSGURU_TABLE")
	envOverride(&cfg.ModelDir, "ACCESSGURU_MODEL_DIR")
	if err := envOverrideUint(&cfg.Train.Seed, "ACCESSGURU_SEED"); err != nil {
		return Config{}, err
	}
	if err := envOverrideInt(&cfg.Train.Workers, "ACCESSGURU_WORKERS"); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.ModelDir == "" {
		return fmt.Errorf("config: model_dir must not be empty")
	}
	if err := c.Train.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideUint(field *uint64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
