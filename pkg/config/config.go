// Package config loads the YAML configuration used by the sefr command.
package config

import (
	"os"

	"github.com/YuminosukeSato/sefr/core/parallel"
	"github.com/YuminosukeSato/sefr/linear"
	"github.com/YuminosukeSato/sefr/pkg/errors"
	"github.com/YuminosukeSato/sefr/pkg/log"
	"gopkg.in/yaml.v3"
)

// Config is the complete training configuration.
type Config struct {
	Model ModelConfig `yaml:"model"`
	Data  DataConfig  `yaml:"data"`
	Log   LogConfig   `yaml:"log"`
}

// ModelConfig configures the classifier.
type ModelConfig struct {
	Epsilon float64 `yaml:"epsilon"`
	// PositiveLabel selects binary training against this label. Empty means
	// one-vs-rest over every label.
	PositiveLabel     string `yaml:"positive_label"`
	NJobs             int    `yaml:"n_jobs"`             // -1 uses all cores
	ParallelThreshold int    `yaml:"parallel_threshold"` // work size that stays sequential
}

// DataConfig describes the input CSV and how it is prepared.
type DataConfig struct {
	LabelColumn int     `yaml:"label_column"` // negative counts from the end
	Header      bool    `yaml:"header"`
	TestRatio   float64 `yaml:"test_ratio"` // used when no separate test file is given
	Seed        uint64  `yaml:"seed"`
	Scale       bool    `yaml:"scale"` // min-max scale features into [0, 1]
}

// LogConfig selects the log backend and level.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Epsilon:           linear.DefaultEpsilon,
			NJobs:             -1,
			ParallelThreshold: parallel.DefaultThreshold,
		},
		Data: DataConfig{
			LabelColumn: -1,
			Header:      true,
			TestRatio:   0.2,
			Seed:        42,
			Scale:       true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// Validate ensures the configuration is valid and consistent.
func (c *Config) Validate() error {
	if !(c.Model.Epsilon > 0) {
		return errors.NewValidationError("model.epsilon", "must be positive", c.Model.Epsilon)
	}
	if c.Model.NJobs < -1 {
		return errors.NewValidationError("model.n_jobs", "must be -1 or non-negative", c.Model.NJobs)
	}
	if c.Model.ParallelThreshold < 0 {
		return errors.NewValidationError("model.parallel_threshold", "cannot be negative", c.Model.ParallelThreshold)
	}
	if !(c.Data.TestRatio >= 0 && c.Data.TestRatio < 1) {
		return errors.NewValidationError("data.test_ratio", "must be in [0, 1)", c.Data.TestRatio)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.NewValidationError("log.format", "must be console or json", c.Log.Format)
	}
	return nil
}

// Options converts the model section into estimator options.
func (m ModelConfig) Options() []linear.Option {
	return []linear.Option{
		linear.WithEpsilon(m.Epsilon),
		linear.WithNJobs(m.NJobs),
		linear.WithParallelThreshold(m.ParallelThreshold),
	}
}
