// SPDX-License-Identifier: MIT
//
// File: config.go
// Role: run configuration and its YAML loader.

package mcmc

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Config.Validate and LoadConfig.
var ErrInvalidConfig = errors.New("mcmc: invalid config")

// Config controls one sampler run.
type Config struct {
	// Generations is the default number of generations of Run.
	Generations int `yaml:"generations"`
	// Seed seeds the default PCG source.
	Seed uint64 `yaml:"seed"`
	// Heat multiplies the log probability ratio (1 for the cold chain).
	Heat float64 `yaml:"heat"`
	// TuningInterval is the number of generations between move tuning;
	// 0 disables tuning.
	TuningInterval int `yaml:"tuningInterval"`
	// PrintInterval is the number of generations between progress log
	// lines; 0 disables them.
	PrintInterval int `yaml:"printInterval"`
	// RunName labels log lines and results.
	RunName string `yaml:"runName"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Generations:    1000,
		Seed:           1,
		Heat:           1,
		TuningInterval: 100,
		RunName:        "run",
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.Generations <= 0 {
		result = multierror.Append(result, fmt.Errorf("generations must be positive, got %d", c.Generations))
	}
	if !(c.Heat > 0) || math.IsInf(c.Heat, 1) {
		result = multierror.Append(result, fmt.Errorf("heat must be positive and finite, got %v", c.Heat))
	}
	if c.TuningInterval < 0 {
		result = multierror.Append(result, fmt.Errorf("tuning interval must not be negative, got %d", c.TuningInterval))
	}
	if c.PrintInterval < 0 {
		result = multierror.Append(result, fmt.Errorf("print interval must not be negative, got %d", c.PrintInterval))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// LoadConfig decodes a YAML document over DefaultConfig and validates the
// result. Unknown keys are rejected; an empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}
