// Copyright 2025 The affiners Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the resampling configuration from YAML and turns it
// into interp call options.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/voxelkit/affiners/hwy/contrib/interp"
	"github.com/voxelkit/affiners/hwy/contrib/workerpool"
)

// Config represents the configuration loaded from YAML.
type Config struct {
	// Execution controls backend selection and parallelism.
	Execution struct {
		// Workers is the size of the worker pool. 0 uses the shared pool
		// with one worker per GOMAXPROCS.
		Workers int `yaml:"workers"`

		// Sequential runs every plane on the calling goroutine.
		Sequential bool `yaml:"sequential"`

		// Mode is auto, scalar-only or require-accelerated.
		Mode string `yaml:"mode"`

		// MaxBackend caps automatic selection: scalar, tier-a or tier-b.
		MaxBackend string `yaml:"maxBackend"`
	} `yaml:"execution"`

	Logging struct {
		// Level is a slog level name: debug, info, warn or error.
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Execution.Workers = 0
	cfg.Execution.Mode = interp.ModeAuto.String()
	cfg.Execution.MaxBackend = interp.BackendTierB.String()
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Execution.Workers < 0 {
		errs = append(errs, fmt.Errorf("execution.workers must not be negative, got %d", c.Execution.Workers))
	}
	if _, err := interp.ParseExecMode(c.Execution.Mode); err != nil {
		errs = append(errs, fmt.Errorf("execution.mode: %w", err))
	}
	if _, err := interp.ParseBackend(c.Execution.MaxBackend); err != nil {
		errs = append(errs, fmt.Errorf("execution.maxBackend: %w", err))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	return errors.Join(errs...)
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if c.Logging.Level == "" {
		return slog.LevelInfo, nil
	}
	err := l.UnmarshalText([]byte(c.Logging.Level))
	return l, err
}

// NewPool returns a worker pool of the configured size, or nil when the
// shared pool should be used. The caller closes a non-nil pool.
func (c *Config) NewPool() *workerpool.Pool {
	if c.Execution.Workers <= 0 || c.Execution.Sequential {
		return nil
	}
	return workerpool.New(c.Execution.Workers)
}

// Options converts the execution settings into interp options. pool, if
// not nil, replaces the shared pool.
func (c *Config) Options(pool *workerpool.Pool) ([]interp.Option, error) {
	mode, err := interp.ParseExecMode(c.Execution.Mode)
	if err != nil {
		return nil, err
	}
	maxBackend, err := interp.ParseBackend(c.Execution.MaxBackend)
	if err != nil {
		return nil, err
	}

	opts := []interp.Option{interp.WithMode(mode), interp.WithMaxBackend(maxBackend)}
	switch {
	case c.Execution.Sequential:
		opts = append(opts, interp.WithSequential())
	case pool != nil:
		opts = append(opts, interp.WithPool(pool))
	}
	return opts, nil
}
