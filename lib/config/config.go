// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Config is the harness configuration.
type Config struct {
	// Sandbox selects the isolation profile: none, setuid or
	// namespace.
	Sandbox string

	// Debug enables the per-operation trace channel on stdout.
	Debug bool

	// Program is the path of the corpus file to execute each
	// iteration.
	Program string

	// IterationTimeout bounds one iteration's wall time. Zero keeps
	// the built-in default.
	IterationTimeout time.Duration

	// Iterations limits the run for debugging; zero runs until
	// killed.
	Iterations int
}

// fileConfig is the on-disk shape. Durations are strings so config
// files can say "5s".
type fileConfig struct {
	Sandbox          string `yaml:"sandbox"`
	Debug            bool   `yaml:"debug"`
	Program          string `yaml:"program"`
	IterationTimeout string `yaml:"iteration_timeout"`
	Iterations       int    `yaml:"iterations"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Sandbox: "none"}
}

// LoadFile reads and parses a configuration file, then applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// JSONC strips to JSON, and JSON is a YAML subset, so one
	// parser covers all three forms.
	switch filepath.Ext(path) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg := Default()
	if raw.Sandbox != "" {
		cfg.Sandbox = raw.Sandbox
	}
	cfg.Debug = raw.Debug
	cfg.Program = raw.Program
	cfg.Iterations = raw.Iterations
	if raw.IterationTimeout != "" {
		timeout, err := time.ParseDuration(raw.IterationTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing iteration_timeout: %w", err)
		}
		cfg.IterationTimeout = timeout
	}

	applyEnv(cfg)
	return cfg, nil
}

// Load resolves the config the way harness binaries do: the explicit
// path if nonempty, else FUZZBED_CONFIG, else defaults with
// environment overrides.
func Load(explicitPath string) (*Config, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv("FUZZBED_CONFIG")
	}
	if path == "" {
		cfg := Default()
		applyEnv(cfg)
		return cfg, nil
	}
	return LoadFile(path)
}

func applyEnv(cfg *Config) {
	if os.Getenv("FUZZBED_DEBUG") != "" {
		cfg.Debug = true
	}
	if v := os.Getenv("FUZZBED_SANDBOX"); v != "" {
		cfg.Sandbox = v
	}
}
