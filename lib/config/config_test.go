// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FUZZBED_DEBUG", "")
	t.Setenv("FUZZBED_SANDBOX", "")
	t.Setenv("FUZZBED_CONFIG", "")
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := write(t, "harness.yaml", `
sandbox: namespace
debug: true
program: /corpus/prog0
iteration_timeout: 5s
iterations: 10
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Sandbox != "namespace" || !cfg.Debug || cfg.Program != "/corpus/prog0" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.IterationTimeout != 5*time.Second {
		t.Fatalf("IterationTimeout = %v, want 5s", cfg.IterationTimeout)
	}
	if cfg.Iterations != 10 {
		t.Fatalf("Iterations = %d, want 10", cfg.Iterations)
	}
}

func TestLoadJSONC(t *testing.T) {
	clearEnv(t)
	path := write(t, "harness.jsonc", `{
	// comments survive the jsonc pass
	"sandbox": "setuid",
	"iteration_timeout": "250ms",
}`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Sandbox != "setuid" {
		t.Fatalf("Sandbox = %q, want setuid", cfg.Sandbox)
	}
	if cfg.IterationTimeout != 250*time.Millisecond {
		t.Fatalf("IterationTimeout = %v, want 250ms", cfg.IterationTimeout)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sandbox != "none" || cfg.Debug || cfg.IterationTimeout != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := write(t, "harness.yaml", "sandbox: none\n")
	t.Setenv("FUZZBED_DEBUG", "1")
	t.Setenv("FUZZBED_SANDBOX", "namespace")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !cfg.Debug {
		t.Fatal("FUZZBED_DEBUG override ignored")
	}
	if cfg.Sandbox != "namespace" {
		t.Fatalf("Sandbox = %q, want namespace from FUZZBED_SANDBOX", cfg.Sandbox)
	}
}

func TestLoadUsesConfigEnv(t *testing.T) {
	clearEnv(t)
	path := write(t, "harness.yaml", "sandbox: setuid\n")
	t.Setenv("FUZZBED_CONFIG", path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sandbox != "setuid" {
		t.Fatalf("Sandbox = %q, want setuid from FUZZBED_CONFIG file", cfg.Sandbox)
	}
}

func TestBadTimeoutRejected(t *testing.T) {
	clearEnv(t)
	path := write(t, "harness.yaml", "iteration_timeout: soon\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile accepted a malformed duration")
	}
}
