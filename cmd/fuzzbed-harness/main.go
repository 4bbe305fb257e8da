// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/fuzzbed-foundation/fuzzbed/lib/config"
	"github.com/fuzzbed-foundation/fuzzbed/lib/diag"
	"github.com/fuzzbed-foundation/fuzzbed/lib/program"
	"github.com/fuzzbed-foundation/fuzzbed/lib/pseudo"
	"github.com/fuzzbed-foundation/fuzzbed/lib/version"
	"github.com/fuzzbed-foundation/fuzzbed/repeat"
	"github.com/fuzzbed-foundation/fuzzbed/sandbox"
)

// Environment carrying resolved settings across the re-exec
// boundaries between stages. The main process writes these; the
// sandbox and iteration stages only read.
const (
	stageIteration = "iteration"

	envProgram    = "FUZZBED_PROGRAM_WIRE"
	envTimeout    = "FUZZBED_TIMEOUT"
	envIterations = "FUZZBED_ITERATIONS"
)

func main() {
	logger := newLogger()

	switch stage := os.Getenv(sandbox.StageEnv); stage {
	case "":
		runMain(logger)
	case sandbox.StageSandbox:
		runSandbox(logger)
	case stageIteration:
		runIteration()
	default:
		diag.Failf("unknown harness stage %q", stage)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("FUZZBED_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// runMain is the supervisor-facing stage: resolve configuration,
// prepare the scratch directory, spawn the sandbox process and
// mirror its exit.
func runMain(logger *slog.Logger) {
	flags := flag.NewFlagSet("fuzzbed-harness", flag.ExitOnError)
	configPath := flags.String("config", "", "Path to harness config file")
	sandboxKind := flags.String("sandbox", "", "Isolation profile: none, setuid or namespace")
	programPath := flags.String("program", "", "Corpus file to execute each iteration")
	debug := flags.Bool("debug", false, "Enable the per-operation trace channel")
	timeout := flags.Duration("timeout", 0, "Per-iteration wall-time bound (default 5s)")
	iterations := flags.Int("iterations", 0, "Stop after N iterations (0 = run until killed)")
	showVersion := flags.Bool("version", false, "Print version and exit")
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("fuzzbed-harness %s\n", version.Info())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		diag.Failf("loading config: %v", err)
	}
	// Flags win over file and environment.
	if *sandboxKind != "" {
		cfg.Sandbox = *sandboxKind
	}
	if *programPath != "" {
		cfg.Program = *programPath
	}
	if *debug {
		cfg.Debug = true
	}
	if *timeout != 0 {
		cfg.IterationTimeout = *timeout
	}
	if *iterations != 0 {
		cfg.Iterations = *iterations
	}

	kind, err := sandbox.ParseKind(cfg.Sandbox)
	if err != nil {
		diag.Failf("%v", err)
	}
	diag.SetDebug(cfg.Debug)

	// Load the program here and ship its wire form through the
	// environment. The iteration children cannot read the corpus
	// file themselves: the namespace profile chroots them into a
	// tmpfs root that contains only /dev, and a bad corpus file
	// should be a failure before any sandbox is built anyway.
	var wire []byte
	if cfg.Program != "" {
		prog, err := program.ReadFile(cfg.Program)
		if err != nil {
			diag.Failf("loading program: %v", err)
		}
		wire, err = prog.Marshal()
		if err != nil {
			diag.Failf("encoding program: %v", err)
		}
	}

	if term.IsTerminal(int(os.Stderr.Fd())) {
		logger.Info("starting harness",
			"sandbox", kind,
			"program", cfg.Program,
			"debug", cfg.Debug,
		)
	}

	setupMainProcess()
	exportSettings(cfg, wire)

	cmd, err := sandbox.ForKind(kind).Command()
	if err != nil {
		diag.Failf("building sandbox process: %v", err)
	}
	if err := cmd.Start(); err != nil {
		diag.Failf("spawning sandbox process: %v", err)
	}
	logger.Debug("sandbox process started", "pid", cmd.Process.Pid)

	err = cmd.Wait()
	if err == nil {
		os.Exit(0)
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		diag.Failf("waiting for sandbox process: %v", err)
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		// Shell convention for signal deaths; the supervisor only
		// needs "not one of the reserved codes".
		os.Exit(128 + int(ws.Signal()))
	}
	os.Exit(exitErr.ExitCode())
}

// exportSettings publishes resolved settings for the child stages,
// which inherit this environment through every re-exec.
func exportSettings(cfg *config.Config, wire []byte) {
	os.Setenv("FUZZBED_SANDBOX", cfg.Sandbox)
	if cfg.Debug {
		os.Setenv("FUZZBED_DEBUG", "1")
	}
	if len(wire) != 0 {
		os.Setenv(envProgram, base64.StdEncoding.EncodeToString(wire))
	}
	if cfg.IterationTimeout != 0 {
		os.Setenv(envTimeout, cfg.IterationTimeout.String())
	}
	if cfg.Iterations != 0 {
		os.Setenv(envIterations, strconv.Itoa(cfg.Iterations))
	}
}

// runSandbox is the sandbox process: apply the profile's privilege
// drops, then drive iterations until stopped. Never returns to the
// main process; every exit path is an exit code.
func runSandbox(logger *slog.Logger) {
	diag.SetDebug(os.Getenv("FUZZBED_DEBUG") != "")

	kind, err := sandbox.ParseKind(os.Getenv("FUZZBED_SANDBOX"))
	if err != nil {
		diag.Failf("sandbox stage: %v", err)
	}
	if err := sandbox.ForKind(kind).Apply(logger); err != nil {
		diag.Failf("applying %s sandbox: %v", kind, err)
	}

	loop := &repeat.Loop{
		NewChild:   iterationChild,
		Timeout:    envDuration(envTimeout),
		Iterations: envInt(envIterations),
		Logger:     logger,
	}
	if err := loop.Run(); err != nil {
		if repeat.IsTransient(err) {
			diag.Retryf("iteration loop: %v", err)
		}
		diag.Failf("iteration loop: %v", err)
	}
	os.Exit(0)
}

// iterationChild builds the per-iteration process: this binary again,
// at the iteration stage. The loop supplies working directory and
// process-group attributes.
func iterationChild(iter int) *exec.Cmd {
	exe, err := os.Executable()
	if err != nil {
		diag.Failf("resolving harness binary: %v", err)
	}
	cmd := exec.Command(exe)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), sandbox.StageEnv+"="+stageIteration)
	return cmd
}

// runIteration is the iteration child: execute the test program once
// and exit cleanly. Faults inside guarded regions are recovered;
// anything that kills this process is what the fuzzer is here to
// find.
func runIteration() {
	diag.SetDebug(os.Getenv("FUZZBED_DEBUG") != "")

	prog := probeProgram()
	if encoded := os.Getenv(envProgram); encoded != "" {
		wire, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			diag.Failf("decoding program environment: %v", err)
		}
		loaded, err := program.Unmarshal(wire)
		if err != nil {
			diag.Failf("decoding program: %v", err)
		}
		prog = loaded
	}

	digest, err := prog.Digest()
	if err == nil {
		diag.Debugf("executing program %s (%d calls)", digest.Short(), len(prog.Calls))
	}
	result := prog.Exec()
	diag.Debugf("program done: %d executed, %d faulted", result.Executed, result.Faulted)
	os.Exit(0)
}

// probeProgram is the default when no corpus file is configured: a
// single probe call, enough to exercise the whole process tree.
func probeProgram() *program.Program {
	return &program.Program{Calls: []program.Call{{Op: pseudo.SyzTest}}}
}

func envDuration(name string) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
