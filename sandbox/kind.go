// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Kind names an isolation profile. Exactly one Kind is active in a
// harness run.
type Kind string

const (
	// KindNone applies only the common prelude.
	KindNone Kind = "none"

	// KindSetuid additionally switches to the nobody uid/gid.
	KindSetuid Kind = "setuid"

	// KindNamespace isolates the test in fresh user/pid/uts/net
	// namespaces with a tmpfs root.
	KindNamespace Kind = "namespace"
)

// ParseKind validates a profile name from configuration.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindNone, KindSetuid, KindNamespace:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown sandbox kind %q (want none, setuid or namespace)", s)
	}
}

// Environment variables carrying harness state across the re-exec
// boundary into the sandbox stage.
const (
	// StageEnv marks which stage of the harness a process runs.
	StageEnv = "FUZZBED_STAGE"

	// StageSandbox is the StageEnv value for the sandbox process.
	StageSandbox = "sandbox"

	realUIDEnv = "FUZZBED_REAL_UID"
	realGIDEnv = "FUZZBED_REAL_GID"
)

// Profile is the capability a harness run holds for its isolation
// strategy. Command is the parent side: it builds the sandbox-stage
// child process. Apply is the child side: it performs the privilege
// drops, after which the process must not regain what was dropped —
// namespace memberships and capability sets are inherited by every
// iteration child and cannot be re-tightened.
type Profile interface {
	Kind() Kind

	// Command builds the sandbox-stage process: a re-execution of
	// the harness binary with the stage marker and whatever clone
	// flags the profile needs. The caller starts it and owns the
	// returned process.
	Command() (*exec.Cmd, error)

	// Apply runs inside the sandbox process before the iteration
	// loop. A nil return means the sandbox is in effect; an error
	// is a logical setup failure the caller turns into a FAIL exit.
	Apply(logger *slog.Logger) error
}

// ForKind returns the profile implementing kind.
func ForKind(kind Kind) Profile {
	switch kind {
	case KindSetuid:
		return setuidProfile{}
	case KindNamespace:
		return namespaceProfile{}
	default:
		return noneProfile{}
	}
}

// selfExecutable resolves the running harness binary for re-execution.
func selfExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving harness binary: %w", err)
	}
	return exe, nil
}

// stageCommand builds the common part of a sandbox-stage child:
// same binary, inherited stdio, stage marker appended to the current
// environment.
func stageCommand() (*exec.Cmd, error) {
	exe, err := selfExecutable()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(exe)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), StageEnv+"="+StageSandbox)
	return cmd, nil
}
