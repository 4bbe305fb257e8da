// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
)

// nobodyID is the conventional unprivileged uid and gid.
const nobodyID = 65534

// setuidProfile runs the common prelude, drops supplementary groups
// and switches real/effective/saved ids to nobody. The identity
// switches go through the syscall package, which routes them across
// every runtime thread; a switch that only hit the calling thread
// would leave other threads privileged.
type setuidProfile struct{}

func (setuidProfile) Kind() Kind { return KindSetuid }

func (setuidProfile) Command() (*exec.Cmd, error) {
	return stageCommand()
}

func (setuidProfile) Apply(logger *slog.Logger) error {
	commonPrelude(logger)

	if err := syscall.Setgroups(nil); err != nil {
		return fmt.Errorf("dropping supplementary groups: %w", err)
	}
	if err := syscall.Setresgid(nobodyID, nobodyID, nobodyID); err != nil {
		return fmt.Errorf("switching gid to nobody: %w", err)
	}
	if err := syscall.Setresuid(nobodyID, nobodyID, nobodyID); err != nil {
		return fmt.Errorf("switching uid to nobody: %w", err)
	}
	logger.Debug("setuid sandbox in effect", "uid", nobodyID, "gid", nobodyID)
	return nil
}
