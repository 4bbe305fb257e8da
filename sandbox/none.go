// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"log/slog"
	"os/exec"
)

// noneProfile applies only the common prelude. Used when the host
// kernel lacks namespace support or when maximum syscall coverage
// matters more than containment.
type noneProfile struct{}

func (noneProfile) Kind() Kind { return KindNone }

func (noneProfile) Command() (*exec.Cmd, error) {
	return stageCommand()
}

func (noneProfile) Apply(logger *slog.Logger) error {
	commonPrelude(logger)
	return nil
}
