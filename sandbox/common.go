// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"log/slog"

	"golang.org/x/sys/unix"
)

// Resource limits applied to the sandbox process and inherited by
// every iteration child.
const (
	addressSpaceLimit = 128 << 20 // 128 MiB of virtual address space
	fileSizeLimit     = 1 << 20   // 1 MiB per created file
	stackLimit        = 1 << 20   // 1 MiB of stack
	coreLimit         = 0         // no core dumps
)

// commonPrelude is the privilege reduction every profile starts
// with. All steps are best-effort, matching the standalone
// reproducer behavior: a harness on an exotic kernel should still
// run, just less confined. The caller's profile tail handles the
// steps whose failure must abort the run.
func commonPrelude(logger *slog.Logger) {
	// Die with the parent: if the supervisor or the main process
	// goes away, the whole test tree goes with it.
	if err := unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(unix.SIGKILL), 0, 0, 0); err != nil {
		logger.Warn("prctl(PR_SET_PDEATHSIG) failed", "error", err)
	}

	// Fresh process group and session, so per-iteration group kills
	// cannot reach outside the sandbox tree. Setsid comes first: it
	// creates both the session and a group led by this process, and it
	// fails for a process that already leads a group. The Setpgid that
	// follows is then a no-op.
	_, _ = unix.Setsid()
	_ = unix.Setpgid(0, 0)

	setLimit(unix.RLIMIT_AS, addressSpaceLimit)
	setLimit(unix.RLIMIT_FSIZE, fileSizeLimit)
	setLimit(unix.RLIMIT_STACK, stackLimit)
	setLimit(unix.RLIMIT_CORE, coreLimit)

	// Unshare mount and IPC namespaces and the I/O context in three
	// separate calls: a single joint call fails EINVAL on some
	// kernels.
	_ = unix.Unshare(unix.CLONE_NEWNS)
	_ = unix.Unshare(unix.CLONE_NEWIPC)
	_ = unix.Unshare(unix.CLONE_IO)
}

func setLimit(resource int, value uint64) {
	limit := unix.Rlimit{Cur: value, Max: value}
	_ = unix.Setrlimit(resource, &limit)
}
