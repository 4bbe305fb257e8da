// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/fuzzbed-foundation/fuzzbed/lib/diag"
)

// setupMainProcess performs the one-shot main-process preparation:
// neutralize the libc-internal cancellation signals and move into a
// private scratch directory. Everything the harness writes from here
// on lives under that directory.
func setupMainProcess() {
	ignoreLibcSignals()

	scratch, err := os.MkdirTemp(".", "syzkaller.")
	if err != nil {
		diag.Failf("creating scratch directory: %v", err)
	}
	if err := os.Chmod(scratch, 0777); err != nil {
		diag.Failf("chmod of scratch directory: %v", err)
	}
	if err := os.Chdir(scratch); err != nil {
		diag.Failf("entering scratch directory: %v", err)
	}
}

// kernelSigaction mirrors the kernel's struct sigaction for the raw
// rt_sigaction call.
type kernelSigaction struct {
	handler  uintptr
	flags    uint64
	restorer uintptr
	mask     uint64
}

// ignoreLibcSignals resets the two signals libc reserves for thread
// cancellation and setxid (0x20, 0x21) to SIG_IGN. A stray
// cancellation signal delivered to the main thread would take it
// down without bringing down the process group. Done with the raw
// syscall because these numbers are below libc's visible signal
// range; errors are ignored on kernels that reject it.
func ignoreLibcSignals() {
	const sigIGN = uintptr(1)
	for _, sig := range []uintptr{0x20, 0x21} {
		act := kernelSigaction{handler: sigIGN}
		_, _, _ = unix.Syscall6(unix.SYS_RT_SIGACTION,
			sig, uintptr(unsafe.Pointer(&act)), 0, 8, 0, 0)
	}
}
