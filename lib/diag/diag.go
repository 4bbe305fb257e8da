// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Reserved exit codes. The supervisor dispatches on these values, so
// they are protocol constants.
const (
	// StatusFail reports a logical error owned by the harness itself.
	StatusFail = 67

	// StatusKernelError reports an observed kernel anomaly. Emitted
	// only by executor builds, via KernelErrorf.
	StatusKernelError = 68

	// StatusRetry reports a transient condition. The supervisor is
	// expected to relaunch the harness.
	StatusRetry = 69
)

// exit is swapped out by tests; fatal paths are otherwise untestable.
var exit = os.Exit

var debugEnabled atomic.Bool

// SetDebug enables or disables the Debugf trace channel. Called once
// at startup, before any concurrent reads.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether the trace channel is on.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf writes a formatted trace line to stdout when the debug
// channel is enabled. Otherwise it is a no-op.
func Debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

// Failf terminates the harness with StatusFail. The message goes to
// stderr; when one of args carries a unix errno (a unix.Errno value
// or an error wrapping one), its numeric value is appended so the
// supervisor log preserves the syscall failure cause. Never returns.
func Failf(format string, args ...any) {
	fatal(StatusFail, format, args...)
}

// Retryf terminates the harness with StatusRetry. Same message
// contract as Failf. Never returns.
func Retryf(format string, args ...any) {
	fatal(StatusRetry, format, args...)
}

func fatal(status int, format string, args ...any) {
	os.Stdout.Sync()
	msg := fmt.Sprintf(format, args...)
	if errno, ok := errnoOf(args); ok {
		msg += fmt.Sprintf(" (errno %d)", int(errno))
	}
	fmt.Fprintln(os.Stderr, msg)
	exit(status)
}

// errnoOf extracts the first unix errno found in args. Fatal messages
// are formatted from the failing error value, so scanning the format
// args recovers what C's global errno provided.
func errnoOf(args []any) (unix.Errno, bool) {
	for _, arg := range args {
		err, ok := arg.(error)
		if !ok {
			continue
		}
		var errno unix.Errno
		if errors.As(err, &errno) {
			return errno, true
		}
	}
	return 0, false
}
