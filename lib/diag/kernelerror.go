// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

//go:build executor

package diag

import (
	"fmt"
	"os"
)

// KernelErrorf terminates the harness with StatusKernelError. Used by
// the executor's syscall-result validator when the kernel returns
// something it never legally can. Unlike Failf and Retryf, no errno
// is appended: the message describes a kernel response, not a failed
// harness syscall. Never returns.
func KernelErrorf(format string, args ...any) {
	os.Stdout.Sync()
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	exit(StatusKernelError)
}
