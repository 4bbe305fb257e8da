// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

// Package diag provides the harness exit discipline and the debug
// trace channel.
//
// The harness communicates with its supervisor exclusively through
// process exit codes. Three reserved codes cover everything the
// supervisor needs to distinguish without parsing stderr:
//
//   - 67 (StatusFail): the harness detected a logical precondition
//     violation — bad input, setup failure. A configuration bug.
//   - 68 (StatusKernelError): the test observed an illegal kernel
//     response. Only present in executor builds (build tag
//     "executor"); standalone reproducers never emit it.
//   - 69 (StatusRetry): a transient condition (ENOMEM during setup,
//     an unreclaimable working directory). Relaunch and try again.
//
// Any other nonzero exit is a signal-delivered termination or a
// runtime crash. Exit code 0 is a clean run.
//
// Debugf is the high-volume per-operation trace stream. It writes to
// stdout and is a no-op unless enabled once at startup via SetDebug.
// It is distinct from the binary's slog-based operational logging:
// standalone reproducers carry Debugf but not slog.
package diag
