// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

// fuzzbed-harness executes test programs in a confined, short-lived
// process tree.
//
// One binary runs all three stages of the process tree, selected by
// the FUZZBED_STAGE environment variable:
//
//   - the main process (no stage set) prepares a private scratch
//     directory and spawns the sandbox process;
//   - the sandbox process applies the configured isolation profile
//     and drives the iteration loop;
//   - each iteration child executes the test program once in a fresh
//     working directory.
//
// The supervisor that launches the harness consumes its exit code:
// 0 clean, 67 harness failure, 69 transient (relaunch), anything
// else a crash.
package main
