// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

// Package repeat drives test iterations inside the sandbox process.
//
// Each iteration gets a fresh numbered working directory, a child
// process bounded by a wall-clock timeout, and a reclamation pass
// that removes whatever the test left behind. The reclamation is the
// non-trivial part: a test program can leave bind mounts, nested and
// multiply-stacked mounts, and read-only mounts under its directory,
// so RemoveAll unmounts its way to a fixed point instead of assuming
// one rm -rf pass suffices.
//
// No state survives an iteration. The child's descriptors die with
// it, its directory is removed, and the next iteration starts clean.
package repeat
