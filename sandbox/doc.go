// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox confines the process tree that executes test
// programs.
//
// A profile is a privilege-dropping prelude the sandbox process runs
// before the first test call. Three profiles exist, in increasing
// isolation order:
//
//   - none: process group, session and resource limits only.
//   - setuid: additionally drops to the nobody uid/gid (65534).
//   - namespace: runs in fresh user, pid, uts and net namespaces,
//     pivots into a tmpfs-backed root with only /dev bound in, and
//     drops CAP_SYS_PTRACE so a test cannot attach to its ancestors.
//
// All profiles share a common prelude: parent-death SIGKILL, a new
// process group and session, address-space/file-size/stack/core
// limits, and unsharing of the mount and IPC namespaces and the I/O
// context (three separate unshare calls — a joint call fails EINVAL
// on some kernels).
//
// Go cannot fork without exec, so "the sandbox process" is a
// re-execution of the harness binary with a stage marker in its
// environment. Profile.Command builds that child (the parent side);
// Profile.Apply runs inside it (the child side) and performs the
// actual privilege drops. Sandboxing is deliberately incomplete:
// containment of one short-lived test process is the goal, not a
// container runtime, and known escapes (a test raising its parent's
// rlimits) are tolerated for throughput.
package sandbox
