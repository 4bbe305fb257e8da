// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

// Package pseudo dispatches a numeric opcode to either a raw kernel
// syscall or one of a small set of composite helpers.
//
// A test program reaches the kernel exclusively through Execute. Most
// opcodes are plain syscall numbers and forward to the raw syscall
// entry with six arguments. A reserved range above the syscall number
// space selects helpers for resources that cannot be reached with a
// single kernel entry: numbered device nodes, pseudo-terminal slaves,
// and FUSE/FUSEBLK endpoints.
//
// The opcode values and helper argument layouts are a wire format:
// standalone reproducers are generated against them, so they cannot
// change without regenerating every reproducer.
//
// Errors never terminate the harness from here. Raw syscalls return
// the kernel's negative-errno convention unchanged; helpers return
// ^uintptr(0) (-1) when their open fails. Mount failures inside the
// FUSE helpers are deliberately ignored: even a half-mounted fuse
// endpoint may produce useful fuzzing state, and the returned fd is
// often enough on its own.
//
// Helper arguments may be raw pointers chosen by the test program.
// Callers are expected to wrap Execute in a faultguard region; this
// package dereferences those pointers directly and lets faults unwind
// to the guard.
package pseudo
