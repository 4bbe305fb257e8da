// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

// Package program represents the test programs the harness executes:
// a sequence of calls, each an opcode plus up to nine machine-word
// arguments.
//
// A program has three stable forms:
//
//   - The wire form: deterministic CBOR (lib/codec). Identical
//     programs encode to identical bytes everywhere.
//   - The corpus file form: a one-byte compression tag (none, LZ4,
//     zstd) followed by the possibly-compressed wire form.
//   - The digest: a keyed BLAKE3 hash of the wire form, used as
//     corpus identity and in debug traces.
//
// Exec runs the program in the current process, dispatching each call
// through pseudo.Execute inside a fault-guarded region, so a call
// that dereferences a bad pointer in user space skips forward to the
// next call instead of killing the iteration child.
package program
