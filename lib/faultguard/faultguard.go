// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package faultguard

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync/atomic"
)

// depth counts currently armed guarded regions. The harness runs one
// goroutine of test execution per process, so a process-wide counter
// carries the same information the per-thread counter does in a
// multi-threaded design. It is atomic so tests and tracing can read
// it while a region runs.
var depth atomic.Int32

// Depth returns the number of guarded regions currently entered.
// Zero whenever execution is outside every region.
func Depth() int32 {
	return depth.Load()
}

// Run executes fn with fault recovery armed. It returns true when fn
// was abandoned by a memory fault, false when fn completed. Any
// non-fault panic from fn propagates unchanged.
//
// Regions nest: a fault inside an inner Run unwinds only the inner
// region, and the depth counter is restored on every exit path.
func Run(fn func()) (faulted bool) {
	depth.Add(1)
	defer depth.Add(-1)

	// Arm fault panics for this goroutine, restoring the previous
	// setting on exit so nesting composes.
	prev := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(prev)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if !isMemoryFault(r) {
			panic(r)
		}
		faulted = true
	}()

	fn()
	return false
}

// isMemoryFault reports whether a recovered panic value came from an
// access violation or bus error rather than an ordinary panic.
//
// Faults at non-nil addresses (armed by SetPanicOnFault) carry the
// faulting address via an Addr method. Nil dereferences raise the
// runtime's "invalid memory address or nil pointer dereference"
// error, which has no distinguishing type, so it is matched on its
// message. Other runtime errors (index out of range, integer divide
// by zero, ...) are not faults and must not be swallowed.
func isMemoryFault(r any) bool {
	if _, ok := r.(interface{ Addr() uintptr }); ok {
		return true
	}
	if err, ok := r.(runtime.Error); ok {
		return strings.Contains(err.Error(), "invalid memory address")
	}
	return false
}
