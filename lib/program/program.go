// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package program

import (
	"fmt"

	"github.com/fuzzbed-foundation/fuzzbed/lib/codec"
	"github.com/fuzzbed-foundation/fuzzbed/lib/diag"
	"github.com/fuzzbed-foundation/fuzzbed/lib/faultguard"
	"github.com/fuzzbed-foundation/fuzzbed/lib/pseudo"
)

// maxArgs is the number of argument slots per call. Fixed by the
// dispatcher's wire format.
const maxArgs = 9

// Call is one test operation: an opcode and its arguments. Argument
// slots beyond what the opcode consumes are zero.
type Call struct {
	Op   pseudo.Opcode   `cbor:"op" json:"op"`
	Args [maxArgs]uint64 `cbor:"args" json:"args"`
}

// Program is an ordered sequence of calls.
type Program struct {
	Calls []Call `cbor:"calls" json:"calls"`
}

// Marshal returns the program's deterministic wire form.
func (p *Program) Marshal() ([]byte, error) {
	return codec.Marshal(p)
}

// Unmarshal decodes a wire-form program.
func Unmarshal(data []byte) (*Program, error) {
	var p Program
	if err := codec.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	return &p, nil
}

// Result summarizes one Exec run.
type Result struct {
	// Executed is the number of calls dispatched.
	Executed int

	// Faulted is the number of calls abandoned by a memory fault
	// inside their guarded region.
	Faulted int
}

// Exec runs every call in order in the current process. Each call is
// dispatched inside a fault-guarded region: a user-space memory fault
// abandons that call and execution continues with the next one.
// Kernel-level errors are the test program's concern and are only
// visible on the debug channel.
func (p *Program) Exec() Result {
	var result Result
	for i, call := range p.Calls {
		var args [maxArgs]uintptr
		for j, a := range call.Args {
			args[j] = uintptr(a)
		}
		var ret uintptr
		faulted := faultguard.Run(func() {
			ret = pseudo.Execute(call.Op, args[:]...)
		})
		result.Executed++
		if faulted {
			result.Faulted++
			diag.Debugf("#%d %v = fault", i, call.Op)
			continue
		}
		diag.Debugf("#%d %v = %#x", i, call.Op, ret)
	}
	return result
}
