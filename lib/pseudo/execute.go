// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package pseudo

import (
	"bytes"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/fuzzbed-foundation/fuzzbed/lib/diag"
)

// templateBufSize bounds device path template expansion. Templates
// longer than this are truncated, keeping room for the terminator.
const templateBufSize = 1024

// errResult is the -1 helpers return when their open fails.
const errResult = ^uintptr(0)

// Execute performs one test operation: a raw kernel syscall for
// ordinary opcodes, a composite helper for the reserved ones. Up to
// nine arguments are consumed by helpers; the raw path forwards the
// first six. Missing arguments are zero.
//
// The return value is the raw machine word: a syscall result in the
// kernel's negative-errno convention, or a file descriptor (or -1)
// from helpers.
func Execute(op Opcode, args ...uintptr) uintptr {
	var a [9]uintptr
	copy(a[:], args)
	switch op {
	case SyzTest:
		return 0
	case SyzOpenDev:
		return openDev(a[0], a[1], a[2])
	case SyzOpenPts:
		return openPts(a[0], a[1])
	case SyzFuseMount:
		return fuseMount(a[0], a[1], a[2], a[3], a[4], a[5])
	case SyzFuseblkMount:
		return fuseblkMount(a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7])
	default:
		r1, _, errno := unix.Syscall6(uintptr(op), a[0], a[1], a[2], a[3], a[4], a[5])
		if errno != 0 {
			// Hand back the kernel's negative-errno word; the Go
			// wrapper splits it into -1 plus a separate errno.
			return uintptr(-int(errno))
		}
		return r1
	}
}

// openDev implements SyzOpenDev. a0 is either the class selector
// (0x0c char, 0x0b block) with a1:a2 as major:minor, or a pointer to
// a NUL-terminated path template containing '#' placeholders.
func openDev(a0, a1, a2 uintptr) uintptr {
	if a0 == 0x0c || a0 == 0x0b {
		path := devNodePath(a0, a1, a2)
		diag.Debugf("open_dev %s", path)
		return openPath(path, unix.O_RDWR)
	}
	path := expandTemplate(copyTemplate(a0), uint64(a1))
	diag.Debugf("open_dev %s", path)
	return openPath(path, int(a2))
}

// devNodePath formats the path of a numbered device node. The major
// and minor are reduced mod 256, matching the wire format.
func devNodePath(class, major, minor uintptr) string {
	name := "block"
	if class == 0x0c {
		name = "char"
	}
	return fmt.Sprintf("/dev/%s/%d:%d", name, uint8(major), uint8(minor))
}

// copyTemplate copies a NUL-terminated template out of test-program
// memory, truncating at templateBufSize-1 bytes. Reading byte by byte
// never crosses the terminator, so a short template near the end of a
// mapping is not overread. The source pointer is test-chosen; a fault
// here unwinds to the caller's guard region.
func copyTemplate(addr uintptr) []byte {
	buf := make([]byte, 0, templateBufSize)
	for i := uintptr(0); i < templateBufSize-1; i++ {
		b := *(*byte)(unsafe.Pointer(addr + i)) //nolint:govet // test-chosen pointer, guarded by caller
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return buf
}

// expandTemplate replaces '#' placeholders with decimal digits of id,
// least significant first. Runs until no '#' remains; terminates
// because the buffer is finite and every pass consumes one '#'.
func expandTemplate(template []byte, id uint64) string {
	buf := append([]byte(nil), template...)
	for {
		i := bytes.IndexByte(buf, '#')
		if i < 0 {
			break
		}
		buf[i] = '0' + byte(id%10)
		id /= 10
	}
	return string(buf)
}

// openPts implements SyzOpenPts: query the pty number of master fd
// a0, open the matching slave with flags a1.
func openPts(a0, a1 uintptr) uintptr {
	ptyno, err := unix.IoctlGetInt(int(a0), unix.TIOCGPTN)
	if err != nil {
		return errResult
	}
	path := fmt.Sprintf("/dev/pts/%d", ptyno)
	diag.Debugf("open_pts %s", path)
	return openPath(path, int(a1))
}

func openPath(path string, flags int) uintptr {
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return errResult
	}
	return uintptr(fd)
}
