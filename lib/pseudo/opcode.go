// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package pseudo

import (
	"fmt"
	"strconv"
)

// Opcode selects the operation Execute performs. Values below
// HelperBase are kernel syscall numbers and take the default raw
// path; the constants below select composite helpers.
type Opcode uint64

// HelperBase is the first opcode reserved for composite helpers. It
// sits far above the kernel syscall number space on every supported
// architecture. Unknown opcodes at or above it still fall through to
// the raw syscall path, where the kernel answers ENOSYS; the
// dispatcher itself is total.
const HelperBase Opcode = 0x40000000

// Helper opcodes. Protocol constants: generated reproducers encode
// these numbers.
const (
	// SyzTest returns 0 unconditionally. Probe opcode.
	SyzTest Opcode = HelperBase + 0

	// SyzOpenDev opens a device node. With a0 of 0x0c or 0x0b the
	// node is /dev/char/<a1>:<a2> or /dev/block/<a1>:<a2> opened
	// read-write. Otherwise a0 points to a NUL-terminated path
	// template whose '#' placeholders are filled from a1, opened
	// with flags a2.
	SyzOpenDev Opcode = HelperBase + 1

	// SyzOpenPts opens the slave side of the pseudo-terminal whose
	// master is fd a0, with flags a1.
	SyzOpenPts Opcode = HelperBase + 2

	// SyzFuseMount opens /dev/fuse and mounts a fuse filesystem at
	// the path pointed to by a0. Arguments: target, mode, uid, gid,
	// maxread, flags.
	SyzFuseMount Opcode = HelperBase + 3

	// SyzFuseblkMount opens /dev/fuse, creates a block device node
	// and mounts a fuseblk filesystem. Arguments: target, blkdev,
	// mode, uid, gid, maxread, blksize, flags.
	SyzFuseblkMount Opcode = HelperBase + 4
)

// ParseOpcode resolves a helper name or a syscall number written as a
// Go integer literal (decimal, or with a 0x, 0o, 0b or leading-0
// prefix). Used by tooling that authors programs in text form.
func ParseOpcode(s string) (Opcode, error) {
	switch s {
	case "syz_test":
		return SyzTest, nil
	case "syz_open_dev":
		return SyzOpenDev, nil
	case "syz_open_pts":
		return SyzOpenPts, nil
	case "syz_fuse_mount":
		return SyzFuseMount, nil
	case "syz_fuseblk_mount":
		return SyzFuseblkMount, nil
	}
	nr, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown opcode %q", s)
	}
	return Opcode(nr), nil
}

// String returns the helper name, or "syscall_" followed by the
// decimal syscall number for raw opcodes.
func (op Opcode) String() string {
	switch op {
	case SyzTest:
		return "syz_test"
	case SyzOpenDev:
		return "syz_open_dev"
	case SyzOpenPts:
		return "syz_open_pts"
	case SyzFuseMount:
		return "syz_fuse_mount"
	case SyzFuseblkMount:
		return "syz_fuseblk_mount"
	default:
		return "syscall_" + strconv.FormatUint(uint64(op), 10)
	}
}
