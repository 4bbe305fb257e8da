// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package pseudo

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/fuzzbed-foundation/fuzzbed/lib/diag"
)

// fuseMount implements SyzFuseMount. It opens /dev/fuse, builds the
// mount option string and mounts a "fuse" filesystem at the path
// pointed to by target. The mount result is deliberately ignored:
// the test program gets the /dev/fuse fd either way, and even a
// failed mount can leave the kernel in interesting state.
//
// Argument layout (wire format): target, mode, uid, gid, maxread,
// flags. target is a raw test-chosen pointer passed through to the
// mount syscall untouched.
func fuseMount(target, mode, uid, gid, maxread, flags uintptr) uintptr {
	fd, err := unix.Open("/dev/fuse", unix.O_RDWR, 0)
	if err != nil {
		return errResult
	}
	opts := fuseOptions(fd, uint64(mode), uint64(uid), uint64(gid), uint64(maxread), 0)
	diag.Debugf("fuse_mount opts=%s", opts[:len(opts)-1])
	source := []byte{0} // empty source string
	mountRaw(uintptr(unsafe.Pointer(&source[0])), target, "fuse", flags, opts)
	runtime.KeepAlive(source)
	return uintptr(fd)
}

// fuseblkMount implements SyzFuseblkMount. As fuseMount, but first
// creates a block device node (major 7, minor 199) at the path
// pointed to by blkdev, and mounts type "fuseblk" with blkdev as the
// mount source. When mknod fails the fd is returned without
// attempting the mount.
//
// Argument layout (wire format): target, blkdev, mode, uid, gid,
// maxread, blksize, flags.
func fuseblkMount(target, blkdev, mode, uid, gid, maxread, blksize, flags uintptr) uintptr {
	fd, err := unix.Open("/dev/fuse", unix.O_RDWR, 0)
	if err != nil {
		return errResult
	}
	atFdCwd := unix.AT_FDCWD
	_, _, errno := unix.Syscall6(unix.SYS_MKNODAT,
		uintptr(atFdCwd), blkdev, uintptr(unix.S_IFBLK),
		uintptr(unix.Mkdev(7, 199)), 0, 0)
	if errno != 0 {
		return uintptr(fd)
	}
	opts := fuseOptions(fd, uint64(mode), uint64(uid), uint64(gid), uint64(maxread), uint64(blksize))
	diag.Debugf("fuseblk_mount opts=%s", opts[:len(opts)-1])
	mountRaw(blkdev, target, "fuseblk", flags, opts)
	return uintptr(fd)
}

// fuseOptions builds the NUL-terminated mount option string shared by
// both FUSE helpers. The layout is a wire format generated
// reproducers depend on: rootmode masks the low two bits of mode (in
// octal, with a leading 0), and those same two bits gate the
// default_permissions and allow_other options. blksize is emitted
// only by the fuseblk path (nonzero), after max_read and before the
// mode-gated options.
func fuseOptions(fd int, mode, uid, gid, maxread, blksize uint64) []byte {
	opts := fmt.Sprintf("fd=%d,user_id=%d,group_id=%d,rootmode=0%o",
		fd, uid, gid, uint32(mode)&^uint32(3))
	if maxread != 0 {
		opts += fmt.Sprintf(",max_read=%d", maxread)
	}
	if blksize != 0 {
		opts += fmt.Sprintf(",blksize=%d", blksize)
	}
	if mode&1 != 0 {
		opts += ",default_permissions"
	}
	if mode&2 != 0 {
		opts += ",allow_other"
	}
	return append([]byte(opts), 0)
}

// mountRaw issues the mount syscall with source and target as raw
// machine words. The result is discarded; both callers ignore mount
// failures on purpose.
func mountRaw(source, target uintptr, fstype string, flags uintptr, data []byte) {
	fstypePtr, err := unix.BytePtrFromString(fstype)
	if err != nil {
		return
	}
	_, _, _ = unix.Syscall6(unix.SYS_MOUNT,
		source, target,
		uintptr(unsafe.Pointer(fstypePtr)), flags,
		uintptr(unsafe.Pointer(&data[0])), 0)
	runtime.KeepAlive(fstypePtr)
	runtime.KeepAlive(data)
}
