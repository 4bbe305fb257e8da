// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package repeat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/fuzzbed-foundation/fuzzbed/lib/diag"
)

// maxRemoveRetries caps both the per-entry unlink/unmount loop and
// the whole-directory rescan loop.
const maxRemoveRetries = 100

// RemoveAll removes dir and everything under it, undoing the mount
// games a test program can play:
//
//   - an entry that is a mountpoint cannot be unlinked (EBUSY), so it
//     is detach-unmounted and retried — repeatedly, because a path
//     can be mounted several times;
//   - after an unmount a directory can become non-empty again, so
//     the directory is rescanned until rmdir sticks;
//   - an entry on a read-only mount cannot be removed at all and is
//     silently abandoned.
//
// Every error it does return is transient from the harness's point
// of view: the working tree is in a state only a relaunch (or host
// intervention) can clear.
func RemoveAll(dir string) error {
	for pass := 0; ; pass++ {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, unix.EMFILE) {
				// The test process raised prlimit(NOFILE) on us.
				// Preventing that needs full sandboxing, which costs
				// more throughput than tolerating the occasional
				// relaunch.
				return fmt.Errorf("file table exhausted by test process: %w", err)
			}
			return fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			info, err := os.Lstat(path)
			if err != nil {
				return fmt.Errorf("examining %s: %w", path, err)
			}
			if info.IsDir() {
				if err := RemoveAll(path); err != nil {
					return err
				}
				continue
			}
			if err := unlinkStubborn(path); err != nil {
				return err
			}
		}

		removed, err := rmdirStubborn(dir)
		if err != nil {
			return err
		}
		if removed {
			return nil
		}
		// rmdir saw ENOTEMPTY: an unmount resurfaced entries.
		if pass >= maxRemoveRetries {
			return fmt.Errorf("%s still not empty after %d passes", dir, maxRemoveRetries)
		}
	}
}

// unlinkStubborn unlinks one non-directory entry, detach-unmounting
// the path as often as EBUSY demands. EROFS means the entry lives on
// a read-only mount; it is abandoned without error.
func unlinkStubborn(path string) error {
	for i := 0; ; i++ {
		diag.Debugf("unlink(%s)", path)
		err := unix.Unlink(path)
		if err == nil {
			return nil
		}
		if errors.Is(err, unix.EROFS) {
			diag.Debugf("ignoring EROFS for %s", path)
			return nil
		}
		if !errors.Is(err, unix.EBUSY) || i > maxRemoveRetries {
			return fmt.Errorf("unlinking %s: %w", path, err)
		}
		diag.Debugf("umount(%s)", path)
		if err := unix.Unmount(path, unix.MNT_DETACH); err != nil {
			return fmt.Errorf("unmounting %s: %w", path, err)
		}
	}
}

// rmdirStubborn removes the now-empty directory itself. Returns true
// when the directory is gone (or abandoned on a read-only mount),
// false when the caller must rescan because entries reappeared.
func rmdirStubborn(dir string) (bool, error) {
	for i := 0; ; i++ {
		diag.Debugf("rmdir(%s)", dir)
		err := unix.Rmdir(dir)
		if err == nil {
			return true, nil
		}
		if i < maxRemoveRetries {
			if errors.Is(err, unix.EROFS) {
				diag.Debugf("ignoring EROFS for %s", dir)
				return true, nil
			}
			if errors.Is(err, unix.EBUSY) {
				diag.Debugf("umount(%s)", dir)
				if uerr := unix.Unmount(dir, unix.MNT_DETACH); uerr != nil {
					return false, fmt.Errorf("unmounting %s: %w", dir, uerr)
				}
				continue
			}
			if errors.Is(err, unix.ENOTEMPTY) {
				return false, nil
			}
		}
		return false, fmt.Errorf("removing directory %s: %w", dir, err)
	}
}
