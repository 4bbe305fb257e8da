// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// namespaceProfile clones the sandbox process straight into fresh
// user, pid, uts and net namespaces, maps the caller's uid/gid to
// root inside, and confines the filesystem view to a tmpfs root with
// only /dev bound in.
type namespaceProfile struct{}

func (namespaceProfile) Kind() Kind { return KindNamespace }

// Command builds the sandbox-stage child with the namespace clone
// flags. The caller's real uid and gid ride along in the environment:
// inside the new user namespace getuid answers the overflow id until
// the maps are written, so the child cannot recover them itself.
func (namespaceProfile) Command() (*exec.Cmd, error) {
	cmd, err := stageCommand()
	if err != nil {
		return nil, err
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWUSER | syscall.CLONE_NEWPID |
			syscall.CLONE_NEWUTS | syscall.CLONE_NEWNET,
	}
	cmd.Env = append(cmd.Env,
		realUIDEnv+"="+strconv.Itoa(os.Getuid()),
		realGIDEnv+"="+strconv.Itoa(os.Getgid()),
	)
	return cmd, nil
}

func (namespaceProfile) Apply(logger *slog.Logger) error {
	commonPrelude(logger)

	realUID, realGID, err := realIDs()
	if err != nil {
		return err
	}

	// Absent on some kernels; without it the map writes below still
	// work for the single-mapping case.
	_ = writeFile("/proc/self/setgroups", "deny")

	if err := writeFile("/proc/self/uid_map", fmt.Sprintf("0 %d 1\n", realUID)); err != nil {
		return fmt.Errorf("writing uid_map: %w", err)
	}
	if err := writeFile("/proc/self/gid_map", fmt.Sprintf("0 %d 1\n", realGID)); err != nil {
		return fmt.Errorf("writing gid_map: %w", err)
	}

	if err := buildScratchRoot(logger); err != nil {
		return err
	}

	if err := dropPtraceCapability(); err != nil {
		return err
	}

	logger.Debug("namespace sandbox in effect")
	return nil
}

// buildScratchRoot assembles the tmpfs-backed root the test tree runs
// under and moves the process into it. The pivot is best-effort: on
// kernels where pivot_root is unavailable the chroot alone still
// confines the filesystem view.
func buildScratchRoot(logger *slog.Logger) error {
	if err := os.Mkdir("./syz-tmp", 0777); err != nil {
		return fmt.Errorf("creating scratch tree: %w", err)
	}
	if err := unix.Mount("", "./syz-tmp", "tmpfs", 0, ""); err != nil {
		return fmt.Errorf("mounting scratch tmpfs: %w", err)
	}
	if err := os.Mkdir("./syz-tmp/newroot", 0777); err != nil {
		return fmt.Errorf("creating new root: %w", err)
	}
	if err := os.Mkdir("./syz-tmp/newroot/dev", 0700); err != nil {
		return fmt.Errorf("creating new root /dev: %w", err)
	}
	if err := unix.Mount("/dev", "./syz-tmp/newroot/dev", "",
		unix.MS_BIND|unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return fmt.Errorf("binding /dev into new root: %w", err)
	}
	if err := os.Mkdir("./syz-tmp/pivot", 0777); err != nil {
		return fmt.Errorf("creating pivot point: %w", err)
	}

	if err := unix.PivotRoot("./syz-tmp", "./syz-tmp/pivot"); err != nil {
		logger.Debug("pivot_root failed, continuing without it", "error", err)
		if err := os.Chdir("./syz-tmp"); err != nil {
			return fmt.Errorf("entering scratch tree: %w", err)
		}
	} else {
		if err := os.Chdir("/"); err != nil {
			return fmt.Errorf("entering pivoted root: %w", err)
		}
		if err := unix.Unmount("./pivot", unix.MNT_DETACH); err != nil {
			return fmt.Errorf("detaching old root: %w", err)
		}
	}

	if err := unix.Chroot("./newroot"); err != nil {
		return fmt.Errorf("chrooting into new root: %w", err)
	}
	if err := os.Chdir("/"); err != nil {
		return fmt.Errorf("entering chroot: %w", err)
	}
	return nil
}

// dropPtraceCapability clears CAP_SYS_PTRACE from the effective,
// permitted and inheritable sets. A test that could ptrace the loop
// process can SIGSTOP it and hang the harness; ptrace of the test's
// own descendants — what fuzzing actually needs — survives the drop.
func dropPtraceCapability() error {
	header := unix.CapUserHeader{
		Version: unix.LINUX_CAPABILITY_VERSION_3,
		Pid:     int32(os.Getpid()),
	}
	var data [2]unix.CapUserData
	if err := unix.Capget(&header, &data[0]); err != nil {
		return fmt.Errorf("reading capability sets: %w", err)
	}
	const ptraceBit = uint32(1) << unix.CAP_SYS_PTRACE
	data[0].Effective &^= ptraceBit
	data[0].Permitted &^= ptraceBit
	data[0].Inheritable &^= ptraceBit
	if err := unix.Capset(&header, &data[0]); err != nil {
		return fmt.Errorf("writing capability sets: %w", err)
	}
	return nil
}

// realIDs recovers the pre-clone uid and gid from the environment
// set by Command.
func realIDs() (uid, gid int, err error) {
	uid, err = strconv.Atoi(os.Getenv(realUIDEnv))
	if err != nil {
		return 0, 0, fmt.Errorf("missing or bad %s: %w", realUIDEnv, err)
	}
	gid, err = strconv.Atoi(os.Getenv(realGIDEnv))
	if err != nil {
		return 0, 0, fmt.Errorf("missing or bad %s: %w", realGIDEnv, err)
	}
	return uid, gid, nil
}

// writeFile writes a small control string, O_CLOEXEC like every
// other harness-held descriptor.
func writeFile(path, contents string) error {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	n, err := unix.Write(fd, []byte(contents))
	if closeErr := unix.Close(fd); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if n != len(contents) {
		return fmt.Errorf("short write (%d of %d bytes)", n, len(contents))
	}
	return nil
}
