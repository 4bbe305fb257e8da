// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"testing"
)

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"none", "setuid", "namespace"} {
		kind, err := ParseKind(valid)
		if err != nil {
			t.Errorf("ParseKind(%q): %v", valid, err)
		}
		if string(kind) != valid {
			t.Errorf("ParseKind(%q) = %q", valid, kind)
		}
	}
	if _, err := ParseKind("chroot"); err == nil {
		t.Error("ParseKind accepted an unknown kind")
	}
	if _, err := ParseKind(""); err == nil {
		t.Error("ParseKind accepted an empty kind")
	}
}

func TestForKind(t *testing.T) {
	for _, kind := range []Kind{KindNone, KindSetuid, KindNamespace} {
		if got := ForKind(kind).Kind(); got != kind {
			t.Errorf("ForKind(%q).Kind() = %q", kind, got)
		}
	}
}

func TestStageCommandMarksStage(t *testing.T) {
	for _, kind := range []Kind{KindNone, KindSetuid, KindNamespace} {
		t.Run(string(kind), func(t *testing.T) {
			cmd, err := ForKind(kind).Command()
			if err != nil {
				t.Fatalf("Command: %v", err)
			}
			if !slices.Contains(cmd.Env, StageEnv+"="+StageSandbox) {
				t.Fatal("sandbox stage marker missing from child environment")
			}
			exe, err := os.Executable()
			if err != nil {
				t.Fatal(err)
			}
			if cmd.Path != exe {
				t.Fatalf("child path = %q, want the harness binary %q", cmd.Path, exe)
			}
		})
	}
}

func TestNamespaceCommandCloneFlags(t *testing.T) {
	cmd, err := namespaceProfile{}.Command()
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if cmd.SysProcAttr == nil {
		t.Fatal("namespace profile set no SysProcAttr")
	}
	want := uintptr(syscall.CLONE_NEWUSER | syscall.CLONE_NEWPID |
		syscall.CLONE_NEWUTS | syscall.CLONE_NEWNET)
	if cmd.SysProcAttr.Cloneflags != want {
		t.Fatalf("Cloneflags = %#x, want %#x", cmd.SysProcAttr.Cloneflags, want)
	}
}

func TestNamespaceCommandCarriesRealIDs(t *testing.T) {
	cmd, err := namespaceProfile{}.Command()
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	var uid, gid string
	for _, env := range cmd.Env {
		if v, ok := strings.CutPrefix(env, realUIDEnv+"="); ok {
			uid = v
		}
		if v, ok := strings.CutPrefix(env, realGIDEnv+"="); ok {
			gid = v
		}
	}
	if uid != strconv.Itoa(os.Getuid()) {
		t.Fatalf("real uid env = %q, want %d", uid, os.Getuid())
	}
	if gid != strconv.Itoa(os.Getgid()) {
		t.Fatalf("real gid env = %q, want %d", gid, os.Getgid())
	}
}

func TestOtherProfilesUseNoCloneFlags(t *testing.T) {
	for _, kind := range []Kind{KindNone, KindSetuid} {
		cmd, err := ForKind(kind).Command()
		if err != nil {
			t.Fatalf("Command(%q): %v", kind, err)
		}
		if cmd.SysProcAttr != nil && cmd.SysProcAttr.Cloneflags != 0 {
			t.Fatalf("profile %q set clone flags %#x", kind, cmd.SysProcAttr.Cloneflags)
		}
	}
}

func TestRealIDs(t *testing.T) {
	t.Setenv(realUIDEnv, "1000")
	t.Setenv(realGIDEnv, "100")
	uid, gid, err := realIDs()
	if err != nil {
		t.Fatalf("realIDs: %v", err)
	}
	if uid != 1000 || gid != 100 {
		t.Fatalf("realIDs = (%d, %d), want (1000, 100)", uid, gid)
	}

	t.Setenv(realUIDEnv, "")
	if _, _, err := realIDs(); err == nil {
		t.Fatal("realIDs accepted a missing uid")
	}
}

func TestWriteFileMissingPath(t *testing.T) {
	if err := writeFile("/proc/self/definitely-not-a-file", "deny"); err == nil {
		t.Fatal("writeFile succeeded on a nonexistent control file")
	}
}
