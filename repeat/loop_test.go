// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package repeat

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fuzzbed-foundation/fuzzbed/lib/clock"
)

func TestLoopRunsIterations(t *testing.T) {
	t.Chdir(t.TempDir())

	var dirs []string
	loop := &Loop{
		NewChild: func(iter int) *exec.Cmd {
			return exec.Command("true")
		},
		Iterations: 3,
	}
	// Record which iteration directories exist while children run:
	// easiest after the fact — they must all be gone.
	if err := loop.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < 3; i++ {
		dir := fmt.Sprintf("./%d", i)
		if _, err := os.Lstat(dir); !os.IsNotExist(err) {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) != 0 {
		t.Fatalf("iteration directories not reclaimed: %v", dirs)
	}
}

func TestLoopChildRunsInIterationDirectory(t *testing.T) {
	base := t.TempDir()
	t.Chdir(base)

	loop := &Loop{
		NewChild: func(iter int) *exec.Cmd {
			// Leave a marker named after the child's cwd basename in
			// the parent directory, proving the chdir happened.
			return exec.Command("sh", "-c", `touch "../mark-$(basename "$PWD")"`)
		},
		Iterations: 2,
	}
	if err := loop.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < 2; i++ {
		marker := fmt.Sprintf("mark-%d", i)
		if _, err := os.Stat(marker); err != nil {
			t.Fatalf("iteration %d did not run in ./%d: %v", i, i, err)
		}
	}
}

func TestLoopTimeoutKillsSlowChild(t *testing.T) {
	t.Chdir(t.TempDir())

	fake := clock.Fake(time.Unix(1000, 0))
	loop := &Loop{
		NewChild: func(iter int) *exec.Cmd {
			return exec.Command("sleep", "30")
		},
		Iterations: 1,
		Clock:      fake,
	}

	start := time.Now()
	if err := loop.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Second {
		t.Fatalf("loop took %v; the timeout did not cut the child short", elapsed)
	}
	// The fake clock must have crossed the timeout through polling
	// sleeps.
	if fake.Slept() < DefaultTimeout {
		t.Fatalf("fake clock slept only %v, want at least %v", fake.Slept(), DefaultTimeout)
	}
	if _, err := os.Lstat("./0"); !os.IsNotExist(err) {
		t.Fatal("iteration directory survived a timed-out child")
	}
	// No zombie: Run reaps every child it starts, so nothing of ours
	// remains waitable.
	var status unix.WaitStatus
	if _, err := unix.Wait4(-1, &status, unix.WNOHANG, nil); err != nil && !errors.Is(err, unix.ECHILD) {
		t.Fatalf("unexpected wait error: %v", err)
	}
}

func TestLoopShortTimeoutOverride(t *testing.T) {
	t.Chdir(t.TempDir())

	loop := &Loop{
		NewChild: func(iter int) *exec.Cmd {
			return exec.Command("sleep", "30")
		},
		Iterations: 1,
		Timeout:    200 * time.Millisecond,
	}
	start := time.Now()
	if err := loop.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("200ms timeout took %v to trip", elapsed)
	}
}

func TestLoopStartFailureIsNotTransient(t *testing.T) {
	t.Chdir(t.TempDir())

	loop := &Loop{
		NewChild: func(iter int) *exec.Cmd {
			return exec.Command("/nonexistent-harness-binary")
		},
		Iterations: 1,
	}
	err := loop.Run()
	if err == nil {
		t.Fatal("Run succeeded with an unstartable child")
	}
	if IsTransient(err) {
		t.Fatal("start failure classified transient; it is a setup bug")
	}
}

func TestIsTransient(t *testing.T) {
	plain := errors.New("plain")
	if IsTransient(plain) {
		t.Fatal("plain error classified transient")
	}
	wrapped := transientf("reclaiming ./0: %w", plain)
	if !IsTransient(wrapped) {
		t.Fatal("transientf error not classified transient")
	}
	if !IsTransient(fmt.Errorf("outer: %w", wrapped)) {
		t.Fatal("wrapped transient error lost its classification")
	}
}
