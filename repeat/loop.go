// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package repeat

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fuzzbed-foundation/fuzzbed/lib/clock"
	"github.com/fuzzbed-foundation/fuzzbed/lib/diag"
)

// DefaultTimeout bounds one iteration's wall time. Absolute: there
// is no grace period once the kill is sent.
const DefaultTimeout = 5 * time.Second

// pollInterval is how often the loop checks whether the iteration
// child has exited.
const pollInterval = time.Millisecond

// Loop runs iteration children until stopped. The zero value is not
// usable; NewChild is required.
type Loop struct {
	// NewChild builds the process for one iteration. The loop sets
	// the working directory, process group and parent-death signal
	// before starting it; the factory supplies binary, arguments
	// and environment.
	NewChild func(iter int) *exec.Cmd

	// Timeout bounds one iteration. Zero means DefaultTimeout.
	Timeout time.Duration

	// Iterations stops the loop after that many iterations. Zero
	// means run until the process is killed, the executor's normal
	// mode.
	Iterations int

	// Clock abstracts time; nil means the real clock.
	Clock clock.Clock

	// Logger for operational events; nil means slog.Default().
	Logger *slog.Logger
}

// Run executes iterations. It returns only on error (or after
// Iterations iterations when that is nonzero). Errors from directory
// reclamation are transient — test with IsTransient to pick the
// retry exit over the failure exit.
func (l *Loop) Run() error {
	clk := l.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	for iter := 0; l.Iterations == 0 || iter < l.Iterations; iter++ {
		if err := l.runIteration(iter, timeout, clk, logger); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) runIteration(iter int, timeout time.Duration, clk clock.Clock, logger *slog.Logger) error {
	dir := "./" + strconv.Itoa(iter)
	if err := os.Mkdir(dir, 0777); err != nil {
		return fmt.Errorf("creating iteration directory: %w", err)
	}

	cmd := l.NewChild(iter)
	cmd.Dir = dir
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	// Own process group so a timeout kill sweeps everything the test
	// spawned; parent-death SIGKILL so an orphaned child cannot
	// outlive the loop.
	cmd.SysProcAttr.Setpgid = true
	cmd.SysProcAttr.Pdeathsig = syscall.SIGKILL

	start := clk.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting iteration child: %w", err)
	}
	pid := cmd.Process.Pid

	status := l.reap(pid, start, timeout, clk, logger)
	logger.Debug("iteration finished",
		"iter", iter,
		"status", status,
		"elapsed", clk.Now().Sub(start),
	)

	if err := RemoveAll(dir); err != nil {
		return transientf("reclaiming %s: %w", dir, err)
	}
	return nil
}

// reap waits for the iteration child, polling so the timeout can cut
// in. On timeout the child's whole process group is killed, then the
// child directly (it may have left its group), then a blocking wait
// collects it. The loop never leaves a zombie behind.
func (l *Loop) reap(pid int, start time.Time, timeout time.Duration, clk clock.Clock, logger *slog.Logger) unix.WaitStatus {
	var status unix.WaitStatus
	for {
		reaped, err := unix.Wait4(pid, &status, unix.WNOHANG|unix.WALL, nil)
		if err == nil && reaped == pid {
			return status
		}
		if err != nil && !errors.Is(err, unix.EINTR) {
			// ECHILD here means something else collected the child;
			// nothing more to wait for.
			logger.Warn("wait for iteration child failed", "pid", pid, "error", err)
			return status
		}
		clk.Sleep(pollInterval)
		if clk.Now().Sub(start) > timeout {
			diag.Debugf("iteration timed out, killing pid %d", pid)
			_ = unix.Kill(-pid, unix.SIGKILL)
			_ = unix.Kill(pid, unix.SIGKILL)
			for {
				reaped, err := unix.Wait4(pid, &status, unix.WALL, nil)
				if err == nil && reaped == pid {
					return status
				}
				if err != nil && !errors.Is(err, unix.EINTR) {
					logger.Warn("wait after kill failed", "pid", pid, "error", err)
					return status
				}
			}
		}
	}
}

// transientError marks conditions outside the harness's control
// where relaunching is the right response.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func transientf(format string, args ...any) error {
	return &transientError{err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err calls for the retry exit rather
// than the failure exit.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
