// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock provides the time operations the harness uses. Code that
// measures deadlines or sleeps takes a Clock parameter instead of
// calling the time package directly.
type Clock interface {
	// Now returns the current time. The real implementation is
	// backed by the monotonic clock, so differences are immune to
	// wall-clock steps.
	Now() time.Time

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}
