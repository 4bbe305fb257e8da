// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts monotonic time for the iteration driver.
// Production code injects Real(); tests inject Fake() and advance it
// explicitly, so timeout logic is exercised without real five-second
// waits.
package clock
