// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads harness configuration.
//
// Configuration comes from a single file named by the FUZZBED_CONFIG
// environment variable or a --config flag. There is no search path
// and no automatic discovery: a harness run must be reproducible
// from its config file alone, with no hidden overrides.
//
// Files are YAML; files ending in .json or .jsonc are accepted too,
// with comments and trailing commas stripped before parsing. The
// FUZZBED_DEBUG and FUZZBED_SANDBOX environment variables override
// their config fields for quick experiments.
package config
