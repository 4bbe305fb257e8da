// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type sampleCall struct {
	Op   uint64    `cbor:"op"`
	Args [9]uint64 `cbor:"args"`
}

func TestRoundtrip(t *testing.T) {
	original := sampleCall{Op: 0x40000001, Args: [9]uint64{0x0c, 1, 3}}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleCall
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	value := map[string]any{"zeta": 1, "alpha": 2, "mid": 3}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 16; i++ {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding not deterministic:\n%x\n%x", first, again)
		}
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	type wide struct {
		Op    uint64 `cbor:"op"`
		Extra string `cbor:"extra"`
	}
	type narrow struct {
		Op uint64 `cbor:"op"`
	}
	data, err := Marshal(wide{Op: 7, Extra: "future"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded narrow
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal with unknown field: %v", err)
	}
	if decoded.Op != 7 {
		t.Fatalf("Op = %d, want 7", decoded.Op)
	}
}
