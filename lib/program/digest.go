// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package program

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte keyed BLAKE3 hash of a program's wire form.
// Corpus identity: two programs with equal digests are the same
// program, because the wire form is deterministic.
type Digest [32]byte

// digestDomainKey is the fixed BLAKE3 key for program digests. Domain
// separation keeps program hashes distinct from any other BLAKE3 use
// a corpus store may have. The value is the ASCII domain name,
// zero-padded; changing it invalidates every stored digest.
var digestDomainKey = [32]byte{
	'f', 'u', 'z', 'z', 'b', 'e', 'd', '.',
	'p', 'r', 'o', 'g', 'r', 'a', 'm',
}

// Digest computes the program's digest.
func (p *Program) Digest() (Digest, error) {
	data, err := p.Marshal()
	if err != nil {
		return Digest{}, fmt.Errorf("marshaling program for digest: %w", err)
	}
	return digestBytes(data), nil
}

func digestBytes(data []byte) Digest {
	hasher, err := blake3.NewKeyed(digestDomainKey[:])
	if err != nil {
		// The key is a fixed 32-byte constant; NewKeyed only fails
		// on wrong key length.
		panic("program: BLAKE3 keyed hasher init failed: " + err.Error())
	}
	hasher.Write(data)
	var d Digest
	hasher.Sum(d[:0])
	return d
}

// String returns the digest in lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, the form used in debug
// traces and log lines.
func (d Digest) Short() string {
	return d.String()[:12]
}
