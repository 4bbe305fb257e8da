// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package program

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression applied to a corpus
// file's payload. Stored as the file's first byte; the values are
// format constants.
type CompressionTag uint8

const (
	// CompressionNone stores the wire form as-is. Right for tiny
	// programs where a frame header costs more than it saves.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 uses LZ4 frame compression. Fast choice for
	// corpus directories that are read far more often than written.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd uses zstd at the default level. Better ratio
	// for large programs and archived corpora.
	CompressionZstd CompressionTag = 2
)

// String returns the tag's name.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// WriteFile stores a program as a corpus file: the compression tag
// byte followed by the (possibly compressed) wire form.
func WriteFile(path string, p *Program, tag CompressionTag) error {
	wire, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling program: %w", err)
	}
	payload, err := compress(wire, tag)
	if err != nil {
		return err
	}
	data := append([]byte{byte(tag)}, payload...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing corpus file: %w", err)
	}
	return nil
}

// ReadFile loads a corpus file written by WriteFile.
func ReadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("corpus file %s: empty", path)
	}
	wire, err := decompress(data[1:], CompressionTag(data[0]))
	if err != nil {
		return nil, fmt.Errorf("corpus file %s: %w", path, err)
	}
	return Unmarshal(wire)
}

func compress(data []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		w, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd init: %w", err)
		}
		defer w.Close()
		return w.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("unsupported compression tag %d", uint8(tag))
	}
}

func decompress(payload []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return payload, nil
	case CompressionLZ4:
		r := lz4.NewReader(bytes.NewReader(payload))
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return data, nil
	case CompressionZstd:
		r, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd init: %w", err)
		}
		defer r.Close()
		data, err := r.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported compression tag %d", uint8(tag))
	}
}
