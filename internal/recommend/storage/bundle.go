// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package storage persists versioned recommendation snapshots.
//
// A Bundle is the unit that is always written and read together: the
// interaction matrix, the user and item identifier maps derived from it,
// and the collaborative model fit on it. Mixing parts from different
// builds would silently misalign rows and factors, so no store exposes
// them separately.
//
// # Storage Format
//
// Bundles are gob-encoded, checksummed with SHA-256, gzip-compressed and
// wrapped together with their Metadata. Decoding verifies the checksum.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/cadence/internal/interactions"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
)

var (
	// ErrNoSnapshot is returned when a store holds no bundle (or not the
	// requested version).
	ErrNoSnapshot = errors.New("no snapshot stored")

	// ErrChecksum is returned when stored bytes do not match their checksum.
	ErrChecksum = errors.New("snapshot checksum mismatch")

	// ErrInvalidBundle is returned by Save for a bundle that cannot be
	// persisted.
	ErrInvalidBundle = errors.New("invalid snapshot bundle")
)

// Bundle is one consistent build: matrix, identifier maps, and the model
// fit on that matrix. Model is nil when the matrix is empty.
type Bundle struct {
	Version   int64
	CreatedAt time.Time
	Matrix    *interactions.Matrix
	Users     *interactions.IDMap
	Items     *interactions.IDMap
	Model     *algorithms.ALSModel
}

// Metadata describes a stored bundle without decoding it.
type Metadata struct {
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
	SizeBytes int64     `json:"size_bytes"`
	Users     int       `json:"users"`
	Items     int       `json:"items"`
	NNZ       int       `json:"nnz"`
	Factors   int       `json:"factors"`
}

// Store persists bundles by version. Implementations are safe for
// concurrent use.
type Store interface {
	// Save writes b under b.Version. The previous latest version stays
	// readable until Save returns successfully.
	Save(ctx context.Context, b *Bundle) (Metadata, error)

	// LoadLatest returns the highest stored version.
	LoadLatest(ctx context.Context) (*Bundle, error)

	// Load returns a specific version.
	Load(ctx context.Context, version int64) (*Bundle, error)

	// Versions lists stored bundles, oldest first.
	Versions(ctx context.Context) ([]Metadata, error)

	// Prune deletes all but the newest keep versions and reports how many
	// were removed. keep < 1 is treated as 1.
	Prune(ctx context.Context, keep int) (int, error)

	Close() error
}

// storedBundle is the on-disk envelope.
type storedBundle struct {
	Metadata       Metadata
	CompressedData []byte
}

func validate(b *Bundle) error {
	switch {
	case b == nil:
		return fmt.Errorf("%w: nil", ErrInvalidBundle)
	case b.Version <= 0:
		return fmt.Errorf("%w: version must be positive, got %d", ErrInvalidBundle, b.Version)
	case b.Matrix == nil || b.Users == nil || b.Items == nil:
		return fmt.Errorf("%w: matrix and identifier maps are required", ErrInvalidBundle)
	case b.Matrix.Rows != b.Users.Len() || b.Matrix.Cols != b.Items.Len():
		return fmt.Errorf("%w: matrix %dx%d does not match maps %dx%d",
			ErrInvalidBundle, b.Matrix.Rows, b.Matrix.Cols, b.Users.Len(), b.Items.Len())
	case b.Model != nil && (b.Model.Users() != b.Matrix.Rows || b.Model.Items() != b.Matrix.Cols):
		return fmt.Errorf("%w: model was not fit on this matrix", ErrInvalidBundle)
	}
	return nil
}

// metadataFor fills everything except checksum and size.
func metadataFor(b *Bundle) Metadata {
	meta := Metadata{
		Version:   b.Version,
		CreatedAt: b.CreatedAt,
		Users:     b.Matrix.Rows,
		Items:     b.Matrix.Cols,
		NNZ:       b.Matrix.NNZ(),
	}
	if b.Model != nil {
		meta.Factors = b.Model.Factors
	}
	return meta
}

// encode serializes b into the envelope format.
func encode(b *Bundle) ([]byte, Metadata, error) {
	if err := validate(b); err != nil {
		return nil, Metadata{}, err
	}
	meta := metadataFor(b)

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(b); err != nil {
		return nil, Metadata{}, fmt.Errorf("encode bundle: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, Metadata{}, fmt.Errorf("compress bundle: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, Metadata{}, fmt.Errorf("finalize compression: %w", err)
	}
	meta.SizeBytes = int64(compressed.Len())

	var out bytes.Buffer
	sb := storedBundle{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(&out).Encode(sb); err != nil {
		return nil, Metadata{}, fmt.Errorf("write envelope: %w", err)
	}
	return out.Bytes(), meta, nil
}

// decodeEnvelope reads only the envelope.
func decodeEnvelope(r io.Reader) (storedBundle, error) {
	var sb storedBundle
	if err := gob.NewDecoder(r).Decode(&sb); err != nil {
		return sb, fmt.Errorf("read envelope: %w", err)
	}
	return sb, nil
}

// decode reverses encode and verifies the checksum.
func decode(r io.Reader) (*Bundle, error) {
	sb, err := decodeEnvelope(r)
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sb.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress bundle: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close after full read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != sb.Metadata.Checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksum, sb.Metadata.Checksum, got)
	}

	var b Bundle
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Matrix == nil {
		b.Matrix = interactions.NewMatrix(0, 0, nil)
	}
	if b.Users == nil {
		b.Users = interactions.NewIDMap()
	}
	if b.Items == nil {
		b.Items = interactions.NewIDMap()
	}
	return &b, nil
}
