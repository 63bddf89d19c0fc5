// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	filePrefix = "snapshot_v"
	fileSuffix = ".gob.gz"
)

// FileStore keeps one file per version in a directory:
// snapshot_v<version>.gob.gz. Writes go to a temporary file in the same
// directory and are renamed into place, so a crashed write never replaces
// a readable version.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, b *Bundle) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	data, meta, err := encode(b)
	if err != nil {
		return Metadata{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return Metadata{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return Metadata{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error takes precedence
		return Metadata{}, fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Metadata{}, fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path(b.Version)); err != nil {
		return Metadata{}, fmt.Errorf("publish snapshot: %w", err)
	}

	return meta, nil
}

// LoadLatest implements Store.
func (s *FileStore) LoadLatest(ctx context.Context) (*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, err := s.scan()
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNoSnapshot
	}
	return s.load(ctx, versions[len(versions)-1])
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, version int64) (*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx, version)
}

func (s *FileStore) load(ctx context.Context, version int64) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(version))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: version %d", ErrNoSnapshot, version)
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	b, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot v%d: %w", version, err)
	}
	return b, nil
}

// Versions implements Store. Unreadable files are skipped.
func (s *FileStore) Versions(ctx context.Context) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, err := s.scan()
	if err != nil {
		return nil, err
	}

	out := make([]Metadata, 0, len(versions))
	for _, v := range versions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(s.path(v))
		if err != nil {
			continue
		}
		sb, err := decodeEnvelope(f)
		_ = f.Close() //nolint:errcheck // read-only file
		if err != nil {
			continue
		}
		out = append(out, sb.Metadata)
	}
	return out, nil
}

// Prune implements Store.
func (s *FileStore) Prune(_ context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.scan()
	if err != nil {
		return 0, err
	}
	if len(versions) <= keep {
		return 0, nil
	}

	removed := 0
	for _, v := range versions[:len(versions)-keep] {
		if err := os.Remove(s.path(v)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove snapshot v%d: %w", v, err)
		}
		removed++
	}
	return removed, nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

// scan returns stored versions in ascending order.
func (s *FileStore) scan() ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}

	var versions []int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if v, ok := parseFilename(entry.Name()); ok {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

func (s *FileStore) path(version int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d%s", filePrefix, version, fileSuffix))
}

// parseFilename extracts the version from "snapshot_v12.gob.gz".
func parseFilename(name string) (int64, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
