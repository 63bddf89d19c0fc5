// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	prefixSnapshot = "snapshot/"
	prefixMeta     = "meta/"
	keyCurrent     = "snapshot/current"
)

// BadgerStore keeps bundles in a BadgerDB database. Each Save writes the
// bundle, its metadata, and the current-version pointer in one transaction.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a database at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func snapshotKey(version int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixSnapshot, version))
}

func metaKey(version int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixMeta, version))
}

// Save implements Store.
func (s *BadgerStore) Save(ctx context.Context, b *Bundle) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	data, meta, err := encode(b)
	if err != nil {
		return Metadata{}, err
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return Metadata{}, fmt.Errorf("marshal metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(snapshotKey(b.Version), data); err != nil {
			return err
		}
		if err := txn.Set(metaKey(b.Version), metaJSON); err != nil {
			return err
		}
		current, err := s.current(txn)
		if err != nil {
			return err
		}
		if b.Version >= current {
			return txn.Set([]byte(keyCurrent), []byte(strconv.FormatInt(b.Version, 10)))
		}
		return nil
	})
	if err != nil {
		return Metadata{}, fmt.Errorf("save snapshot v%d: %w", b.Version, err)
	}
	return meta, nil
}

// current returns the published version, or 0.
func (s *BadgerStore) current(txn *badger.Txn) (int64, error) {
	item, err := txn.Get([]byte(keyCurrent))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	var v int64
	err = item.Value(func(val []byte) error {
		var perr error
		v, perr = strconv.ParseInt(string(val), 10, 64)
		return perr
	})
	return v, err
}

// LoadLatest implements Store.
func (s *BadgerStore) LoadLatest(ctx context.Context) (*Bundle, error) {
	var b *Bundle
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := s.current(txn)
		if err != nil {
			return err
		}
		if v == 0 {
			return ErrNoSnapshot
		}
		b, err = s.get(ctx, txn, v)
		return err
	})
	return b, err
}

// Load implements Store.
func (s *BadgerStore) Load(ctx context.Context, version int64) (*Bundle, error) {
	var b *Bundle
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		b, err = s.get(ctx, txn, version)
		return err
	})
	return b, err
}

func (s *BadgerStore) get(ctx context.Context, txn *badger.Txn, version int64) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	item, err := txn.Get(snapshotKey(version))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: version %d", ErrNoSnapshot, version)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot v%d: %w", version, err)
	}

	var b *Bundle
	err = item.Value(func(val []byte) error {
		var derr error
		b, derr = decode(bytes.NewReader(val))
		return derr
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot v%d: %w", version, err)
	}
	return b, nil
}

// Versions implements Store.
func (s *BadgerStore) Versions(ctx context.Context) ([]Metadata, error) {
	var out []Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixMeta)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var meta Metadata
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			})
			if err != nil {
				continue
			}
			out = append(out, meta)
		}
		return nil
	})
	return out, err
}

// Prune implements Store.
func (s *BadgerStore) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	metas, err := s.Versions(ctx)
	if err != nil {
		return 0, err
	}
	if len(metas) <= keep {
		return 0, nil
	}

	stale := metas[:len(metas)-keep]
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, m := range stale {
			if err := txn.Delete(snapshotKey(m.Version)); err != nil {
				return err
			}
			if err := txn.Delete(metaKey(m.Version)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return len(stale), nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
