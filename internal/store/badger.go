// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage. Payload and metadata are stored under
// separate keys so metadata filtering never deserializes record bodies.
const (
	objectKeyPrefix = "obj:"
	metaKeyPrefix   = "meta:"
)

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// BadgerStore implements ObjectStore on an embedded BadgerDB. It is the
// bundled tier for single-instance deployments; the partition path becomes
// the Badger key, preserving prefix-scan compatibility with the external
// blob-store layout.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (or creates) a BadgerDB at the given path. The returned DB is
// shared with the alert record store; callers own the single Close.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	// Badger's own logger is noisy at INFO; pipeline logging covers writes.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store at %s: %w", path, err)
	}
	return db, nil
}

// NewBadgerStore creates an object store over an open BadgerDB.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Put persists the object payload and its metadata tags in one transaction.
func (s *BadgerStore) Put(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := obj.Key.String()

	meta, err := json.Marshal(obj.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata for %s: %w", path, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(objectKeyPrefix+path), obj.Payload); err != nil {
			return fmt.Errorf("set object: %w", err)
		}
		if err := txn.Set([]byte(metaKeyPrefix+path), meta); err != nil {
			return fmt.Errorf("set metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

// Get retrieves one object's payload and metadata by key.
func (s *BadgerStore) Get(ctx context.Context, key ObjectKey) ([]byte, map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	path := key.String()
	var payload []byte
	var metadata map[string]string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(objectKeyPrefix + path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrObjectNotFound
		}
		if err != nil {
			return fmt.Errorf("get object: %w", err)
		}
		payload, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copy object value: %w", err)
		}

		metaItem, err := txn.Get([]byte(metaKeyPrefix + path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // object without tags is still readable
		}
		if err != nil {
			return fmt.Errorf("get metadata: %w", err)
		}
		return metaItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &metadata)
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return payload, metadata, nil
}

// ListKeys returns object paths under the given prefix, oldest partition
// first. Used by operational tooling and tests; the hot path never lists.
func (s *BadgerStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		scanPrefix := []byte(objectKeyPrefix + prefix)
		for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(objectKeyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return keys, nil
}

// Close is a no-op: the underlying DB is shared and closed by its owner.
func (s *BadgerStore) Close() error {
	return nil
}
