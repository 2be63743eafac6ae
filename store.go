// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package kvblob

import (
	"bytes"
	"slices"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/we1pingyu/kvblob/blobfile"
	"github.com/we1pingyu/kvblob/internal/idalloc"
)

// Store is a persistent key-value store that packs batch-written entries
// into immutable blob containers, keeping only a small location pointer per
// key in its index. It is safe for concurrent use.
type Store struct {
	opts   *Options
	db     *pebble.DB
	codec  Codec
	alloc  *idalloc.Alloc
	logger Logger
	wopts  *pebble.WriteOptions
	closed atomic.Bool
	m      metrics
}

// Open opens a Store rooted at dirname, creating it if necessary. The
// index lives under dirname/index and, unless Options.DataDir overrides
// it, containers live under dirname/blobs.
func Open(dirname string, opts *Options) (*Store, error) {
	opts = opts.EnsureDefaults()

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = opts.FS.PathJoin(dirname, "blobs")
	}
	codec := opts.Codec
	if codec == nil {
		var err error
		codec, err = blobfile.NewCodec(opts.FS, dataDir, blobfile.Options{
			DisableCompression: opts.DisableCompression,
		})
		if err != nil {
			return nil, err
		}
	}

	db, err := pebble.Open(opts.FS.PathJoin(dirname, "index"), &pebble.Options{
		FS:           opts.FS,
		MaxOpenFiles: opts.MaxOpenFiles,
	})
	if err != nil {
		return nil, err
	}

	alloc := opts.IDAlloc
	if alloc == nil {
		alloc = idalloc.New(0)
	}
	s := &Store{
		opts:   opts,
		db:     db,
		codec:  codec,
		alloc:  alloc,
		logger: opts.Logger,
		wopts:  pebble.Sync,
	}
	if opts.NoSync {
		s.wopts = pebble.NoSync
	}

	// New container ids must never collide with ids referenced by pointers
	// committed in a previous run.
	if err := s.seedAllocator(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// seedAllocator advances the allocator past every container id referenced
// by the index. Inline values written through Put and BatchSet share the
// keyspace with pointers and are skipped.
func (s *Store) seedAllocator() error {
	return s.Scan(func(_, value []byte) error {
		if container, _, ok := SplitPointer(value); ok {
			if id, ok := ParseContainerName(container); ok {
				s.alloc.Seed(id)
			}
		}
		return nil
	})
}

// Close closes the store. Any subsequent operation returns ErrClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return ErrClosed
	}
	return s.db.Close()
}

// Put stores value under key, overwriting any previous value or pointer.
// Zero-length values are rejected: the store reports an empty index value
// as corruption on the read path, so one must never be written.
func (s *Store) Put(key, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(value) == 0 {
		return ErrEmptyValue
	}
	if err := s.db.Set(key, value, s.wopts); err != nil {
		return err
	}
	s.m.puts.Add(1)
	return nil
}

// Get returns the value stored under key. It returns ErrNotFound if the
// store does not contain the key; absence is an expected outcome, not an
// internal failure.
func (s *Store) Get(key []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	v, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			s.m.misses.Add(1)
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer func() { _ = closer.Close() }()
	if len(v) == 0 {
		return nil, CorruptionErrorf("kvblob: empty index value for key %q", key)
	}
	s.m.hits.Add(1)
	// The backing buffer is only valid until the closer is closed.
	return slices.Clone(v), nil
}

// Probe reports whether key is present without materializing its value
// body. Observably equivalent to a successful Get from the caller's
// perspective.
func (s *Store) Probe(key []byte) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return false, err
	}
	found := iter.SeekGE(key) && bytes.Equal(iter.Key(), key)
	if err := iter.Close(); err != nil {
		return false, err
	}
	s.m.probes.Add(1)
	return found, nil
}

// Delete removes key from the index. Deleting an absent key succeeds.
// Any container entry the key pointed at is not reclaimed until Sweep.
func (s *Store) Delete(key []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.db.Delete(key, s.wopts); err != nil {
		return err
	}
	s.m.deletes.Add(1)
	return nil
}

// MultiGet returns one slot per input key, in input order: the stored
// value for a hit, nil for a miss. The output length always equals the
// input length.
func (s *Store) MultiGet(keys [][]byte) ([][]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	out := make([][]byte, len(keys))
	for i, key := range keys {
		v, err := s.Get(key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Scan visits every key-value pair in the index in key order. The slices
// passed to visit are only valid for the duration of the call.
func (s *Store) Scan(visit func(key, value []byte) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		if err := visit(iter.Key(), iter.Value()); err != nil {
			_ = iter.Close()
			return err
		}
	}
	return iter.Close()
}
