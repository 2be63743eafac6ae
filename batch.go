// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package kvblob

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/we1pingyu/kvblob/blobfile"
	"golang.org/x/sync/errgroup"
)

// BatchPut stores all entries in one new immutable container and commits
// one location pointer per key in a single atomic index batch: either every
// key becomes visible with its new pointer or none does. Entry i is stored
// at position i of the container. keys and entries must have equal lengths;
// an empty batch is a no-op.
//
// The container is durably saved before the index commit, so a committed
// pointer never names incomplete data. The converse does not hold: if the
// commit fails, or the process crashes between save and commit, the
// container remains on storage with nothing referencing it. Sweep reclaims
// such orphans.
func (s *Store) BatchPut(keys, entries [][]byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(keys) != len(entries) {
		return errors.Wrapf(ErrLengthMismatch, "%d keys, %d entries", len(keys), len(entries))
	}
	if len(keys) == 0 {
		return nil
	}

	name := MakeContainerName(s.alloc.Next())
	if _, err := s.codec.Save(name, entries); err != nil {
		// No index mutation has happened: no pointer names the failed
		// container.
		return errors.Mark(errors.Wrapf(err, "kvblob: saving container %q", name), ErrCodec)
	}

	b := s.db.NewBatch()
	defer func() { _ = b.Close() }()
	for i, key := range keys {
		if err := b.Set(key, encodePointer(name, i), nil); err != nil {
			return err
		}
	}
	if err := s.db.Apply(b, s.wopts); err != nil {
		s.logger.Errorf("kvblob: index commit failed, container %s orphaned: %v", name, err)
		return err
	}

	s.m.batchPuts.Add(1)
	s.m.containersWritten.Add(1)
	s.m.entriesWritten.Add(int64(len(entries)))
	return nil
}

// BatchSet stores all values inline in the index through one atomic batch,
// bypassing the container path. It is intended for small values where the
// pointer indirection would cost more than it saves.
func (s *Store) BatchSet(keys, values [][]byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(keys) != len(values) {
		return errors.Wrapf(ErrLengthMismatch, "%d keys, %d values", len(keys), len(values))
	}
	b := s.db.NewBatch()
	defer func() { _ = b.Close() }()
	for i, key := range keys {
		if len(values[i]) == 0 {
			return ErrEmptyValue
		}
		if err := b.Set(key, values[i], nil); err != nil {
			return err
		}
	}
	if err := s.db.Apply(b, s.wopts); err != nil {
		return err
	}
	s.m.puts.Add(int64(len(keys)))
	return nil
}

// BatchGet resolves all keys and returns one slot per key, in input order:
// the entry for a hit, nil for a miss. The output length always equals the
// input length; duplicates and zero hits are fine. A pointer that does not
// parse, or a container that fails its checks, is corruption, never a miss.
//
// The index is consulted once per key; each distinct container is loaded
// with a single codec call, fanned out across at most
// Options.LoadParallelism concurrent loads.
func (s *Store) BatchGet(keys [][]byte) ([][]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	out := make([][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	// Resolve pointers and group the resolved positions by container,
	// remembering each hit's slot in the request.
	type group struct {
		slots     []int
		positions []int
	}
	groups := make(map[string]*group)
	var resolved int64
	for i, key := range keys {
		v, closer, err := s.db.Get(key)
		if err != nil {
			if errors.Is(err, pebble.ErrNotFound) {
				s.m.misses.Add(1)
				continue
			}
			return nil, err
		}
		container, pos, perr := parsePointer(v)
		_ = closer.Close()
		if perr != nil {
			return nil, errors.Wrapf(perr, "key %q", key)
		}
		g := groups[container]
		if g == nil {
			g = &group{}
			groups[container] = g
		}
		g.slots = append(g.slots, i)
		g.positions = append(g.positions, pos)
		resolved++
	}

	var eg errgroup.Group
	eg.SetLimit(s.opts.LoadParallelism)
	for name, g := range groups {
		eg.Go(func() error {
			// Slots are disjoint across groups, so writes to out need no
			// locking.
			entries, err := s.codec.Load(name, g.positions)
			if err != nil {
				err = errors.Wrapf(err, "kvblob: loading container %q", name)
				if errors.Is(err, blobfile.ErrCorruption) {
					return errors.Mark(err, ErrCorruption)
				}
				return errors.Mark(err, ErrCodec)
			}
			if len(entries) != len(g.positions) {
				return CorruptionErrorf("kvblob: container %q returned %d entries, want %d",
					name, len(entries), len(g.positions))
			}
			for j, slot := range g.slots {
				out[slot] = entries[j]
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	s.m.batchGets.Add(1)
	s.m.hits.Add(resolved)
	s.m.entriesRead.Add(resolved)
	return out, nil
}
