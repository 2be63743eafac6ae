// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package kvblob

import "slices"

// SweepResult describes the outcome of a Sweep.
type SweepResult struct {
	// Examined is the number of container files considered.
	Examined int
	// Removed lists the containers deleted, sorted by name.
	Removed []string
}

// Sweep removes every container that no index pointer references.
// Containers become unreferenced when all keys pointing into them are
// overwritten or deleted, or when a crash separates a container save from
// its index commit. Neither overwrite nor delete reclaims space on its
// own; Sweep is the only reclamation mechanism.
//
// Sweep must not run concurrently with BatchPut: a container that has been
// saved but whose pointers are not yet committed is indistinguishable from
// an orphan. Concurrent readers and point operations are safe.
func (s *Store) Sweep() (SweepResult, error) {
	if s.closed.Load() {
		return SweepResult{}, ErrClosed
	}

	referenced := make(map[string]bool)
	err := s.Scan(func(_, value []byte) error {
		if container, _, ok := SplitPointer(value); ok {
			referenced[container] = true
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	names, err := s.codec.List()
	if err != nil {
		return SweepResult{}, err
	}

	var res SweepResult
	for _, name := range names {
		// Leave files we did not create alone.
		if _, ok := ParseContainerName(name); !ok {
			continue
		}
		res.Examined++
		if referenced[name] {
			continue
		}
		if err := s.codec.Remove(name); err != nil {
			return res, err
		}
		res.Removed = append(res.Removed, name)
	}
	slices.Sort(res.Removed)
	s.m.containersSwept.Add(int64(len(res.Removed)))
	if len(res.Removed) > 0 {
		s.logger.Infof("kvblob: swept %d orphaned containers", len(res.Removed))
	}
	return res, nil
}
