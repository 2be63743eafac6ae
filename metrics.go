// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package kvblob

import (
	"fmt"
	"sync/atomic"
)

type metrics struct {
	puts    atomic.Int64
	hits    atomic.Int64
	misses  atomic.Int64
	probes  atomic.Int64
	deletes atomic.Int64

	batchPuts         atomic.Int64
	batchGets         atomic.Int64
	entriesWritten    atomic.Int64
	entriesRead       atomic.Int64
	containersWritten atomic.Int64
	containersSwept   atomic.Int64
}

// Metrics is a snapshot of the store's operation counters.
type Metrics struct {
	// Puts, Hits, Misses, Probes and Deletes count point operations.
	Puts    int64
	Hits    int64
	Misses  int64
	Probes  int64
	Deletes int64

	// BatchPuts and BatchGets count batch operations; EntriesWritten and
	// EntriesRead count the entries they carried.
	BatchPuts      int64
	BatchGets      int64
	EntriesWritten int64
	EntriesRead    int64

	// ContainersWritten counts containers created by BatchPut;
	// ContainersSwept counts orphans removed by Sweep.
	ContainersWritten int64
	ContainersSwept   int64
}

// Metrics returns a snapshot of the store's operation counters.
func (s *Store) Metrics() Metrics {
	return Metrics{
		Puts:              s.m.puts.Load(),
		Hits:              s.m.hits.Load(),
		Misses:            s.m.misses.Load(),
		Probes:            s.m.probes.Load(),
		Deletes:           s.m.deletes.Load(),
		BatchPuts:         s.m.batchPuts.Load(),
		BatchGets:         s.m.batchGets.Load(),
		EntriesWritten:    s.m.entriesWritten.Load(),
		EntriesRead:       s.m.entriesRead.Load(),
		ContainersWritten: s.m.containersWritten.Load(),
		ContainersSwept:   s.m.containersSwept.Load(),
	}
}

// String implements the fmt.Stringer interface.
func (m Metrics) String() string {
	return fmt.Sprintf(
		"puts: %d (hits: %d, misses: %d, probes: %d, deletes: %d), "+
			"batch puts: %d (%d entries, %d containers), batch gets: %d (%d entries), swept: %d",
		m.Puts, m.Hits, m.Misses, m.Probes, m.Deletes,
		m.BatchPuts, m.EntriesWritten, m.ContainersWritten,
		m.BatchGets, m.EntriesRead, m.ContainersSwept)
}
