// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package idalloc allocates process-wide unique container ids.
package idalloc

import "sync/atomic"

// Alloc hands out strictly increasing container ids. Next is a single
// atomic add, so concurrent callers never observe the same id. An Alloc is
// constructed explicitly and injected into the store, never a package-level
// global, so tests can reset and observe it.
//
// Ids do not survive a process restart; the store reseeds a fresh Alloc
// past the largest id still referenced by its index.
type Alloc struct {
	next atomic.Uint64
}

// New returns an allocator whose first allocated id is next.
func New(next uint64) *Alloc {
	a := &Alloc{}
	a.next.Store(next)
	return a
}

// Next returns the next unallocated id.
func (a *Alloc) Next() uint64 {
	return a.next.Add(1) - 1
}

// Peek returns the id the next call to Next will return, without
// allocating it.
func (a *Alloc) Peek() uint64 {
	return a.next.Load()
}

// Seed advances the allocator so that no future id is <= id. Smaller seeds
// are ignored, so Seed may be called with every id observed during an index
// scan in any order.
func (a *Alloc) Seed(id uint64) {
	for {
		cur := a.next.Load()
		if cur > id {
			return
		}
		if a.next.CompareAndSwap(cur, id+1) {
			return
		}
	}
}
