// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package kvblob provides a persistent store for large, batch-shaped cache
// payloads (e.g. inference KV-cache tensors). Payloads written together are
// packed into a single immutable blob container file, and a small location
// pointer per key is recorded in a persistent key-value index.
//
// # Architecture
//
// A Store composes three collaborators:
//
//   - a location index: a pebble database mapping each key to the serialized
//     pointer "<container>|<position>",
//   - a blob codec: packs an ordered list of entries into one immutable
//     container file and loads entries back by position (package blobfile),
//   - a container ID allocator: a process-wide atomic counter producing
//     strictly increasing container ids (package internal/idalloc).
//
// BatchPut allocates a container id, saves all entries into that container
// (entry i at position i), then commits every key's pointer in one atomic
// index batch. The container is durably synced before any pointer is
// committed, so the index never references incomplete data. The converse is
// not guaranteed: a crash between the container save and the index commit
// leaves a durable container that nothing references. That window is part of
// the design; Store.Sweep reclaims such orphans.
//
// BatchGet resolves all keys with one pass over the index, groups the
// resolved positions by container, performs one codec load per distinct
// container, and scatters the loaded entries back into the request order.
// Missing keys yield nil slots, never errors.
//
// Put, Get, Probe, Delete and MultiGet are direct pass-throughs to the
// index for callers that want plain key-value behavior.
//
// Containers are immutable: they are written by a single save and never
// modified. Overwriting or deleting a key strands the entry in its
// container; space is reclaimed only by an explicit Sweep.
package kvblob
