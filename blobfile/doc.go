// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package blobfile implements the container file format used to pack many
// cache entries into one immutable file.
//
// # Container file format
//
// A container consists of a sequence of payload sections holding the
// entries in position order, followed by an index describing the location
// of every payload, followed by a fixed-size footer locating the index.
// A container is written by a single Save call and never modified.
//
// Each index row is 17 bytes:
//
//	offset   (8 bytes)  byte offset of the payload within the file
//	length   (4 bytes)  physical (possibly compressed) payload length
//	checksum (4 bytes)  xxhash64 of the physical payload, truncated
//	kind     (1 byte)   0 = raw, 1 = snappy
//
// The footer is 25 bytes:
//
//	index offset   (8 bytes)
//	index checksum (4 bytes)  xxhash64 of the index rows, truncated
//	entry count    (4 bytes)
//	version        (1 byte)
//	magic          (8 bytes)
//
// A reader stats the file, reads the footer, verifies the magic, version
// and index checksum, and then serves any sequence of positions with one
// ReadAt per payload. Positions need not be sorted and may repeat; out of
// range positions and checksum mismatches are corruption.
//
// Entries are compressed individually with snappy unless compression does
// not shrink the entry, in which case the raw bytes are stored.
//
//	+-----------------------------------------+
//	| payload 0                               |
//	| payload 1                               |
//	| ...                                     |
//	| payload N-1                             |
//	+-----------------------------------------+
//	| index: N rows x 17 bytes                |
//	+-----------------------------------------+
//	| footer (25 bytes)                       |
//	+-----------------------------------------+
package blobfile
