// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package kvblob

import (
	"fmt"
	"strconv"
	"strings"
)

// A location pointer is the value stored in the index for every key written
// through BatchPut. It names the container holding the entry and the entry's
// 0-based position within it, serialized as "<container>|<position>".
// Container names never contain '|'; the split is on the first '|'.

// MakeContainerName returns the container file name for the given id.
// Container ids are strictly increasing within a process, so names sort in
// creation order.
func MakeContainerName(id uint64) string {
	return fmt.Sprintf("%06d.blob", id)
}

// ParseContainerName extracts the container id from a name produced by
// MakeContainerName. It returns false for any other file name.
func ParseContainerName(name string) (id uint64, ok bool) {
	s, ok := strings.CutSuffix(name, ".blob")
	if !ok || s == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SplitPointer decodes an index value as a location pointer, reporting
// ok=false when the value is not pointer-shaped. Pointers and inline
// values share the index keyspace; tooling and maintenance scans use
// SplitPointer to tell them apart without raising corruption.
func SplitPointer(v []byte) (container string, pos int, ok bool) {
	container, pos, err := parsePointer(v)
	return container, pos, err == nil
}

func encodePointer(container string, pos int) []byte {
	return []byte(container + "|" + strconv.Itoa(pos))
}

// parsePointer decodes an index value into its container name and position.
// Any value that does not parse is corruption, distinguishable from an
// ordinary miss: a miss never reaches this function.
func parsePointer(v []byte) (container string, pos int, err error) {
	if len(v) == 0 {
		return "", 0, CorruptionErrorf("kvblob: empty index value")
	}
	s := string(v)
	i := strings.IndexByte(s, '|')
	if i <= 0 {
		return "", 0, CorruptionErrorf("kvblob: malformed location pointer %q", s)
	}
	pos, err = strconv.Atoi(s[i+1:])
	if err != nil || pos < 0 {
		return "", 0, CorruptionErrorf("kvblob: malformed location pointer %q", s)
	}
	return s[:i], pos, nil
}
