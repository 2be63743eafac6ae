// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package kvblob

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned by Get when the store does not contain the
// requested key. It is the same sentinel the underlying index returns, so
// errors.Is works on errors propagated from either layer.
var ErrNotFound = pebble.ErrNotFound

// ErrClosed is returned by any operation on a closed Store.
var ErrClosed = errors.New("kvblob: store closed")

// ErrLengthMismatch is returned by BatchPut and BatchSet when the keys and
// entries have different lengths. No mutation occurs.
var ErrLengthMismatch = errors.New("kvblob: keys and entries have different lengths")

// ErrEmptyValue is returned by Put and BatchSet for zero-length values.
// The read path reports an empty index value as corruption, so the write
// path refuses to create one.
var ErrEmptyValue = errors.New("kvblob: empty value")

// ErrCorruption signals that data read back from the index or a container
// failed a structural check: a pointer value that does not parse, an empty
// index value, a checksum mismatch, or a position past the end of a
// container. It is distinct from an ordinary miss.
var ErrCorruption = errors.New("kvblob: corruption")

// ErrCodec wraps a container save or load failure. On the write path the
// failure occurs before any index mutation, so no pointer ever names the
// failed container.
var ErrCodec = errors.New("kvblob: blob codec error")

// CorruptionErrorf formats an error and marks it as an ErrCorruption.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruption)
}

// IsCorruption reports whether the error indicates data corruption rather
// than an ordinary miss or an operational failure.
func IsCorruption(err error) bool {
	return errors.Is(err, ErrCorruption)
}
