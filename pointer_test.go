// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package kvblob

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointerRoundTrip(t *testing.T) {
	v := encodePointer("000007.blob", 42)
	require.Equal(t, []byte("000007.blob|42"), v)

	container, pos, err := parsePointer(v)
	require.NoError(t, err)
	require.Equal(t, "000007.blob", container)
	require.Equal(t, 42, pos)
}

func TestParsePointerSplitsOnFirstPipe(t *testing.T) {
	// The position segment is everything after the first '|'; a second
	// pipe makes it unparseable.
	_, _, err := parsePointer([]byte("a|b|3"))
	require.True(t, IsCorruption(err))
}

func TestParsePointerCorruption(t *testing.T) {
	for _, v := range []string{
		"",           // empty value
		"no-pipe",    // inline value reached the pointer path
		"|3",         // empty container name
		"f.blob|",    // missing position
		"f.blob|abc", // non-numeric position
		"f.blob|-1",  // negative position
		"f.blob|1.5", // fractional position
		"f.blob| 1",  // leading space in the position
	} {
		_, _, err := parsePointer([]byte(v))
		require.True(t, IsCorruption(err), "value %q", v)
	}
}
