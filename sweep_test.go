// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package kvblob

import (
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"
	"github.com/we1pingyu/kvblob/internal/idalloc"
)

func TestSweepNothingToDo(t *testing.T) {
	s := newTestStore(t, nil)

	require.NoError(t, s.BatchPut([][]byte{[]byte("a")}, [][]byte{[]byte("T1")}))

	res, err := s.Sweep()
	require.NoError(t, err)
	require.Equal(t, 1, res.Examined)
	require.Empty(t, res.Removed)
}

func TestSweepRemovesUnreferenced(t *testing.T) {
	s := newTestStore(t, nil)

	// Batch 1 stays referenced. Batch 2 is fully deleted. Batch 3 is
	// fully overwritten by batch 4.
	require.NoError(t, s.BatchPut(
		[][]byte{[]byte("a"), []byte("b")},
		[][]byte{[]byte("T1"), []byte("T2")}))
	require.NoError(t, s.BatchPut([][]byte{[]byte("gone")}, [][]byte{[]byte("T3")}))
	require.NoError(t, s.BatchPut([][]byte{[]byte("c")}, [][]byte{[]byte("old")}))
	require.NoError(t, s.BatchPut([][]byte{[]byte("c")}, [][]byte{[]byte("new")}))
	require.NoError(t, s.Delete([]byte("gone")))

	res, err := s.Sweep()
	require.NoError(t, err)
	require.Equal(t, 4, res.Examined)
	require.Equal(t, []string{MakeContainerName(2), MakeContainerName(3)}, res.Removed)
	require.Equal(t, int64(2), s.Metrics().ContainersSwept)

	// Surviving keys still resolve.
	got, err := s.BatchGet([][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("gone")})
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("T1"), []byte("T2"), []byte("new"), nil}, got)

	// A second sweep finds nothing.
	res, err = s.Sweep()
	require.NoError(t, err)
	require.Empty(t, res.Removed)
}

func TestSweepPartiallyReferencedContainerSurvives(t *testing.T) {
	s := newTestStore(t, nil)

	require.NoError(t, s.BatchPut(
		[][]byte{[]byte("a"), []byte("b"), []byte("c")},
		[][]byte{[]byte("T1"), []byte("T2"), []byte("T3")}))
	require.NoError(t, s.Delete([]byte("a")))
	require.NoError(t, s.Delete([]byte("c")))

	res, err := s.Sweep()
	require.NoError(t, err)
	require.Empty(t, res.Removed)

	got, err := s.BatchGet([][]byte{[]byte("b")})
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("T2")}, got)
}

func TestSweepCrashOrphan(t *testing.T) {
	// Simulate the documented inconsistency window: a container saved
	// durably whose index commit never happened.
	fs := vfs.NewMem()
	alloc := idalloc.New(1)
	s := newTestStore(t, &Options{FS: fs, IDAlloc: alloc})

	require.NoError(t, s.BatchPut([][]byte{[]byte("a")}, [][]byte{[]byte("T1")}))

	// Save a container the way BatchPut does, but skip the index commit.
	orphan := MakeContainerName(alloc.Next())
	_, err := s.codec.Save(orphan, [][]byte{[]byte("lost")})
	require.NoError(t, err)

	res, err := s.Sweep()
	require.NoError(t, err)
	require.Equal(t, []string{orphan}, res.Removed)

	got, err := s.BatchGet([][]byte{[]byte("a")})
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("T1")}, got)
}

func TestSweepIgnoresForeignFiles(t *testing.T) {
	fs := vfs.NewMem()
	s := newTestStore(t, &Options{FS: fs})

	// A stray file in the container directory that we did not create.
	f, err := fs.Create(fs.PathJoin("db", "blobs", "README.txt"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := s.Sweep()
	require.NoError(t, err)
	require.Empty(t, res.Removed)
	require.Zero(t, res.Examined)

	_, err = fs.Stat(fs.PathJoin("db", "blobs", "README.txt"))
	require.NoError(t, err)
}

func TestSweepInlineValuesAreNotPointers(t *testing.T) {
	s := newTestStore(t, nil)

	// An inline value that happens to look nothing like a pointer must not
	// break the sweep's index scan.
	require.NoError(t, s.Put([]byte("inline"), []byte("just bytes")))
	require.NoError(t, s.BatchPut([][]byte{[]byte("a")}, [][]byte{[]byte("T1")}))

	res, err := s.Sweep()
	require.NoError(t, err)
	require.Empty(t, res.Removed)
}
