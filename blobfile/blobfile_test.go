// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobfile

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, opts Options) (*Codec, vfs.FS) {
	fs := vfs.NewMem()
	c, err := NewCodec(fs, "blobs", opts)
	require.NoError(t, err)
	return c, fs
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c, _ := newTestCodec(t, Options{})

	entries := [][]byte{
		[]byte("tensor-0"),
		bytes.Repeat([]byte("kv"), 4096),
		{},
		[]byte("tensor-3"),
	}
	meta, err := c.Save("000001.blob", entries)
	require.NoError(t, err)
	require.Equal(t, "000001.blob", meta.Name)
	require.Equal(t, 4, meta.Entries)
	require.Greater(t, meta.Size, int64(0))

	got, err := c.Load("000001.blob", []int{0, 1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestLoadUnsortedRepeatedPositions(t *testing.T) {
	c, _ := newTestCodec(t, Options{})

	entries := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}
	_, err := c.Save("000007.blob", entries)
	require.NoError(t, err)

	got, err := c.Load("000007.blob", []int{3, 0, 3, 1, 1})
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("d"), []byte("a"), []byte("d"), []byte("b"), []byte("b")}, got)
}

func TestLoadPositionOutOfRange(t *testing.T) {
	c, _ := newTestCodec(t, Options{})

	_, err := c.Save("000002.blob", [][]byte{[]byte("only")})
	require.NoError(t, err)

	_, err = c.Load("000002.blob", []int{1})
	require.True(t, errors.Is(err, ErrCorruption))
	_, err = c.Load("000002.blob", []int{-1})
	require.True(t, errors.Is(err, ErrCorruption))
}

func TestSaveEmpty(t *testing.T) {
	c, _ := newTestCodec(t, Options{})
	_, err := c.Save("000003.blob", nil)
	require.Error(t, err)
}

func TestCompression(t *testing.T) {
	entries := [][]byte{bytes.Repeat([]byte("ab"), 1<<16)}

	compressed, _ := newTestCodec(t, Options{})
	cm, err := compressed.Save("c.blob", entries)
	require.NoError(t, err)

	raw, _ := newTestCodec(t, Options{DisableCompression: true})
	rm, err := raw.Save("r.blob", entries)
	require.NoError(t, err)

	require.Less(t, cm.Size, rm.Size)

	got, err := compressed.Load("c.blob", []int{0})
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestChecksumMismatch(t *testing.T) {
	c, fs := newTestCodec(t, Options{})

	_, err := c.Save("000004.blob", [][]byte{bytes.Repeat([]byte("x"), 128)})
	require.NoError(t, err)

	// Flip a payload byte by rewriting the file in place.
	path := fs.PathJoin("blobs", "000004.blob")
	f, err := fs.Open(path)
	require.NoError(t, err)
	fi, err := f.Stat()
	require.NoError(t, err)
	buf := make([]byte, fi.Size())
	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	buf[3] ^= 0xff

	w, err := fs.Create(path)
	require.NoError(t, err)
	_, err = w.Write(buf)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = c.Load("000004.blob", []int{0})
	require.True(t, errors.Is(err, ErrCorruption))
}

func TestBadMagic(t *testing.T) {
	c, fs := newTestCodec(t, Options{})

	f, err := fs.Create(fs.PathJoin("blobs", "junk.blob"))
	require.NoError(t, err)
	_, err = f.Write(bytes.Repeat([]byte("not a container"), 10))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = c.Load("junk.blob", []int{0})
	require.True(t, errors.Is(err, ErrCorruption))
}

func TestStat(t *testing.T) {
	c, _ := newTestCodec(t, Options{})

	entries := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	saved, err := c.Save("000005.blob", entries)
	require.NoError(t, err)

	meta, err := c.Stat("000005.blob")
	require.NoError(t, err)
	require.Equal(t, saved, meta)
}

func TestRemoveAndList(t *testing.T) {
	c, _ := newTestCodec(t, Options{})

	_, err := c.Save("000002.blob", [][]byte{[]byte("b")})
	require.NoError(t, err)
	_, err = c.Save("000001.blob", [][]byte{[]byte("a")})
	require.NoError(t, err)

	names, err := c.List()
	require.NoError(t, err)
	require.Equal(t, []string{"000001.blob", "000002.blob"}, names)

	require.NoError(t, c.Remove("000001.blob"))
	// Removing an absent container is not an error.
	require.NoError(t, c.Remove("000001.blob"))

	names, err = c.List()
	require.NoError(t, err)
	require.Equal(t, []string{"000002.blob"}, names)
}
