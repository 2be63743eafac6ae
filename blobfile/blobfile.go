// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobfile

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/golang/snappy"
)

// ErrCorruption marks errors caused by a structurally invalid container:
// bad magic, unknown version, truncated index, checksum mismatch, or a
// position past the end of the container.
var ErrCorruption = errors.New("blobfile: corruption")

// FileFormat identifies the format of a container file.
type FileFormat uint8

// String implements the fmt.Stringer interface.
func (f FileFormat) String() string {
	switch f {
	case FileFormatV1:
		return "blobfileV1"
	default:
		return "unknown"
	}
}

const (
	// FileFormatV1 is the first version of the container file format.
	FileFormatV1 FileFormat = 1
)

const (
	indexRowLength = 17
	footerLength   = 25
	fileMagic      = "\xf0\x9f\x93\xa6kvbl" // 📦kvbl
)

// Payload kinds.
const (
	kindRaw    = 0
	kindSnappy = 1
)

// Meta describes a saved container.
type Meta struct {
	// Name is the container file name.
	Name string
	// Entries is the number of entries packed into the container.
	Entries int
	// Size is the total container file length in bytes.
	Size int64
}

// Options configure a Codec.
type Options struct {
	// DisableCompression stores every payload raw.
	DisableCompression bool
}

// A Codec saves and loads containers in a single directory of a vfs.FS.
// It is safe for concurrent use: containers are immutable and every Load
// opens its own file handle.
type Codec struct {
	fs   vfs.FS
	dir  string
	opts Options
}

// NewCodec returns a Codec rooted at dir, creating dir if necessary.
func NewCodec(fs vfs.FS, dir string, opts Options) (*Codec, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Codec{fs: fs, dir: dir, opts: opts}, nil
}

// Save writes all entries into a new container named name, entry i at
// position i. The file and its parent directory are synced before Save
// returns, so a successful Save is durable. On error any partial file is
// removed.
func (c *Codec) Save(name string, entries [][]byte) (Meta, error) {
	if len(entries) == 0 {
		return Meta{}, errors.Errorf("blobfile: refusing to save empty container %q", name)
	}
	path := c.fs.PathJoin(c.dir, name)
	f, err := c.fs.Create(path)
	if err != nil {
		return Meta{}, err
	}
	meta, err := c.writeContainer(f, name, entries)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = c.fs.Remove(path)
		return Meta{}, err
	}
	if err := c.syncDir(); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

func (c *Codec) writeContainer(f vfs.File, name string, entries [][]byte) (Meta, error) {
	index := make([]byte, 0, len(entries)*indexRowLength)
	var off uint64
	var scratch []byte
	for _, entry := range entries {
		payload := entry
		kind := byte(kindRaw)
		if !c.opts.DisableCompression {
			scratch = snappy.Encode(scratch[:0], entry)
			if len(scratch) < len(entry) {
				payload = scratch
				kind = kindSnappy
			}
		}
		if _, err := f.Write(payload); err != nil {
			return Meta{}, err
		}
		var row [indexRowLength]byte
		binary.LittleEndian.PutUint64(row[0:], off)
		binary.LittleEndian.PutUint32(row[8:], uint32(len(payload)))
		binary.LittleEndian.PutUint32(row[12:], uint32(xxhash.Sum64(payload)))
		row[16] = kind
		index = append(index, row[:]...)
		off += uint64(len(payload))
	}
	if _, err := f.Write(index); err != nil {
		return Meta{}, err
	}

	var footer [footerLength]byte
	binary.LittleEndian.PutUint64(footer[0:], off)
	binary.LittleEndian.PutUint32(footer[8:], uint32(xxhash.Sum64(index)))
	binary.LittleEndian.PutUint32(footer[12:], uint32(len(entries)))
	footer[16] = byte(FileFormatV1)
	copy(footer[17:], fileMagic)
	if _, err := f.Write(footer[:]); err != nil {
		return Meta{}, err
	}
	size := int64(off) + int64(len(index)) + footerLength
	return Meta{Name: name, Entries: len(entries), Size: size}, nil
}

func (c *Codec) syncDir() error {
	d, err := c.fs.OpenDir(c.dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return err
	}
	return d.Close()
}

// Load returns the entries stored at the requested positions, in request
// order. Positions need not be sorted and may repeat.
func (c *Codec) Load(name string, positions []int) ([][]byte, error) {
	f, err := c.fs.Open(c.fs.PathJoin(c.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	index, _, err := readIndex(f, name)
	if err != nil {
		return nil, err
	}
	count := len(index) / indexRowLength

	out := make([][]byte, len(positions))
	for i, pos := range positions {
		if pos < 0 || pos >= count {
			return nil, errors.Mark(
				errors.Newf("blobfile: container %q: position %d out of range [0, %d)", name, pos, count),
				ErrCorruption)
		}
		row := index[pos*indexRowLength:]
		off := binary.LittleEndian.Uint64(row[0:])
		length := binary.LittleEndian.Uint32(row[8:])
		sum := binary.LittleEndian.Uint32(row[12:])
		kind := row[16]

		payload := make([]byte, length)
		if _, err := f.ReadAt(payload, int64(off)); err != nil {
			return nil, err
		}
		if got := uint32(xxhash.Sum64(payload)); got != sum {
			return nil, errors.Mark(
				errors.Newf("blobfile: container %q: checksum mismatch at position %d (got %#x, want %#x)",
					name, pos, got, sum),
				ErrCorruption)
		}
		switch kind {
		case kindRaw:
			out[i] = payload
		case kindSnappy:
			entry, err := snappy.Decode(nil, payload)
			if err != nil {
				return nil, errors.Mark(
					errors.Wrapf(err, "blobfile: container %q: position %d", name, pos),
					ErrCorruption)
			}
			out[i] = entry
		default:
			return nil, errors.Mark(
				errors.Newf("blobfile: container %q: unknown payload kind %d at position %d", name, kind, pos),
				ErrCorruption)
		}
	}
	return out, nil
}

// Stat returns the Meta of an existing container without loading any
// entries.
func (c *Codec) Stat(name string) (Meta, error) {
	f, err := c.fs.Open(c.fs.PathJoin(c.dir, name))
	if err != nil {
		return Meta{}, err
	}
	defer f.Close()
	index, size, err := readIndex(f, name)
	if err != nil {
		return Meta{}, err
	}
	return Meta{Name: name, Entries: len(index) / indexRowLength, Size: size}, nil
}

// readIndex reads and verifies the footer and index of an open container.
func readIndex(f vfs.File, name string) (index []byte, size int64, err error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	size = stat.Size()
	if size < footerLength {
		return nil, 0, errors.Mark(
			errors.Newf("blobfile: container %q: file too small (%d bytes)", name, size),
			ErrCorruption)
	}

	var footer [footerLength]byte
	if _, err := f.ReadAt(footer[:], size-footerLength); err != nil {
		return nil, 0, err
	}
	if string(footer[17:]) != fileMagic {
		return nil, 0, errors.Mark(
			errors.Newf("blobfile: container %q: bad magic", name), ErrCorruption)
	}
	if format := FileFormat(footer[16]); format != FileFormatV1 {
		return nil, 0, errors.Mark(
			errors.Newf("blobfile: container %q: unknown format %d", name, format), ErrCorruption)
	}
	indexOff := binary.LittleEndian.Uint64(footer[0:])
	indexSum := binary.LittleEndian.Uint32(footer[8:])
	count := binary.LittleEndian.Uint32(footer[12:])
	if int64(indexOff)+int64(count)*indexRowLength+footerLength != size {
		return nil, 0, errors.Mark(
			errors.Newf("blobfile: container %q: invalid index geometry", name), ErrCorruption)
	}

	index = make([]byte, int(count)*indexRowLength)
	if _, err := f.ReadAt(index, int64(indexOff)); err != nil {
		return nil, 0, err
	}
	if got := uint32(xxhash.Sum64(index)); got != indexSum {
		return nil, 0, errors.Mark(
			errors.Newf("blobfile: container %q: index checksum mismatch", name), ErrCorruption)
	}
	return index, size, nil
}

// Remove deletes the named container. Removing an absent container is not
// an error.
func (c *Codec) Remove(name string) error {
	err := c.fs.Remove(c.fs.PathJoin(c.dir, name))
	if err != nil && oserror.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns the names of all container files in the codec directory,
// sorted.
func (c *Codec) List() ([]string, error) {
	names, err := c.fs.List(c.dir)
	if err != nil {
		if oserror.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names = slices.DeleteFunc(names, func(name string) bool {
		fi, err := c.fs.Stat(c.fs.PathJoin(c.dir, name))
		return err != nil || fi.IsDir()
	})
	slices.Sort(names)
	return names, nil
}
