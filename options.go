// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package kvblob

import (
	"fmt"
	"log"
	"os"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/we1pingyu/kvblob/blobfile"
	"github.com/we1pingyu/kvblob/internal/idalloc"
)

// Codec persists an ordered list of entries into one immutable container and
// loads entries back by position. The production implementation is
// blobfile.Codec; tests substitute deterministic in-memory fakes.
type Codec interface {
	// Save writes all entries into a new container with the given name,
	// entry i at position i. The container is durable when Save returns and
	// is never modified afterward.
	Save(name string, entries [][]byte) (blobfile.Meta, error)

	// Load returns the entries at the requested positions, in request
	// order. Positions need not be sorted and may repeat.
	Load(name string, positions []int) ([][]byte, error)

	// Remove deletes the named container.
	Remove(name string) error

	// List returns the names of all containers, in no particular order.
	List() ([]string, error)
}

// Logger defines an interface for writing log messages.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// DefaultLogger logs to the Go stdlib logs.
type DefaultLogger struct{}

// Infof implements the Logger.Infof interface.
func (DefaultLogger) Infof(format string, args ...interface{}) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
}

// Errorf implements the Logger.Errorf interface.
func (DefaultLogger) Errorf(format string, args ...interface{}) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
}

// Fatalf implements the Logger.Fatalf interface.
func (DefaultLogger) Fatalf(format string, args ...interface{}) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
	os.Exit(1)
}

// Options holds the optional parameters for a Store. Options are applied
// before Open; the zero value is a usable default configuration backed by
// the host filesystem.
type Options struct {
	// FS provides the interface for filesystem operations, used for both
	// the index and the container files.
	//
	// The default value uses the underlying operating system's file system.
	FS vfs.FS

	// DataDir is the directory holding container files. If empty, the
	// "blobs" subdirectory of the store directory is used.
	DataDir string

	// MaxOpenFiles is a soft limit on the number of open files used by the
	// underlying index.
	//
	// The default value is 1000.
	MaxOpenFiles int

	// Codec packs and unpacks batched entries. If nil, a blobfile.Codec
	// over FS and DataDir is used.
	Codec Codec

	// IDAlloc produces container ids. If nil, a fresh allocator is created
	// and seeded past the largest container id referenced by the index.
	IDAlloc *idalloc.Alloc

	// Logger used to write log messages.
	//
	// The default logger uses the Go standard library log package.
	Logger Logger

	// DisableCompression disables per-entry snappy compression of container
	// payloads.
	DisableCompression bool

	// LoadParallelism bounds the number of containers loaded concurrently
	// by a single BatchGet.
	//
	// The default value is 4.
	LoadParallelism int

	// NoSync causes index writes to skip the WAL sync. The container save
	// performed by BatchPut is always synced regardless of this setting, so
	// a committed pointer never names a non-durable container.
	NoSync bool
}

// EnsureDefaults ensures that the default values for all options are set if
// a valid value was not already specified, returning the updated options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.MaxOpenFiles == 0 {
		o.MaxOpenFiles = 1000
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger{}
	}
	if o.LoadParallelism <= 0 {
		o.LoadParallelism = 4
	}
	return o
}
