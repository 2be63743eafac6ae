// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/spf13/cobra"
	"github.com/we1pingyu/kvblob"
	"github.com/we1pingyu/kvblob/blobfile"
)

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "print index statistics and the container listing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		var keys, pointers int
		referenced := make(map[string]bool)
		err = s.Scan(func(_, value []byte) error {
			keys++
			if container, _, ok := kvblob.SplitPointer(value); ok {
				pointers++
				referenced[container] = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("keys: %d (%d pointers, %d inline)\n", keys, pointers, keys-pointers)

		codec, err := containerCodec()
		if err != nil {
			return err
		}
		names, err := codec.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			meta, err := codec.Stat(name)
			if err != nil {
				fmt.Printf("%s: %v\n", name, err)
				continue
			}
			state := "orphaned"
			if referenced[name] {
				state = "referenced"
			}
			fmt.Printf("%s: %d entries, %d bytes, %s\n", name, meta.Entries, meta.Size, state)
		}
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "remove containers no index pointer references",
	Long: `Remove containers no index pointer references.

Orphans accumulate when keys are overwritten or deleted and when a crash
separates a container save from its index commit. Do not run a sweep while
another process is writing to the store.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		res, err := s.Sweep()
		if err != nil {
			return err
		}
		fmt.Printf("examined %d containers, removed %d\n", res.Examined, len(res.Removed))
		for _, name := range res.Removed {
			fmt.Println(name)
		}
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <container>",
	Short: "decode a container file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		codec, err := containerCodec()
		if err != nil {
			return err
		}
		meta, err := codec.Stat(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d entries, %d bytes\n", meta.Name, meta.Entries, meta.Size)

		positions := make([]int, meta.Entries)
		for i := range positions {
			positions[i] = i
		}
		entries, err := codec.Load(args[0], positions)
		if err != nil {
			return err
		}
		for i, entry := range entries {
			if verbose {
				fmt.Printf("%6d: %q\n", i, entry)
			} else {
				fmt.Printf("%6d: %d bytes\n", i, len(entry))
			}
		}
		return nil
	},
}

func containerCodec() (*blobfile.Codec, error) {
	fs := vfs.Default
	return blobfile.NewCodec(fs, fs.PathJoin(dbDir, "blobs"), blobfile.Options{})
}
