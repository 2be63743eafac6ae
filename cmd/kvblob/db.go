// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/we1pingyu/kvblob"
)

var putCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "store an inline value under a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		return s.Put([]byte(args[0]), []byte(args[1]))
	},
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "print the entry stored under a key",
	Long: `Print the entry stored under a key.

Keys written through the batch path are resolved through their container;
keys written with put are returned directly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		out, err := s.BatchGet([][]byte{[]byte(args[0])})
		if errors.Is(err, kvblob.ErrCorruption) {
			// Not a pointer: fall back to the inline value.
			v, gerr := s.Get([]byte(args[0]))
			if gerr != nil {
				return gerr
			}
			_, werr := os.Stdout.Write(v)
			return werr
		}
		if err != nil {
			return err
		}
		if out[0] == nil {
			return errors.Newf("key %q not found", args[0])
		}
		_, err = os.Stdout.Write(out[0])
		return err
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <key>",
	Short: "report whether a key is present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		ok, err := s.Probe([]byte(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(ok)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "delete a key from the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		return s.Delete([]byte(args[0]))
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "list every key and its raw index value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		return s.Scan(func(key, value []byte) error {
			fmt.Printf("%s -> %s\n", key, value)
			return nil
		})
	},
}
