// Copyright 2025 The kvblob Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Command kvblob is an introspection and maintenance tool for kvblob
// stores.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/we1pingyu/kvblob"
)

var (
	dbDir        string
	maxOpenFiles int
	noSync       bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "kvblob [command] (flags)",
	Short: "kvblob store introspection/maintenance tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		putCmd,
		getCmd,
		probeCmd,
		deleteCmd,
		scanCmd,
		statCmd,
		sweepCmd,
		dumpCmd,
	)

	rootCmd.PersistentFlags().StringVarP(
		&dbDir, "db", "d", "", "store directory")
	rootCmd.PersistentFlags().IntVar(
		&maxOpenFiles, "max-open-files", 0, "soft limit on open index files (0 for the default)")
	rootCmd.PersistentFlags().BoolVar(
		&noSync, "no-sync", false, "skip the WAL sync on index writes")
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "print entry contents where applicable")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore() (*kvblob.Store, error) {
	return kvblob.Open(dbDir, &kvblob.Options{
		MaxOpenFiles: maxOpenFiles,
		NoSync:       noSync,
	})
}
