// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package main

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/spf13/cobra"

	"atrium.io/vault/pkg/cfgstruct"
	"atrium.io/vault/pkg/process"
	"atrium.io/vault/pkg/vault"
)

var (
	rootCmd = &cobra.Command{
		Use:   "vault",
		Short: "Content addressed storage engine of the Atrium ledger platform",
	}
	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run a deterministic workload and export its journal",
		RunE:  cmdSimulate,
	}
	replayCmd = &cobra.Command{
		Use:   "replay",
		Short: "Rebuild state from a journal and print the snapshot",
		RunE:  cmdReplay,
	}
	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the events of a journal",
		RunE:  cmdInspect,
	}

	simulateCfg struct {
		Vault   vault.Config
		Nodes   int    `help:"number of storage nodes to register" default:"8"`
		Objects int    `help:"number of objects to store" default:"24"`
		Proofs  int    `help:"number of storage proof queries to issue" default:"48"`
		Seed    int64  `help:"seed of the deterministic workload" default:"1"`
		Out     string `help:"file receiving the journal, - for stdout" default:"journal.ndjson"`
	}
	replayCfg struct {
		Journal string `help:"journal file to replay, - for stdin" default:"journal.ndjson"`
	}
	inspectCfg struct {
		Journal string `help:"journal file to inspect, - for stdin" default:"journal.ndjson"`
	}
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(inspectCmd)
	cfgstruct.Bind(simulateCmd.Flags(), &simulateCfg)
	cfgstruct.Bind(replayCmd.Flags(), &replayCfg)
	cfgstruct.Bind(inspectCmd.Flags(), &inspectCfg)
}

func openJournal(path string) (io.ReadCloser, error) {
	if path == "-" {
		return ioutil.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func main() {
	process.Exec(rootCmd)
}
