// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"

	"atrium.io/vault/pkg/fixed"
	"atrium.io/vault/pkg/journal"
)

func cmdInspect(cmd *cobra.Command, args []string) (err error) {
	r, err := openJournal(inspectCfg.Journal)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, r.Close()) }()

	events, err := journal.Decode(r)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("journal is empty")
		return nil
	}

	counts := map[journal.Type]int{}
	objects := map[string]bool{}
	nodes := map[string]bool{}
	var feeTotal fixed.Value
	firstTick, lastTick := events[0].Tick, events[0].Tick

	for _, event := range events {
		counts[event.Type]++
		if event.Type == journal.TypeStore {
			objects[event.ObjectID] = true
			feeTotal, err = feeTotal.Add(event.AtrCost)
			if err != nil {
				return err
			}
		}
		for _, set := range event.ReplicaSets {
			for _, node := range set {
				nodes[node.String()] = true
			}
		}
		if event.Tick < firstTick {
			firstTick = event.Tick
		}
		if event.Tick > lastTick {
			lastTick = event.Tick
		}
	}

	fmt.Printf("events: %d\n", len(events))
	fmt.Printf("  STORE: %d\n", counts[journal.TypeStore])
	fmt.Printf("  PROOF_GENERATED: %d\n", counts[journal.TypeProofGenerated])
	fmt.Printf("  PROOF_FAILED: %d\n", counts[journal.TypeProofFailed])
	fmt.Printf("objects: %d\n", len(objects))
	fmt.Printf("nodes in replica sets: %d\n", len(nodes))
	fmt.Printf("fees: %s ATR\n", feeTotal)
	fmt.Printf("ticks: %d..%d\n", firstTick, lastTick)
	return nil
}
