// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package main

import (
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"atrium.io/vault/pkg/journal"
)

func cmdReplay(cmd *cobra.Command, args []string) (err error) {
	log := zap.L().Named("replay")

	r, err := openJournal(replayCfg.Journal)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, r.Close()) }()

	events, err := journal.Decode(r)
	if err != nil {
		return err
	}
	if err := journal.Verify(events); err != nil {
		log.Error("journal failed verification", zap.Error(err))
		return err
	}

	snapshot, err := journal.Replay(events)
	if err != nil {
		return err
	}

	log.Info("journal replayed",
		zap.Int("events", len(events)),
		zap.Int("objects", len(snapshot.Objects)),
		zap.Int("shards", len(snapshot.Shards)),
		zap.Int("nodes_with_proofs", len(snapshot.Tallies)),
		zap.Int64("proofs_generated", snapshot.Proofs.Generated),
		zap.Int64("proofs_failed", snapshot.Proofs.Failed),
		zap.Stringer("snapshot", snapshot.Hash()))
	return nil
}
