// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"atrium.io/vault/internal/memory"
	"atrium.io/vault/pkg/accounting"
	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/journal"
	"atrium.io/vault/pkg/process"
	"atrium.io/vault/pkg/proof"
	"atrium.io/vault/pkg/registry"
	"atrium.io/vault/pkg/vault"
)

var kinds = []string{"text", "image", "archive", "ledger"}

// aegisSimulator stands in for the external verification oracle. It
// deterministically rejects a small slice of the registry each epoch so
// reward gating stays visible in simulated journals.
type aegisSimulator struct{}

func (aegisSimulator) Verify(ctx context.Context, req registry.VerifyRequest) (registry.Verdict, error) {
	sum := int(req.Epoch)
	for _, r := range req.NodeID {
		sum += int(r)
	}
	return registry.Verdict{Valid: sum%5 != 0}, nil
}

func cmdSimulate(cmd *cobra.Command, args []string) (err error) {
	ctx := process.Ctx(cmd)
	log := zap.L().Named("simulate")

	engine, err := vault.New(log.Named("vault"), simulateCfg.Vault, aegisSimulator{})
	if err != nil {
		return err
	}
	halt := accounting.NewFatalHalt(log.Named("halt"))

	for i := 0; i < simulateCfg.Nodes; i++ {
		info := registry.NodeInfo{
			ID:   atrium.NodeID(fmt.Sprintf("node-%02d", i+1)),
			Host: fmt.Sprintf("10.0.0.%d", i+1),
			Port: 7000 + i,
		}
		if err := engine.RegisterNode(ctx, info); err != nil {
			return err
		}
	}
	if err := engine.AdvanceEpoch(ctx); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(simulateCfg.Seed))
	blockSize := simulateCfg.Vault.BlockSize.Int()

	type stored struct {
		objectID string
		version  int64
		shardIDs atrium.ShardIDList
	}
	var objects []stored

	tick := int64(10)
	for i := 0; i < simulateCfg.Objects; i++ {
		if i == simulateCfg.Objects/2 {
			if err := settleEpoch(ctx, engine, log); err != nil {
				return err
			}
		}

		content := make([]byte, rng.Intn(3*blockSize+1))
		_, _ = rng.Read(content)
		meta := atrium.Metadata{
			"author": fmt.Sprintf("user-%d", rng.Intn(5)+1),
			"kind":   kinds[rng.Intn(len(kinds))],
		}

		objectID := fmt.Sprintf("object-%03d", i+1)
		version := int64(rng.Intn(3) + 1)
		result, err := engine.Put(ctx, objectID, version, content, meta, tick)
		if err != nil {
			return err
		}
		objects = append(objects, stored{objectID, version, result.ShardIDs})
		tick++
	}

	for i := 0; i < simulateCfg.Proofs; i++ {
		if len(objects) == 0 {
			break
		}
		if i%6 == 5 {
			// deliberate miss, the failure lands in the journal
			ghost := atrium.DeriveShardID("missing", 1, i)
			if _, err := engine.GetStorageProof(ctx, "missing", 1, ghost); err != nil && !proof.ErrUnavailable.Has(err) {
				return err
			}
			continue
		}
		pick := objects[rng.Intn(len(objects))]
		if len(pick.shardIDs) == 0 {
			continue
		}
		shard := pick.shardIDs[rng.Intn(len(pick.shardIDs))]
		if _, err := engine.GetStorageProof(ctx, pick.objectID, pick.version, shard); err != nil {
			return err
		}
	}

	if err := settleEpoch(ctx, engine, log); err != nil {
		return err
	}

	summary := engine.EconomicsSummary()
	if !summary.Conserved {
		halt.Trigger(ctx, "reward conservation violated",
			zap.Stringer("fees", summary.Fees),
			zap.Stringer("rewards", summary.Rewards),
			zap.Stringer("difference", summary.Difference))
	}

	live, err := engine.Snapshot(ctx)
	if err != nil {
		return err
	}
	replayed, err := journal.Replay(engine.Events())
	if err != nil {
		return err
	}
	if live.Hash() != replayed.Hash() {
		halt.Trigger(ctx, "replay diverged from live state",
			zap.Stringer("live", live.Hash()),
			zap.Stringer("replayed", replayed.Hash()))
	}

	n, err := exportJournal(engine)
	if err != nil {
		return err
	}

	log.Info("simulation complete",
		zap.Int("events", len(engine.Events())),
		zap.String("journal", simulateCfg.Out),
		zap.String("journal_size", memory.FormatBytes(n)),
		zap.Stringer("snapshot", live.Hash()),
		zap.Stringer("fees", summary.Fees),
		zap.Stringer("rewards", summary.Rewards),
		zap.Bool("conserved", summary.Conserved))
	return nil
}

func settleEpoch(ctx context.Context, engine *vault.Engine, log *zap.Logger) error {
	epoch := engine.Epoch()
	rewards, err := engine.CalculateRewards(ctx, epoch)
	if err != nil {
		return err
	}
	log.Info("epoch settled",
		zap.Uint64("epoch", epoch),
		zap.Int("rewarded_nodes", len(rewards)))
	return engine.AdvanceEpoch(ctx)
}

func exportJournal(engine *vault.Engine) (int64, error) {
	if simulateCfg.Out == "-" {
		return engine.WriteJournal(os.Stdout)
	}
	fh, err := os.Create(simulateCfg.Out)
	if err != nil {
		return 0, err
	}
	n, err := engine.WriteJournal(fh)
	return n, errs.Combine(err, fh.Close())
}
