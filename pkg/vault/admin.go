// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package vault

import (
	"context"
	"io"
	"sort"

	"go.uber.org/zap"

	"atrium.io/vault/pkg/accounting"
	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/fixed"
	"atrium.io/vault/pkg/journal"
	"atrium.io/vault/pkg/registry"
)

// RegisterNode adds a node to the registry in active state.
func (engine *Engine) RegisterNode(ctx context.Context, info registry.NodeInfo) error {
	return engine.registry.Register(ctx, info)
}

// UnregisterNode removes a node from the registry.
func (engine *Engine) UnregisterNode(ctx context.Context, id atrium.NodeID) error {
	return engine.registry.Unregister(ctx, id)
}

// SetNodeStatus changes a node's administrative status.
func (engine *Engine) SetNodeStatus(ctx context.Context, id atrium.NodeID, status registry.Status) error {
	return engine.registry.SetStatus(ctx, id, status)
}

// AdvanceEpoch moves to the next epoch, re-verifying nodes when a verifier
// is configured.
func (engine *Engine) AdvanceEpoch(ctx context.Context) error {
	return engine.registry.AdvanceEpoch(ctx)
}

// Epoch returns the current epoch.
func (engine *Engine) Epoch() uint64 { return engine.registry.Epoch() }

// Nodes returns copies of all node records sorted by id.
func (engine *Engine) Nodes(ctx context.Context) ([]registry.Node, error) {
	return engine.registry.Nodes(ctx)
}

// EligibleNodes returns the sorted ids admissible for placement.
func (engine *Engine) EligibleNodes(ctx context.Context) (atrium.NodeIDList, error) {
	return engine.registry.EligibleNodes(ctx)
}

// CheckCapabilities reports whether the engine runs with a verifier.
func (engine *Engine) CheckCapabilities() error {
	return engine.registry.CheckCapabilities()
}

// CalculateRewards computes and accrues the payout of every node verified in
// the given epoch. Without a verifier no node qualifies and the result is
// empty; that degraded capability is logged, not an error.
func (engine *Engine) CalculateRewards(ctx context.Context, epoch uint64) (_ map[atrium.NodeID]fixed.Value, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := engine.registry.CheckCapabilities(); err != nil {
		engine.log.Warn("rewards requested without verifier", zap.Error(err))
	}

	nodes, err := engine.registry.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	rewards := make(map[atrium.NodeID]fixed.Value)
	for _, node := range nodes {
		if !node.VerifiedIn(epoch) {
			continue
		}
		reward, err := engine.accountant.Reward(ctx, node, epoch)
		if err != nil {
			return nil, err
		}
		if err := engine.accountant.AccrueReward(ctx, reward); err != nil {
			return nil, err
		}
		rewards[node.ID] = reward
	}
	return rewards, nil
}

// EconomicsSummary reports the fee and reward totals and whether the
// conservation invariant holds. Observation only; violations are handed to
// a halt authority by the caller.
func (engine *Engine) EconomicsSummary() accounting.Summary {
	return engine.accountant.Summary()
}

// Events returns a copy of the journal's ordered event sequence.
func (engine *Engine) Events() []journal.Event {
	return engine.journal.Events()
}

// WriteJournal streams the journal as newline-delimited canonical JSON.
func (engine *Engine) WriteJournal(w io.Writer) (int64, error) {
	return engine.journal.WriteTo(w)
}

// Snapshot reduces the live engine state to its canonical form. Replaying
// the journal must produce a snapshot with the identical hash.
func (engine *Engine) Snapshot(ctx context.Context) (_ *journal.Snapshot, err error) {
	defer mon.Task()(&ctx)(&err)

	snapshot := &journal.Snapshot{
		Proofs: journal.ProofTotals{
			Generated: engine.proofGenerated,
			Failed:    engine.proofFailed,
		},
	}

	refs := make([]atrium.ObjectRef, 0, len(engine.objects))
	for ref := range engine.objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	for _, ref := range refs {
		object := engine.objects[ref]
		snapshot.Objects = append(snapshot.Objects, journal.ObjectState{
			ObjectID:    object.Ref.ID,
			Version:     object.Ref.Version,
			HashCommit:  object.HashCommit.String(),
			ContentSize: object.Size,
			Tick:        object.Tick,
			Epoch:       object.Epoch,
			AtrCost:     object.Cost.String(),
			ShardIDs:    object.ShardIDs.Strings(),
		})
	}

	shardIDs := make([]string, 0, len(engine.shards))
	byString := make(map[string]*Shard, len(engine.shards))
	for id, shard := range engine.shards {
		shardIDs = append(shardIDs, id.String())
		byString[id.String()] = shard
	}
	sort.Strings(shardIDs)
	for _, id := range shardIDs {
		snapshot.Shards = append(snapshot.Shards, journal.ShardState{
			ID:       id,
			Replicas: byString[id].Replicas.Strings(),
		})
	}

	nodes := make([]string, 0, len(engine.tallies))
	byNode := make(map[string]*proofTally, len(engine.tallies))
	for id, tally := range engine.tallies {
		nodes = append(nodes, id.String())
		byNode[id.String()] = tally
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		snapshot.Tallies = append(snapshot.Tallies, journal.NodeTally{
			NodeID:    node,
			Generated: byNode[node].generated,
			Failed:    byNode[node].failed,
		})
	}

	return snapshot, nil
}
