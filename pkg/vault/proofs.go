// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package vault

import (
	"context"

	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/journal"
	"atrium.io/vault/pkg/proof"
)

// ProofResult answers a storage proof query.
type ProofResult struct {
	Root          atrium.Digest
	Commitment    proof.Commitment
	AssignedNodes atrium.NodeIDList
}

const codeProofUnavailable = "proof_unavailable"

// GetStorageProof returns the Merkle commitment and replica assignment of
// one shard. Every query is journaled: a PROOF_GENERATED event on success,
// a PROOF_FAILED event with the error code when no proof can be served.
// Proof events carry the engine's last observed tick.
func (engine *Engine) GetStorageProof(ctx context.Context, objectID string, version int64, shardID atrium.ShardID) (_ ProofResult, err error) {
	defer mon.Task()(&ctx)(&err)

	ref := atrium.ObjectRef{ID: objectID, Version: version}

	object, found := engine.objects[ref]
	if !found {
		if err := engine.appendProofFailed(ctx, ref, atrium.Digest{}, shardID, "object not found"); err != nil {
			return ProofResult{}, err
		}
		return ProofResult{}, proof.ErrUnavailable.New("%s: object not found", ref)
	}

	shard, stored := engine.shards[shardID]
	if !object.ShardIDs.Contains(shardID) || !stored {
		if err := engine.appendProofFailed(ctx, ref, object.HashCommit, shardID, "shard not found"); err != nil {
			return ProofResult{}, err
		}
		return ProofResult{}, proof.ErrUnavailable.New("%s: shard %s not found", ref, shardID)
	}

	_, err = engine.journal.Append(ctx, journal.Event{
		Type:        journal.TypeProofGenerated,
		Epoch:       engine.registry.Epoch(),
		Tick:        engine.lastTick,
		ObjectID:    ref.ID,
		Version:     ref.Version,
		HashCommit:  object.HashCommit,
		ContentSize: shard.Commitment.Size,
		ShardIDs:    atrium.ShardIDList{shardID},
		ReplicaSets: map[string]atrium.NodeIDList{shardID.String(): shard.Replicas},
		ErrorCode:   "",
	})
	if err != nil {
		return ProofResult{}, err
	}

	engine.proofGenerated++
	for _, node := range shard.Replicas {
		engine.tallyFor(node).generated++
	}

	mon.Meter("req_get_proof").Mark(1)
	return ProofResult{
		Root:          shard.Commitment.Root,
		Commitment:    shard.Commitment,
		AssignedNodes: shard.Replicas.Copy(),
	}, nil
}

func (engine *Engine) appendProofFailed(ctx context.Context, ref atrium.ObjectRef, hashCommit atrium.Digest, shardID atrium.ShardID, detail string) error {
	_, err := engine.journal.Append(ctx, journal.Event{
		Type:        journal.TypeProofFailed,
		Epoch:       engine.registry.Epoch(),
		Tick:        engine.lastTick,
		ObjectID:    ref.ID,
		Version:     ref.Version,
		HashCommit:  hashCommit,
		ShardIDs:    atrium.ShardIDList{shardID},
		ReplicaSets: map[string]atrium.NodeIDList{},
		ErrorCode:   codeProofUnavailable,
		ErrorDetail: detail,
	})
	if err != nil {
		return err
	}

	engine.proofFailed++
	mon.Meter("req_get_proof_failed").Mark(1)
	return nil
}
