// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package vault

import (
	"context"
	"crypto/sha256"
	"math/big"
	"sort"

	"go.uber.org/zap"

	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/fixed"
	"atrium.io/vault/pkg/journal"
)

// PutResult reports the deterministic outcome of a store operation.
type PutResult struct {
	HashCommit atrium.Digest
	ShardIDs   atrium.ShardIDList
	AtrCost    fixed.Value
}

// Put stores one object version: it commits to the content, charges the
// storage fee, chunks the content into shards, places replicas on eligible
// nodes, commits each shard and appends the STORE event. The event append is
// the final step; an error before it leaves no event, while node metric
// updates already applied are kept best effort.
func (engine *Engine) Put(ctx context.Context, objectID string, version int64, content []byte, meta atrium.Metadata, tick int64) (_ PutResult, err error) {
	defer mon.Task()(&ctx)(&err)

	if objectID == "" {
		return PutResult{}, Error.New("object id missing")
	}

	hashCommit := atrium.HashContent(content, engine.config.SchemaVersion, meta)

	cost, err := engine.accountant.Cost(ctx, int64(len(content)), meta)
	if err != nil {
		return PutResult{}, err
	}
	if err := engine.accountant.AccrueFee(ctx, cost); err != nil {
		return PutResult{}, err
	}

	eligible, err := engine.registry.EligibleNodes(ctx)
	if err != nil {
		return PutResult{}, err
	}

	chunks := chunkContent(content, engine.config.BlockSize.Int())
	shardIDs := make(atrium.ShardIDList, 0, len(chunks))
	shards := make([]*Shard, 0, len(chunks))
	replicaSets := make(map[string]atrium.NodeIDList, len(chunks))

	for index, chunk := range chunks {
		shardID := atrium.DeriveShardID(objectID, version, index)
		replicas := placeReplicas(shardID, eligible, engine.config.ReplicationFactor)

		commitment, err := engine.prover.Commit(ctx, shardID, chunk)
		if err != nil {
			return PutResult{}, err
		}
		for _, node := range replicas {
			if err := engine.registry.RecordShardStored(ctx, node, int64(len(chunk))); err != nil {
				return PutResult{}, err
			}
		}

		data := make([]byte, len(chunk))
		copy(data, chunk)

		shardIDs = append(shardIDs, shardID)
		replicaSets[shardID.String()] = replicas
		shards = append(shards, &Shard{
			ID:         shardID,
			Data:       data,
			Replicas:   replicas,
			Commitment: commitment,
		})
	}

	ref := atrium.ObjectRef{ID: objectID, Version: version}
	engine.objects[ref] = &LogicalObject{
		Ref:        ref,
		HashCommit: hashCommit,
		Metadata:   meta.Copy(),
		ShardIDs:   shardIDs,
		Tick:       tick,
		Epoch:      engine.registry.Epoch(),
		Size:       int64(len(content)),
		Cost:       cost,
	}
	for _, shard := range shards {
		engine.shards[shard.ID] = shard
	}
	engine.lastTick = tick

	_, err = engine.journal.Append(ctx, journal.Event{
		Type:        journal.TypeStore,
		Epoch:       engine.registry.Epoch(),
		Tick:        tick,
		ObjectID:    objectID,
		Version:     version,
		HashCommit:  hashCommit,
		ContentSize: int64(len(content)),
		ShardIDs:    shardIDs,
		ReplicaSets: replicaSets,
		AtrCost:     cost,
	})
	if err != nil {
		return PutResult{}, err
	}

	mon.Meter("req_put_object").Mark(1)
	mon.IntVal("put_shard_count").Observe(int64(len(shardIDs)))
	mon.IntVal("put_content_size").Observe(int64(len(content)))

	engine.log.Debug("object stored",
		zap.Stringer("object", ref),
		zap.Int("size", len(content)),
		zap.Int("shards", len(shardIDs)),
		zap.Stringer("cost", cost),
		zap.Int64("tick", tick))

	return PutResult{
		HashCommit: hashCommit,
		ShardIDs:   shardIDs.Copy(),
		AtrCost:    cost,
	}, nil
}

// chunkContent splits content into blocks of at most size bytes, preserving
// order. Zero length content yields no chunks.
func chunkContent(content []byte, size int) [][]byte {
	if len(content) == 0 {
		return nil
	}
	chunks := make([][]byte, 0, (len(content)+size-1)/size)
	for start := 0; start < len(content); start += size {
		end := start + size
		if end > len(content) {
			end = len(content)
		}
		chunks = append(chunks, content[start:end])
	}
	return chunks
}

// placeReplicas picks the replica set for a shard: the digest of the shard
// id, taken modulo the eligible count, selects a rotation start in the
// sorted eligible list; the walk continues forward with wraparound until
// enough distinct nodes are collected. The same shard id over the same
// eligible snapshot always yields the same set. The returned set is sorted.
func placeReplicas(shardID atrium.ShardID, eligible atrium.NodeIDList, factor int) atrium.NodeIDList {
	replicas := make(atrium.NodeIDList, 0, factor)
	if len(eligible) == 0 {
		return replicas
	}
	if factor > len(eligible) {
		factor = len(eligible)
	}

	digest := sha256.Sum256(shardID.Bytes())
	rotation := new(big.Int).SetBytes(digest[:])
	start := int(rotation.Mod(rotation, big.NewInt(int64(len(eligible)))).Int64())

	for offset := 0; offset < factor; offset++ {
		replicas = append(replicas, eligible[(start+offset)%len(eligible)])
	}
	sort.Sort(replicas)
	return replicas
}
