// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package proof computes size-bounded Merkle commitments over shard
// content. The commitment is a flat root plus the committed size; no
// per-leaf inclusion paths are produced or stored.
package proof

import (
	"context"
	"encoding/json"

	"github.com/zeebo/errs"
	monkit "gopkg.in/spacemonkeygo/monkit.v2"

	"atrium.io/vault/internal/memory"
	"atrium.io/vault/pkg/atrium"
)

var (
	mon = monkit.Package()

	// Error is the default proof error class.
	Error = errs.Class("proof")
	// ErrUnavailable is returned when no proof can be produced for a query.
	ErrUnavailable = errs.Class("proof unavailable")
)

// AlgorithmMerkleSHA256 tags commitments produced by this engine.
const AlgorithmMerkleSHA256 = "merkle-sha256-v1"

// DefaultLeafSize is the leaf granularity of the commitment tree.
const DefaultLeafSize = 4 * memory.KiB

// Commitment is the stored proof record for one shard.
type Commitment struct {
	ShardID   atrium.ShardID
	Root      atrium.Digest
	Size      int64
	Algorithm string
}

// Record returns the canonical serialized form of the commitment.
func (commitment Commitment) Record() []byte {
	record, _ := json.Marshal(map[string]interface{}{
		"algorithm":   commitment.Algorithm,
		"merkle_root": commitment.Root.String(),
		"shard_id":    commitment.ShardID.String(),
		"size":        commitment.Size,
	})
	return record
}

// Engine computes commitments with a fixed leaf size.
type Engine struct {
	leafSize int
}

// NewEngine creates a proof engine. A non-positive leaf size falls back to
// DefaultLeafSize.
func NewEngine(leafSize memory.Size) *Engine {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	return &Engine{leafSize: leafSize.Int()}
}

// Commit builds the Merkle commitment over data for the given shard id.
// Empty data commits to the digest of the empty leaf.
func (engine *Engine) Commit(ctx context.Context, shardID atrium.ShardID, data []byte) (_ Commitment, err error) {
	defer mon.Task()(&ctx)(&err)

	leaves := engine.leaves(data)
	mon.IntVal("proof_leaf_count").Observe(int64(len(leaves)))

	return Commitment{
		ShardID:   shardID,
		Root:      merkleRoot(leaves),
		Size:      int64(len(data)),
		Algorithm: AlgorithmMerkleSHA256,
	}, nil
}

// leaves splits data into leaf digests. Zero length data still yields a
// single leaf, the digest of the empty byte sequence.
func (engine *Engine) leaves(data []byte) []atrium.Digest {
	if len(data) == 0 {
		return []atrium.Digest{atrium.SumDigest()}
	}

	leaves := make([]atrium.Digest, 0, (len(data)+engine.leafSize-1)/engine.leafSize)
	for start := 0; start < len(data); start += engine.leafSize {
		end := start + engine.leafSize
		if end > len(data) {
			end = len(data)
		}
		leaves = append(leaves, atrium.SumDigest(data[start:end]))
	}
	return leaves
}

// merkleRoot folds leaf digests pairwise until a single root remains. An
// odd-length level duplicates its last node before pairing.
func merkleRoot(level []atrium.Digest) atrium.Digest {
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]atrium.Digest, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, atrium.SumDigest(level[i].Bytes(), level[i+1].Bytes()))
		}
		level = next
	}
	return level[0]
}
