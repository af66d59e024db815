// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package vault

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/proof"
)

// GetResult carries a reconstructed object.
type GetResult struct {
	Content    []byte
	HashCommit atrium.Digest
	Proofs     []proof.Commitment
}

// Get reconstructs an object version by concatenating its shard content in
// shard id string order, together with the content commitment and the per
// shard proof records. A missing object is a normal miss; a missing shard
// under an existing object is an internal consistency failure, surfaced as
// the same not found error.
func (engine *Engine) Get(ctx context.Context, objectID string, version int64) (_ GetResult, err error) {
	defer mon.Task()(&ctx)(&err)

	ref := atrium.ObjectRef{ID: objectID, Version: version}
	object, found := engine.objects[ref]
	if !found {
		return GetResult{}, ErrNotFound.New("%s", ref)
	}

	ordered := object.ShardIDs.Copy()
	sort.Sort(ordered)

	var content []byte
	proofs := make([]proof.Commitment, 0, len(ordered))
	for _, shardID := range ordered {
		shard, found := engine.shards[shardID]
		if !found {
			engine.log.Error("shard record missing for stored object",
				zap.Stringer("object", ref),
				zap.Stringer("shard", shardID))
			return GetResult{}, ErrNotFound.New("%s: shard %s", ref, shardID)
		}
		content = append(content, shard.Data...)
		proofs = append(proofs, shard.Commitment)
	}

	mon.Meter("req_get_object").Mark(1)
	return GetResult{
		Content:    content,
		HashCommit: object.HashCommit,
		Proofs:     proofs,
	}, nil
}

// ObjectSummary is one List result row.
type ObjectSummary struct {
	Ref         atrium.ObjectRef
	HashCommit  atrium.Digest
	ContentSize int64
	ShardCount  int
	Tick        int64
	Metadata    atrium.Metadata
}

// List returns summaries of the objects whose metadata matches every filter
// entry, ordered by object id and version. Nil filters match everything.
func (engine *Engine) List(ctx context.Context, filters atrium.Metadata) (_ []ObjectSummary, err error) {
	defer mon.Task()(&ctx)(&err)

	refs := make([]atrium.ObjectRef, 0, len(engine.objects))
	for ref, object := range engine.objects {
		if !matchesFilters(object.Metadata, filters) {
			continue
		}
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })

	summaries := make([]ObjectSummary, 0, len(refs))
	for _, ref := range refs {
		object := engine.objects[ref]
		summaries = append(summaries, ObjectSummary{
			Ref:         ref,
			HashCommit:  object.HashCommit,
			ContentSize: object.Size,
			ShardCount:  len(object.ShardIDs),
			Tick:        object.Tick,
			Metadata:    object.Metadata.Copy(),
		})
	}

	mon.Meter("req_list_objects").Mark(1)
	return summaries, nil
}

func matchesFilters(meta, filters atrium.Metadata) bool {
	for key, want := range filters {
		if got, found := meta[key]; !found || got != want {
			return false
		}
	}
	return true
}
