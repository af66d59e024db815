// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package journal

import (
	"encoding/json"
	"sort"

	"atrium.io/vault/pkg/atrium"
)

// ObjectState is the ledger-visible state of one stored object version.
type ObjectState struct {
	ObjectID    string
	Version     int64
	HashCommit  string
	ContentSize int64
	Tick        int64
	Epoch       uint64
	AtrCost     string
	ShardIDs    []string
}

// ShardState maps one shard to its sorted replica set.
type ShardState struct {
	ID       string
	Replicas []string
}

// NodeTally counts proof outcomes attributed to one node.
type NodeTally struct {
	NodeID    string
	Generated int64
	Failed    int64
}

// ProofTotals counts proof outcomes across the whole journal.
type ProofTotals struct {
	Generated int64
	Failed    int64
}

// Snapshot is the canonical reduction of engine state: objects, shard
// replica assignments and proof accounting, all in sorted order. A live
// engine and any independent replay of its journal must reduce to snapshots
// with the same hash.
type Snapshot struct {
	Objects []ObjectState
	Shards  []ShardState
	Tallies []NodeTally
	Proofs  ProofTotals
}

// Canonical serializes the snapshot as sorted-key JSON.
func (snapshot *Snapshot) Canonical() []byte {
	objects := make([]interface{}, 0, len(snapshot.Objects))
	for _, object := range snapshot.Objects {
		objects = append(objects, map[string]interface{}{
			"object_id":    object.ObjectID,
			"version":      object.Version,
			"hash_commit":  object.HashCommit,
			"content_size": object.ContentSize,
			"tick":         object.Tick,
			"epoch":        object.Epoch,
			"atr_cost":     object.AtrCost,
			"shard_ids":    object.ShardIDs,
		})
	}

	shards := make([]interface{}, 0, len(snapshot.Shards))
	for _, shard := range snapshot.Shards {
		shards = append(shards, map[string]interface{}{
			"shard_id": shard.ID,
			"replicas": shard.Replicas,
		})
	}

	tallies := make([]interface{}, 0, len(snapshot.Tallies))
	for _, tally := range snapshot.Tallies {
		tallies = append(tallies, map[string]interface{}{
			"node_id":   tally.NodeID,
			"generated": tally.Generated,
			"failed":    tally.Failed,
		})
	}

	body, _ := json.Marshal(map[string]interface{}{
		"objects":          objects,
		"shards":           shards,
		"tallies":          tallies,
		"proofs_generated": snapshot.Proofs.Generated,
		"proofs_failed":    snapshot.Proofs.Failed,
	})
	return body
}

// Hash returns the digest of the canonical snapshot serialization.
func (snapshot *Snapshot) Hash() atrium.Digest {
	return atrium.SumDigest(snapshot.Canonical())
}

type objectRef struct {
	id      string
	version int64
}

// Replay reduces an ordered event stream to a Snapshot. It is pure and
// stateless: two replays of the same stream always agree, and both agree
// with the live engine that produced the stream. A later STORE for the same
// (object_id, version) overwrites the earlier record, mirroring a live
// re-put. Proof events attribute tallies to the nodes carried in their
// replica sets; a failed proof without replicas counts globally only.
func Replay(events []Event) (*Snapshot, error) {
	objects := make(map[objectRef]ObjectState)
	shards := make(map[string][]string)
	tallies := make(map[string]*NodeTally)
	var totals ProofTotals

	tallyFor := func(node string) *NodeTally {
		if _, found := tallies[node]; !found {
			tallies[node] = &NodeTally{NodeID: node}
		}
		return tallies[node]
	}

	for i, event := range events {
		switch event.Type {
		case TypeStore:
			ref := objectRef{id: event.ObjectID, version: event.Version}
			objects[ref] = ObjectState{
				ObjectID:    event.ObjectID,
				Version:     event.Version,
				HashCommit:  event.HashCommit.String(),
				ContentSize: event.ContentSize,
				Tick:        event.Tick,
				Epoch:       event.Epoch,
				AtrCost:     event.AtrCost.String(),
				ShardIDs:    event.ShardIDs.Strings(),
			}
			for shard, nodes := range event.ReplicaSets {
				sorted := nodes.Copy()
				sort.Sort(sorted)
				shards[shard] = sorted.Strings()
			}

		case TypeProofGenerated:
			totals.Generated++
			for _, nodes := range event.ReplicaSets {
				for _, node := range nodes {
					tallyFor(node.String()).Generated++
				}
			}

		case TypeProofFailed:
			totals.Failed++
			for _, nodes := range event.ReplicaSets {
				for _, node := range nodes {
					tallyFor(node.String()).Failed++
				}
			}

		default:
			return nil, Error.New("event %d: unknown type %q", i, event.Type)
		}
	}

	snapshot := &Snapshot{Proofs: totals}

	refs := make([]objectRef, 0, len(objects))
	for ref := range objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].id != refs[j].id {
			return refs[i].id < refs[j].id
		}
		return refs[i].version < refs[j].version
	})
	for _, ref := range refs {
		snapshot.Objects = append(snapshot.Objects, objects[ref])
	}

	shardIDs := make([]string, 0, len(shards))
	for id := range shards {
		shardIDs = append(shardIDs, id)
	}
	sort.Strings(shardIDs)
	for _, id := range shardIDs {
		snapshot.Shards = append(snapshot.Shards, ShardState{ID: id, Replicas: shards[id]})
	}

	nodes := make([]string, 0, len(tallies))
	for node := range tallies {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		snapshot.Tallies = append(snapshot.Tallies, *tallies[node])
	}

	return snapshot, nil
}
