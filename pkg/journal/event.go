// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package journal

import (
	"encoding/json"
	"sort"

	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/fixed"
)

// Type is the kind of a storage event.
type Type string

// Event types recorded by the engine.
const (
	TypeStore          Type = "STORE"
	TypeProofGenerated Type = "PROOF_GENERATED"
	TypeProofFailed    Type = "PROOF_FAILED"
)

// Valid reports whether the type is one of the defined event types.
func (typ Type) Valid() bool {
	switch typ {
	case TypeStore, TypeProofGenerated, TypeProofFailed:
		return true
	}
	return false
}

// Event is one record of the append-only journal. EventID is the digest of
// the canonical serialization of every other field, making the journal
// tamper evident and reproducible by replay.
type Event struct {
	Type        Type
	Epoch       uint64
	Tick        int64
	ObjectID    string
	Version     int64
	HashCommit  atrium.Digest
	ContentSize int64
	ShardIDs    atrium.ShardIDList
	ReplicaSets map[string]atrium.NodeIDList
	AtrCost     fixed.Value
	Signature   string
	ErrorCode   string
	ErrorDetail string

	EventID atrium.Digest
}

// canonicalFields returns the hashed fields of the event keyed by their
// canonical names. Replica node lists are sorted, shard order is preserved.
func (event Event) canonicalFields() map[string]interface{} {
	replicaSets := make(map[string][]string, len(event.ReplicaSets))
	for shard, nodes := range event.ReplicaSets {
		sorted := nodes.Copy()
		sort.Sort(sorted)
		replicaSets[shard] = sorted.Strings()
	}

	return map[string]interface{}{
		"event_type":   string(event.Type),
		"epoch":        event.Epoch,
		"tick":         event.Tick,
		"object_id":    event.ObjectID,
		"version":      event.Version,
		"hash_commit":  event.HashCommit.String(),
		"content_size": event.ContentSize,
		"shard_ids":    event.ShardIDs.Strings(),
		"replica_sets": replicaSets,
		"atr_cost":     event.AtrCost.String(),
		"signature":    event.Signature,
		"error_code":   event.ErrorCode,
		"error_detail": event.ErrorDetail,
	}
}

// CanonicalBody serializes the event without its id: a JSON object with
// lexicographically sorted keys and fixed separators.
func (event Event) CanonicalBody() []byte {
	body, _ := json.Marshal(event.canonicalFields())
	return body
}

// ComputeID returns the digest of the canonical body.
func (event Event) ComputeID() atrium.Digest {
	return atrium.SumDigest(event.CanonicalBody())
}

// Encode serializes the event including its id as one canonical JSON line.
func (event Event) Encode() []byte {
	fields := event.canonicalFields()
	fields["event_id"] = event.EventID.String()
	line, _ := json.Marshal(fields)
	return line
}

// wireEvent mirrors the canonical field names for decoding.
type wireEvent struct {
	EventType   string              `json:"event_type"`
	Epoch       uint64              `json:"epoch"`
	Tick        int64               `json:"tick"`
	ObjectID    string              `json:"object_id"`
	Version     int64               `json:"version"`
	HashCommit  string              `json:"hash_commit"`
	ContentSize int64               `json:"content_size"`
	ShardIDs    []string            `json:"shard_ids"`
	ReplicaSets map[string][]string `json:"replica_sets"`
	AtrCost     string              `json:"atr_cost"`
	Signature   string              `json:"signature"`
	ErrorCode   string              `json:"error_code"`
	ErrorDetail string              `json:"error_detail"`
	EventID     string              `json:"event_id"`
}

// DecodeEvent parses one canonical JSON line into an Event.
func DecodeEvent(line []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(line, &wire); err != nil {
		return Event{}, Error.Wrap(err)
	}

	hashCommit, err := atrium.DigestFromString(wire.HashCommit)
	if err != nil {
		return Event{}, Error.Wrap(err)
	}
	eventID, err := atrium.DigestFromString(wire.EventID)
	if err != nil {
		return Event{}, Error.Wrap(err)
	}
	atrCost, err := fixed.FromString(wire.AtrCost)
	if err != nil {
		return Event{}, Error.Wrap(err)
	}

	shardIDs := make(atrium.ShardIDList, 0, len(wire.ShardIDs))
	for _, s := range wire.ShardIDs {
		id, err := atrium.ShardIDFromString(s)
		if err != nil {
			return Event{}, Error.Wrap(err)
		}
		shardIDs = append(shardIDs, id)
	}

	replicaSets := make(map[string]atrium.NodeIDList, len(wire.ReplicaSets))
	for shard, nodes := range wire.ReplicaSets {
		list := make(atrium.NodeIDList, 0, len(nodes))
		for _, node := range nodes {
			list = append(list, atrium.NodeID(node))
		}
		replicaSets[shard] = list
	}

	return Event{
		Type:        Type(wire.EventType),
		Epoch:       wire.Epoch,
		Tick:        wire.Tick,
		ObjectID:    wire.ObjectID,
		Version:     wire.Version,
		HashCommit:  hashCommit,
		ContentSize: wire.ContentSize,
		ShardIDs:    shardIDs,
		ReplicaSets: replicaSets,
		AtrCost:     atrCost,
		Signature:   wire.Signature,
		ErrorCode:   wire.ErrorCode,
		ErrorDetail: wire.ErrorDetail,
		EventID:     eventID,
	}, nil
}
