// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package atrium

import (
	"crypto/sha256"
	"strconv"

	"github.com/mr-tron/base58/base58"
	"github.com/zeebo/errs"
)

// ErrShardID is used when a shard id cannot be parsed.
var ErrShardID = errs.Class("shard ID error")

// ShardID is the deterministic identifier of a single shard. It is derived
// from the owning object id, version and chunk index, so re-deriving it for
// the same inputs always yields the same id.
type ShardID [sha256.Size]byte

// DeriveShardID computes the shard id for chunk index of (objectID, version).
func DeriveShardID(objectID string, version int64, index int) ShardID {
	plain := objectID + ":" + strconv.FormatInt(version, 10) + ":" + strconv.Itoa(index)
	return ShardID(sha256.Sum256([]byte(plain)))
}

// ShardIDFromString parses a base58 encoded shard id.
func ShardIDFromString(s string) (ShardID, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return ShardID{}, ErrShardID.Wrap(err)
	}
	return ShardIDFromBytes(raw)
}

// ShardIDFromBytes converts a raw byte slice into a ShardID.
func ShardIDFromBytes(raw []byte) (ShardID, error) {
	if len(raw) != len(ShardID{}) {
		return ShardID{}, ErrShardID.New("invalid length %d", len(raw))
	}
	var id ShardID
	copy(id[:], raw)
	return id, nil
}

// Bytes returns the shard id as a raw byte slice.
func (id ShardID) Bytes() []byte { return id[:] }

// String returns the shard id in base58 encoding.
func (id ShardID) String() string { return base58.Encode(id[:]) }

// IsZero reports whether the shard id is the zero value.
func (id ShardID) IsZero() bool { return id == ShardID{} }

// MarshalText implements encoding.TextMarshaler.
func (id ShardID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ShardID) UnmarshalText(text []byte) error {
	parsed, err := ShardIDFromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ShardIDList is an ordered list of shard ids.
type ShardIDList []ShardID

// Len implements sort.Interface.
func (list ShardIDList) Len() int { return len(list) }

// Swap implements sort.Interface.
func (list ShardIDList) Swap(i, j int) { list[i], list[j] = list[j], list[i] }

// Less orders shard ids by their base58 string form.
func (list ShardIDList) Less(i, j int) bool {
	return list[i].String() < list[j].String()
}

// Contains reports whether id is present in the list.
func (list ShardIDList) Contains(id ShardID) bool {
	for _, other := range list {
		if other == id {
			return true
		}
	}
	return false
}

// Copy returns an independent copy of the list.
func (list ShardIDList) Copy() ShardIDList {
	if list == nil {
		return nil
	}
	copied := make(ShardIDList, len(list))
	copy(copied, list)
	return copied
}

// Strings converts the list into base58 strings.
func (list ShardIDList) Strings() []string {
	strs := make([]string, 0, len(list))
	for _, id := range list {
		strs = append(strs, id.String())
	}
	return strs
}
