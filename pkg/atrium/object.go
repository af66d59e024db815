// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package atrium

import (
	"encoding/json"
	"strconv"
)

// ObjectRef identifies a single immutable version of a logical object.
type ObjectRef struct {
	ID      string
	Version int64
}

// String returns the reference in "id/vN" form.
func (ref ObjectRef) String() string {
	return ref.ID + "/v" + strconv.FormatInt(ref.Version, 10)
}

// Less orders references by object id, then version.
func (ref ObjectRef) Less(other ObjectRef) bool {
	if ref.ID != other.ID {
		return ref.ID < other.ID
	}
	return ref.Version < other.Version
}

// Metadata is the caller supplied key/value annotation of an object.
type Metadata map[string]string

// Canonical returns the deterministic serialized form of the metadata:
// a JSON object with lexicographically sorted keys and fixed separators.
// Nil and empty metadata canonicalize identically.
func (meta Metadata) Canonical() []byte {
	if len(meta) == 0 {
		return []byte("{}")
	}
	out, _ := json.Marshal(meta)
	return out
}

// Copy returns an independent copy of the metadata.
func (meta Metadata) Copy() Metadata {
	if meta == nil {
		return nil
	}
	copied := make(Metadata, len(meta))
	for key, value := range meta {
		copied[key] = value
	}
	return copied
}

// HashContent computes the content hash commitment of an object: the digest
// of the raw content followed by the store schema version and the canonical
// metadata. Zero length content commits to schema version and metadata alone.
func HashContent(content []byte, schemaVersion string, meta Metadata) Digest {
	return SumDigest(content, []byte(schemaVersion), meta.Canonical())
}
