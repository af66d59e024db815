// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package atrium_test

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium.io/vault/pkg/atrium"
)

func TestDeriveShardID(t *testing.T) {
	id := atrium.DeriveShardID("doc", 1, 0)
	require.Equal(t, "A4YBTy6Au86rAkaXw85kyGpWJUUGUCH3nnTZeZXmZo8", id.String())

	fromString, err := atrium.ShardIDFromString(id.String())
	require.NoError(t, err)
	require.Equal(t, id, fromString)

	fromBytes, err := atrium.ShardIDFromBytes(id.Bytes())
	require.NoError(t, err)
	require.Equal(t, id, fromBytes)

	// changing any derivation input changes the id
	assert.NotEqual(t, id, atrium.DeriveShardID("doc", 1, 1))
	assert.NotEqual(t, id, atrium.DeriveShardID("doc", 2, 0))
	assert.Equal(t, id, atrium.DeriveShardID("doc", 1, 0))
}

func TestShardIDFromStringInvalid(t *testing.T) {
	_, err := atrium.ShardIDFromString("not!base58!")
	require.Error(t, err)
	require.True(t, atrium.ErrShardID.Has(err))

	_, err = atrium.ShardIDFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
	require.True(t, atrium.ErrShardID.Has(err))
}

func TestShardIDListSortsByString(t *testing.T) {
	first := atrium.DeriveShardID("gamma", 1, 0)
	second := atrium.DeriveShardID("gamma", 1, 1)
	// the second chunk of gamma/1 encodes below the first
	require.True(t, second.String() < first.String())

	list := atrium.ShardIDList{first, second}
	sort.Sort(list)
	require.Equal(t, atrium.ShardIDList{second, first}, list)
}

func TestDigest(t *testing.T) {
	digest := atrium.SumDigest()
	require.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		digest.String())

	parsed, err := atrium.DigestFromString(digest.String())
	require.NoError(t, err)
	require.Equal(t, digest, parsed)

	_, err = atrium.DigestFromString("zz")
	require.True(t, atrium.ErrDigest.Has(err))

	_, err = atrium.DigestFromBytes([]byte{1})
	require.True(t, atrium.ErrDigest.Has(err))

	require.True(t, atrium.Digest{}.IsZero())
	require.False(t, digest.IsZero())
}

func TestHashContent(t *testing.T) {
	content := bytes.Repeat([]byte{'A'}, 1000)
	commit := atrium.HashContent(content, "1", atrium.Metadata{"author": "u1"})
	require.Equal(t,
		"1713e3f6b0b22473eae16f71c53251bbf3a5127d37ffcb153cd05cd659f04aa6",
		commit.String())

	commit = atrium.HashContent([]byte("data"), "1", nil)
	require.Equal(t,
		"deafc41e8eedc1b33445ee916e084dd160dd6053f267dc00914e96cec4457eab",
		commit.String())

	// zero length content commits to schema version and metadata alone
	commit = atrium.HashContent(nil, "1", nil)
	require.Equal(t,
		"5b005ea94400c6292bf37723819a2155587051d20183105c71b68bbdc9555317",
		commit.String())
}

func TestMetadataCanonical(t *testing.T) {
	require.Equal(t, "{}", string(atrium.Metadata(nil).Canonical()))
	require.Equal(t, "{}", string(atrium.Metadata{}.Canonical()))

	meta := atrium.Metadata{"b": "2", "a": "1"}
	require.Equal(t, `{"a":"1","b":"2"}`, string(meta.Canonical()))

	copied := meta.Copy()
	copied["a"] = "changed"
	require.Equal(t, "1", meta["a"])
}

func TestObjectRef(t *testing.T) {
	ref := atrium.ObjectRef{ID: "doc", Version: 2}
	require.Equal(t, "doc/v2", ref.String())

	require.True(t, atrium.ObjectRef{ID: "a", Version: 9}.Less(atrium.ObjectRef{ID: "b", Version: 1}))
	require.True(t, atrium.ObjectRef{ID: "a", Version: 1}.Less(atrium.ObjectRef{ID: "a", Version: 2}))
	require.False(t, ref.Less(ref))
}

func TestNodeIDList(t *testing.T) {
	list := atrium.NodeIDList{"n3", "n1", "n2"}
	sort.Sort(list)
	require.Equal(t, atrium.NodeIDList{"n1", "n2", "n3"}, list)
	require.True(t, list.Contains("n2"))
	require.False(t, list.Contains("n9"))
	require.Equal(t, []string{"n1", "n2", "n3"}, list.Strings())

	copied := list.Copy()
	copied[0] = "other"
	require.Equal(t, atrium.NodeID("n1"), list[0])
}
