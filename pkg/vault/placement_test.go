// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package vault

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"atrium.io/vault/pkg/atrium"
)

func TestPlaceReplicas(t *testing.T) {
	eligible := atrium.NodeIDList{"node-a", "node-b", "node-c", "node-d", "node-e"}

	for _, tt := range []struct {
		shard atrium.ShardID
		want  atrium.NodeIDList
	}{
		// rotation starts mid-list
		{atrium.DeriveShardID("beta", 1, 0), atrium.NodeIDList{"node-c", "node-d", "node-e"}},
		// the walk wraps around the end of the eligible list
		{atrium.DeriveShardID("beta", 1, 1), atrium.NodeIDList{"node-a", "node-d", "node-e"}},
		{atrium.DeriveShardID("beta", 1, 2), atrium.NodeIDList{"node-a", "node-b", "node-e"}},
	} {
		got := placeReplicas(tt.shard, eligible, 3)
		require.Equal(t, tt.want, got, tt.shard.String())

		// same shard, same snapshot, same set
		require.Equal(t, got, placeReplicas(tt.shard, eligible, 3))
	}
}

func TestPlaceReplicasSmallPools(t *testing.T) {
	shard := atrium.DeriveShardID("doc", 1, 0)

	// fewer eligible nodes than the replication factor
	got := placeReplicas(shard, atrium.NodeIDList{"n1", "n2"}, 3)
	require.Equal(t, atrium.NodeIDList{"n1", "n2"}, got)

	got = placeReplicas(shard, atrium.NodeIDList{"solo"}, 3)
	require.Equal(t, atrium.NodeIDList{"solo"}, got)

	// an empty pool is not fatal, the shard simply has no replicas
	got = placeReplicas(shard, nil, 3)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestPlaceReplicasDistinct(t *testing.T) {
	eligible := atrium.NodeIDList{"n1", "n2", "n3", "n4"}
	for index := 0; index < 20; index++ {
		got := placeReplicas(atrium.DeriveShardID("spread", 7, index), eligible, 3)
		require.Len(t, got, 3)
		seen := map[atrium.NodeID]bool{}
		for _, id := range got {
			require.False(t, seen[id])
			require.True(t, eligible.Contains(id))
			seen[id] = true
		}
	}
}

func TestChunkContent(t *testing.T) {
	require.Nil(t, chunkContent(nil, 16))
	require.Nil(t, chunkContent([]byte{}, 16))

	content := bytes.Repeat([]byte{'z'}, 40)
	chunks := chunkContent(content, 16)
	require.Len(t, chunks, 3)
	require.Equal(t, content[:16], chunks[0])
	require.Equal(t, content[16:32], chunks[1])
	require.Equal(t, content[32:], chunks[2])

	chunks = chunkContent(content[:16], 16)
	require.Len(t, chunks, 1)
	require.Equal(t, content[:16], chunks[0])
}
