package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemTree_ReadReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tree := NewMemTree()

	f, err := tree.CreateFile(ctx, RootID, "f.txt", []byte("abc"))
	require.NoError(t, err)

	data, err := tree.ReadFile(ctx, f.ID)
	require.NoError(t, err)
	data[0] = 'X'

	again, err := tree.ReadFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemTree_NodesAreSnapshots(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tree := NewMemTree()

	n, err := tree.Mkdir(ctx, RootID, "d")
	require.NoError(t, err)
	n.Name = "mutated"

	got, err := tree.Lookup(ctx, RootID, "d")
	require.NoError(t, err)
	assert.Equal(t, "d", got.Name)
}

func TestMemTree_RenameKeepsPosition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tree := NewMemTree()
	for _, n := range []string{"a", "b", "c"} {
		_, err := tree.Mkdir(ctx, RootID, n)
		require.NoError(t, err)
	}
	require.NoError(t, tree.Rename(ctx, RootID, "b", "bee"))

	nodes, err := tree.ListDir(ctx, RootID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "bee", "c"}, names(nodes))
}
