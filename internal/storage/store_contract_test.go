package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resourcefm/internal/common"
)

// treeStore is the method set shared by every backend.
type treeStore interface {
	Root(ctx context.Context) (*Node, error)
	Get(ctx context.Context, id int64) (*Node, error)
	Lookup(ctx context.Context, parent int64, name string) (*Node, error)
	ListDir(ctx context.Context, dir int64) ([]*Node, error)
	Mkdir(ctx context.Context, parent int64, name string) (*Node, error)
	CreateFile(ctx context.Context, parent int64, name string, data []byte) (*Node, error)
	Remove(ctx context.Context, parent int64, name string) error
	Rename(ctx context.Context, parent int64, oldName, newName string) error
	Move(ctx context.Context, srcParent int64, name string, dstParent int64) error
	ReadFile(ctx context.Context, id int64) ([]byte, error)
	WriteFile(ctx context.Context, id int64, data []byte) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

var (
	_ treeStore = (*DataFile)(nil)
	_ treeStore = (*MemTree)(nil)
	_ treeStore = (*BillyStore)(nil)
)

type backend struct {
	name string
	open func(t *testing.T) treeStore
	// insertionOrder is false for backends that list in name order.
	insertionOrder bool
}

func backends() []backend {
	return []backend{
		{"sqlite", func(t *testing.T) treeStore { df, _ := testDataFile(t); return df }, true},
		{"memory", func(t *testing.T) treeStore { return NewMemTree() }, true},
		{"directory", func(t *testing.T) treeStore {
			s, err := OpenDirectory(t.TempDir())
			require.NoError(t, err)
			return s
		}, false},
	}
}

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestStoreContract(t *testing.T) {
	t.Parallel()
	for _, b := range backends() {
		b := b
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			t.Run("root", func(t *testing.T) {
				s := b.open(t)
				root, err := s.Root(context.Background())
				require.NoError(t, err)
				assert.Equal(t, RootID, root.ID)
				assert.True(t, root.IsDir())
			})

			t.Run("create and lookup", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)

				dir, err := s.Mkdir(ctx, RootID, "alpha")
				require.NoError(t, err)
				assert.True(t, dir.IsDir())
				assert.Equal(t, RootID, dir.ParentID)

				f, err := s.CreateFile(ctx, dir.ID, "test.txt", []byte("foo"))
				require.NoError(t, err)
				assert.Equal(t, int64(3), f.Size)
				assert.Equal(t, dir.ID, f.ParentID)

				got, err := s.Lookup(ctx, dir.ID, "test.txt")
				require.NoError(t, err)
				assert.Equal(t, f.ID, got.ID)
				assert.Equal(t, "test.txt", got.Name)

				byID, err := s.Get(ctx, f.ID)
				require.NoError(t, err)
				assert.Equal(t, "test.txt", byID.Name)

				data, err := s.ReadFile(ctx, f.ID)
				require.NoError(t, err)
				assert.Equal(t, "foo", string(data))

				_, err = s.Lookup(ctx, dir.ID, "missing")
				assert.ErrorIs(t, err, common.ErrNotFound)
			})

			t.Run("collisions", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				_, err := s.Mkdir(ctx, RootID, "alpha")
				require.NoError(t, err)
				_, err = s.Mkdir(ctx, RootID, "alpha")
				assert.ErrorIs(t, err, common.ErrExists)
				_, err = s.CreateFile(ctx, RootID, "alpha", nil)
				assert.ErrorIs(t, err, common.ErrExists)
			})

			t.Run("file is not a directory", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				f, err := s.CreateFile(ctx, RootID, "plain", []byte("x"))
				require.NoError(t, err)
				_, err = s.Mkdir(ctx, f.ID, "child")
				assert.ErrorIs(t, err, common.ErrNotDir)
				_, err = s.ListDir(ctx, f.ID)
				assert.ErrorIs(t, err, common.ErrNotDir)

				root, err := s.Root(ctx)
				require.NoError(t, err)
				_, err = s.ReadFile(ctx, root.ID)
				assert.ErrorIs(t, err, common.ErrIsDir)
				assert.ErrorIs(t, s.WriteFile(ctx, root.ID, nil), common.ErrIsDir)
			})

			t.Run("list order", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				for _, n := range []string{"zeta", "alpha", "mid"} {
					_, err := s.CreateFile(ctx, RootID, n, nil)
					require.NoError(t, err)
				}
				nodes, err := s.ListDir(ctx, RootID)
				require.NoError(t, err)
				if b.insertionOrder {
					assert.Equal(t, []string{"zeta", "alpha", "mid"}, names(nodes))
				} else {
					assert.Equal(t, []string{"alpha", "mid", "zeta"}, names(nodes))
				}
			})

			t.Run("write replaces content", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				f, err := s.CreateFile(ctx, RootID, "a.txt", []byte("first version"))
				require.NoError(t, err)
				require.NoError(t, s.WriteFile(ctx, f.ID, []byte("v2")))
				data, err := s.ReadFile(ctx, f.ID)
				require.NoError(t, err)
				assert.Equal(t, "v2", string(data))
				n, err := s.Lookup(ctx, RootID, "a.txt")
				require.NoError(t, err)
				assert.Equal(t, int64(2), n.Size)
			})

			t.Run("large content spans chunks", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				big := make([]byte, ChunkSize*2+17)
				for i := range big {
					big[i] = byte(i % 251)
				}
				f, err := s.CreateFile(ctx, RootID, "big.bin", big)
				require.NoError(t, err)
				data, err := s.ReadFile(ctx, f.ID)
				require.NoError(t, err)
				assert.Equal(t, big, data)
			})

			t.Run("image dimensions", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				f, err := s.CreateFile(ctx, RootID, "pic.png", pngBytes(t, 12, 7))
				require.NoError(t, err)
				n, err := s.Get(ctx, f.ID)
				require.NoError(t, err)
				assert.Equal(t, 12, n.Width)
				assert.Equal(t, 7, n.Height)
			})

			t.Run("rename keeps id", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				f, err := s.CreateFile(ctx, RootID, "test.txt", []byte("foo"))
				require.NoError(t, err)
				_, err = s.CreateFile(ctx, RootID, "other.txt", []byte("bar"))
				require.NoError(t, err)

				assert.ErrorIs(t, s.Rename(ctx, RootID, "test.txt", "other.txt"), common.ErrExists)
				require.NoError(t, s.Rename(ctx, RootID, "test.txt", "test.txt"))
				require.NoError(t, s.Rename(ctx, RootID, "test.txt", "renamed.txt"))

				_, err = s.Lookup(ctx, RootID, "test.txt")
				assert.ErrorIs(t, err, common.ErrNotFound)
				n, err := s.Lookup(ctx, RootID, "renamed.txt")
				require.NoError(t, err)
				assert.Equal(t, f.ID, n.ID)
				data, err := s.ReadFile(ctx, n.ID)
				require.NoError(t, err)
				assert.Equal(t, "foo", string(data))

				assert.ErrorIs(t, s.Rename(ctx, RootID, "nope", "x"), common.ErrNotFound)
			})

			t.Run("move reparents subtree", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				src, err := s.Mkdir(ctx, RootID, "src")
				require.NoError(t, err)
				dst, err := s.Mkdir(ctx, RootID, "dst")
				require.NoError(t, err)
				_, err = s.CreateFile(ctx, src.ID, "leaf.txt", []byte("leaf"))
				require.NoError(t, err)

				require.NoError(t, s.Move(ctx, RootID, "src", dst.ID))

				_, err = s.Lookup(ctx, RootID, "src")
				assert.ErrorIs(t, err, common.ErrNotFound)
				moved, err := s.Lookup(ctx, dst.ID, "src")
				require.NoError(t, err)
				assert.Equal(t, src.ID, moved.ID)
				assert.Equal(t, dst.ID, moved.ParentID)
				leaf, err := s.Lookup(ctx, moved.ID, "leaf.txt")
				require.NoError(t, err)
				data, err := s.ReadFile(ctx, leaf.ID)
				require.NoError(t, err)
				assert.Equal(t, "leaf", string(data))
			})

			t.Run("move rejects collisions and cycles", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				outer, err := s.Mkdir(ctx, RootID, "outer")
				require.NoError(t, err)
				inner, err := s.Mkdir(ctx, outer.ID, "inner")
				require.NoError(t, err)
				_, err = s.CreateFile(ctx, RootID, "x.txt", []byte("root"))
				require.NoError(t, err)
				_, err = s.CreateFile(ctx, outer.ID, "x.txt", []byte("outer"))
				require.NoError(t, err)

				assert.ErrorIs(t, s.Move(ctx, RootID, "x.txt", outer.ID), common.ErrExists)
				assert.ErrorIs(t, s.Move(ctx, RootID, "outer", inner.ID), common.ErrInvalidPath)

				n, err := s.Lookup(ctx, RootID, "x.txt")
				require.NoError(t, err)
				data, err := s.ReadFile(ctx, n.ID)
				require.NoError(t, err)
				assert.Equal(t, "root", string(data))
			})

			t.Run("remove is recursive", func(t *testing.T) {
				ctx := context.Background()
				s := b.open(t)
				a, err := s.Mkdir(ctx, RootID, "a")
				require.NoError(t, err)
				bdir, err := s.Mkdir(ctx, a.ID, "b")
				require.NoError(t, err)
				leaf, err := s.CreateFile(ctx, bdir.ID, "c.txt", []byte("c"))
				require.NoError(t, err)
				_, err = s.CreateFile(ctx, RootID, "keep.txt", nil)
				require.NoError(t, err)

				require.NoError(t, s.Remove(ctx, RootID, "a"))

				nodes, err := s.ListDir(ctx, RootID)
				require.NoError(t, err)
				assert.Equal(t, []string{"keep.txt"}, names(nodes))
				_, err = s.Get(ctx, leaf.ID)
				assert.ErrorIs(t, err, common.ErrNotFound)
				assert.ErrorIs(t, s.Remove(ctx, RootID, "a"), common.ErrNotFound)

				st, err := s.Stats(ctx)
				require.NoError(t, err)
				assert.Equal(t, int64(0), st.Dirs)
				assert.Equal(t, int64(1), st.Files)
			})

			t.Run("close", func(t *testing.T) {
				s := b.open(t)
				assert.NoError(t, s.Close())
			})
		})
	}
}
