package vfs

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resourcefm/internal/storage"
)

type testStore struct {
	name string
	open func(t *testing.T) Store
}

func testStores() []testStore {
	return []testStore{
		{"memory", func(t *testing.T) Store { return storage.NewMemTree() }},
		{"sqlite", func(t *testing.T) Store {
			df, err := storage.Create(filepath.Join(t.TempDir(), "tree.rfm"))
			require.NoError(t, err)
			t.Cleanup(func() { df.Close() })
			return df
		}},
	}
}

func newTestGateway(t *testing.T, cfg Config) *Gateway {
	t.Helper()
	return New(storage.NewMemTree(), cfg)
}

func mustFolder(t *testing.T, g *Gateway, parent, name string) {
	t.Helper()
	res, err := g.CreateFolder(context.Background(), parent, name)
	require.NoError(t, err)
	require.True(t, res.OK(), "create folder %s/%s: %s", parent, name, res.Message)
}

func mustFile(t *testing.T, g *Gateway, p, content string) {
	t.Helper()
	res, err := g.Write(context.Background(), p, content, false)
	require.NoError(t, err)
	require.True(t, res.OK(), "write %s: %s", p, res.Message)
}

func readText(t *testing.T, g *Gateway, p string) string {
	t.Helper()
	res, err := g.Read(context.Background(), p)
	require.NoError(t, err)
	require.True(t, res.OK(), "read %s: %s", p, res.Message)
	require.NotNil(t, res.Contents, "read %s returned no contents", p)
	return *res.Contents
}

func listNames(t *testing.T, g *Gateway, p string) []string {
	t.Helper()
	res, err := g.List(context.Background(), p)
	require.NoError(t, err)
	require.True(t, res.OK(), "list %s: %s", p, res.Message)
	names := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		names = append(names, item.Filename)
	}
	return names
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestCreateThenList(t *testing.T) {
	for _, s := range testStores() {
		t.Run(s.name, func(t *testing.T) {
			ctx := context.Background()
			g := New(s.open(t), Config{})

			mustFolder(t, g, "/", "alpha")
			mustFolder(t, g, "/alpha", "beta")

			res, err := g.List(ctx, "/alpha")
			require.NoError(t, err)
			require.True(t, res.OK())
			assert.Equal(t, "/alpha", res.Path)
			require.Len(t, res.Items, 1)

			item := res.Items[0]
			assert.Equal(t, "beta", item.Filename)
			assert.Equal(t, "dir", item.FileType)
			assert.True(t, item.IsDir())
			assert.Equal(t, "/alpha/beta/", item.Path)
			assert.Equal(t, "/alpha/beta", strings.TrimSuffix(item.Path, "/"))
			assert.Nil(t, item.Properties.DateModified)
			assert.Empty(t, item.Properties.Size)
		})
	}
}

func TestCreateFolder_Collision(t *testing.T) {
	for _, s := range testStores() {
		t.Run(s.name, func(t *testing.T) {
			ctx := context.Background()
			g := New(s.open(t), Config{})
			mustFolder(t, g, "/", "alpha")
			mustFolder(t, g, "/alpha", "inner")

			res, err := g.CreateFolder(ctx, "/", "alpha")
			require.NoError(t, err)
			assert.Equal(t, CodeAlreadyExists, res.Code)
			assert.Equal(t, "Folder already exists.", res.Message)

			assert.Equal(t, []string{"alpha"}, listNames(t, g, "/"))
			assert.Equal(t, []string{"inner"}, listNames(t, g, "/alpha"))
		})
	}
}

func TestCreateFolder_InvalidNames(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()

	for _, c := range []string{`\`, "/", ":", "*", "?", `"`, "<", ">", "|"} {
		res, err := g.CreateFolder(ctx, "/", "foo"+c)
		require.NoError(t, err)
		assert.Equal(t, CodeInvalidName, res.Code, "name %q", "foo"+c)
		assert.Equal(t, "Invalid folder name.", res.Message)
	}
	for _, name := range []string{"", ".", ".."} {
		res, err := g.CreateFolder(ctx, "/", name)
		require.NoError(t, err)
		assert.Equal(t, CodeInvalidName, res.Code, "name %q", name)
	}
	assert.Empty(t, listNames(t, g, "/"))
}

func TestCreate_ValidationOrder(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()
	mustFile(t, g, "/file.txt", "x")

	tests := []struct {
		name   string
		parent string
		child  string
		want   Code
	}{
		{"missing parent wins over bad name", "/nope", "a:b", CodeInvalidParent},
		{"parent is a file", "/file.txt", "x", CodeInvalidParent},
		{"bad name wins over collision", "/", "file.txt?", CodeInvalidName},
		{"collision", "/", "file.txt", CodeAlreadyExists},
		{"dot segment parent", "/./", "x", CodeInvalidParent},
		{"dot segment inside parent", "/a/../", "x", CodeInvalidParent},
		{"ok", "/", "new.txt", CodeOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.CreateFile(ctx, tt.parent, tt.child)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Code, res.Message)
		})
	}
}

func TestCreateFile_ZeroLength(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()

	res, err := g.CreateFile(ctx, "/", "empty.css")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "/", res.Parent)
	assert.Equal(t, "empty.css", res.Name)

	assert.Equal(t, "", readText(t, g, "/empty.css"))

	res, err = g.CreateFile(ctx, "/", "empty.css")
	require.NoError(t, err)
	assert.Equal(t, CodeAlreadyExists, res.Code)
	assert.Equal(t, "File already exists.", res.Message)
}

func TestRename_RoundTrip(t *testing.T) {
	for _, s := range testStores() {
		t.Run(s.name, func(t *testing.T) {
			ctx := context.Background()
			g := New(s.open(t), Config{})
			mustFile(t, g, "/test.txt", "foo")

			res, err := g.Rename(ctx, "/test.txt", "foo.txt")
			require.NoError(t, err)
			require.True(t, res.OK(), res.Message)
			assert.Equal(t, "/", res.OldParent)
			assert.Equal(t, "test.txt", res.OldName)
			assert.Equal(t, "/", res.NewParent)
			assert.Equal(t, "foo.txt", res.NewName)

			assert.Equal(t, []string{"foo.txt"}, listNames(t, g, "/"))
			assert.Equal(t, "foo", readText(t, g, "/foo.txt"))
		})
	}
}

func TestRename_CollisionPreservesOriginal(t *testing.T) {
	for _, s := range testStores() {
		t.Run(s.name, func(t *testing.T) {
			ctx := context.Background()
			g := New(s.open(t), Config{})
			mustFile(t, g, "/test.txt", "foo")
			mustFile(t, g, "/foo.txt", "bar")

			res, err := g.Rename(ctx, "/test.txt", "foo.txt")
			require.NoError(t, err)
			assert.Equal(t, CodeAlreadyExists, res.Code)
			assert.Equal(t, "bar", readText(t, g, "/foo.txt"))
			assert.Equal(t, "foo", readText(t, g, "/test.txt"))
		})
	}
}

func TestRename_EdgeCases(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()
	mustFolder(t, g, "/", "dir")
	mustFile(t, g, "/dir/a.txt", "a")

	tests := []struct {
		name    string
		path    string
		newName string
		want    Code
	}{
		{"same name is a no-op", "/dir/a.txt", "a.txt", CodeOK},
		{"missing parent", "/nope/a.txt", "b.txt", CodeInvalidParent},
		{"missing source", "/dir/zzz.txt", "b.txt", CodeNotFound},
		{"invalid new name", "/dir/a.txt", "b|c", CodeInvalidName},
		{"root", "/", "x", CodeInvalidPath},
		{"dot in parent", "/dir/../a.txt", "b.txt", CodeInvalidParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.Rename(ctx, tt.path, tt.newName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Code, res.Message)
		})
	}
	assert.Equal(t, []string{"a.txt"}, listNames(t, g, "/dir"))
}

func TestMove_Semantics(t *testing.T) {
	for _, s := range testStores() {
		t.Run(s.name, func(t *testing.T) {
			ctx := context.Background()
			g := New(s.open(t), Config{})
			mustFolder(t, g, "/", "alpha")
			mustFile(t, g, "/test.txt", "foo")

			res, err := g.Move(ctx, "/test.txt", "/alpha")
			require.NoError(t, err)
			require.True(t, res.OK(), res.Message)
			assert.Equal(t, "/alpha/test.txt", res.NewPath)

			assert.Equal(t, []string{"alpha"}, listNames(t, g, "/"))
			assert.Equal(t, "foo", readText(t, g, "/alpha/test.txt"))
		})
	}
}

func TestMove_CollisionLeavesBothSides(t *testing.T) {
	for _, s := range testStores() {
		t.Run(s.name, func(t *testing.T) {
			ctx := context.Background()
			g := New(s.open(t), Config{})
			mustFolder(t, g, "/", "alpha")
			mustFile(t, g, "/alpha/test.txt", "bar")
			mustFile(t, g, "/test.txt", "foo")

			res, err := g.Move(ctx, "/test.txt", "/alpha")
			require.NoError(t, err)
			assert.Equal(t, CodeAlreadyExists, res.Code)
			assert.Equal(t, "/alpha/test.txt", res.NewPath)

			assert.Equal(t, "foo", readText(t, g, "/test.txt"))
			assert.Equal(t, "bar", readText(t, g, "/alpha/test.txt"))
		})
	}
}

func TestMove_ErrorPrecedence(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()
	mustFolder(t, g, "/", "src")
	mustFolder(t, g, "/", "dst")
	mustFolder(t, g, "/src", "child")
	mustFile(t, g, "/src/a.txt", "a")

	tests := []struct {
		name    string
		path    string
		dir     string
		want    Code
		newPath string
	}{
		{"both missing reports source parent", "/nope/a.txt", "/gone", CodeInvalidParent, "/gone/a.txt"},
		{"missing destination", "/src/a.txt", "/gone", CodeDestinationNotFound, "/gone/a.txt"},
		{"missing source", "/src/b.txt", "/dst", CodeSourceNotFound, "/dst/b.txt"},
		{"destination is a file", "/src/child", "/src/a.txt", CodeDestinationNotFound, "/src/a.txt/child"},
		{"same parent", "/src/a.txt", "/src", CodeAlreadyExists, "/src/a.txt"},
		{"into itself", "/src", "/src/child", CodeInvalidPath, "/src/child/src"},
		{"root", "/", "/dst", CodeInvalidPath, "/dst"},
		{"to root", "/src/a.txt", "/", CodeOK, "/a.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.Move(ctx, tt.path, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Code, res.Message)
			assert.Equal(t, tt.newPath, res.NewPath)
		})
	}
}

func TestMove_KeepsSubtree(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()
	mustFolder(t, g, "/", "a")
	mustFolder(t, g, "/a", "b")
	mustFile(t, g, "/a/b/deep.txt", "deep")
	mustFolder(t, g, "/", "target")

	res, err := g.Move(ctx, "/a", "/target")
	require.NoError(t, err)
	require.True(t, res.OK(), res.Message)

	assert.Equal(t, "deep", readText(t, g, "/target/a/b/deep.txt"))
	assert.Equal(t, []string{"target"}, listNames(t, g, "/"))
}

func TestDelete_Recursive(t *testing.T) {
	for _, s := range testStores() {
		t.Run(s.name, func(t *testing.T) {
			ctx := context.Background()
			g := New(s.open(t), Config{})
			mustFolder(t, g, "/", "keep")
			mustFolder(t, g, "/", "doomed")
			mustFolder(t, g, "/doomed", "sub")
			mustFile(t, g, "/doomed/sub/x.txt", "x")
			mustFile(t, g, "/doomed/y.txt", "y")

			res, err := g.Delete(ctx, "/doomed")
			require.NoError(t, err)
			require.True(t, res.OK(), res.Message)
			assert.Equal(t, "/doomed", res.Path)

			assert.Equal(t, []string{"keep"}, listNames(t, g, "/"))

			read, err := g.Read(ctx, "/doomed/sub/x.txt")
			require.NoError(t, err)
			assert.Equal(t, CodeNotFound, read.Code)
		})
	}
}

func TestDelete_EdgeCases(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()
	mustFolder(t, g, "/", "dir")

	tests := []struct {
		name string
		path string
		want Code
	}{
		{"missing parent", "/nope/x", CodeInvalidParent},
		{"missing name", "/dir/x", CodeNotFound},
		{"root", "/", CodeInvalidPath},
		{"dot name", "/dir/..", CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.Delete(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Code, res.Message)
			assert.NotEmpty(t, res.Message)
		})
	}
	assert.Equal(t, []string{"dir"}, listNames(t, g, "/"))
}

func TestList_DirectoriesFirst(t *testing.T) {
	for _, s := range testStores() {
		t.Run(s.name, func(t *testing.T) {
			g := New(s.open(t), Config{})
			mustFile(t, g, "/z.txt", "z")
			mustFolder(t, g, "/", "b")
			mustFile(t, g, "/a.txt", "a")
			mustFolder(t, g, "/", "a")
			mustFile(t, g, "/m.txt", "m")

			assert.Equal(t, []string{"b", "a", "z.txt", "a.txt", "m.txt"}, listNames(t, g, "/"))
		})
	}
}

func TestList_NotFound(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()
	mustFile(t, g, "/f.txt", "f")

	for _, p := range []string{"/missing", "/f.txt", "/./", "/a/../", "/missing//x"} {
		res, err := g.List(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, CodeNotFound, res.Code, "path %q", p)
		assert.Equal(t, "File not found.", res.Message)
		assert.NotNil(t, res.Items)
	}
}

func TestList_HidesPatterns(t *testing.T) {
	g := newTestGateway(t, Config{Hidden: []string{"*.bak", "private/"}})
	ctx := context.Background()
	mustFolder(t, g, "/", "private")
	mustFolder(t, g, "/", "public")
	mustFile(t, g, "/notes.bak", "old")
	mustFile(t, g, "/notes.txt", "new")
	mustFile(t, g, "/public/x.bak", "old")

	assert.Equal(t, []string{"public", "notes.txt"}, listNames(t, g, "/"))
	assert.Empty(t, listNames(t, g, "/public"))

	// Hidden entries stay addressable.
	assert.Equal(t, "old", readText(t, g, "/notes.bak"))
	res, err := g.List(ctx, "/private")
	require.NoError(t, err)
	assert.True(t, res.OK())
}

func TestInspect(t *testing.T) {
	g := newTestGateway(t, Config{PreviewBaseURL: "http://host/theme/"})
	ctx := context.Background()
	mustFolder(t, g, "/", "css")
	mustFile(t, g, "/css/site.css", strings.Repeat("x", 2048))

	s, err := g.Inspect(ctx, "/css/site.css")
	require.NoError(t, err)
	require.True(t, s.OK())
	assert.Equal(t, "site.css", s.Filename)
	assert.Equal(t, "/css/site.css", s.Path)
	assert.Equal(t, "css", s.FileType)
	assert.Equal(t, "http://host/theme/images/fileicons/css.png", s.Preview)
	assert.Equal(t, "2kb", s.Properties.Size)
	require.NotNil(t, s.Properties.DateModified)
	assert.Nil(t, s.Properties.Width)

	s, err = g.Inspect(ctx, "/css/")
	require.NoError(t, err)
	assert.Equal(t, "/css", s.Path)
	assert.Equal(t, "dir", s.FileType)
	assert.Equal(t, "http://host/theme/images/fileicons/_Open.png", s.Preview)

	s, err = g.Inspect(ctx, "/")
	require.NoError(t, err)
	assert.True(t, s.OK())
	assert.Equal(t, "/", s.Path)

	s, err = g.Inspect(ctx, "/css/missing.css")
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, s.Code)
}

func TestRead(t *testing.T) {
	g := newTestGateway(t, Config{PreviewBaseURL: "http://host"})
	ctx := context.Background()
	mustFolder(t, g, "/", "img")

	up := &Upload{Filename: "logo.png", Body: bytes.NewReader(pngData(t, 3, 2))}
	ures, err := g.Upload(ctx, "/img", up, "")
	require.NoError(t, err)
	require.True(t, ures.OK(), ures.Message)

	bin := &Upload{Filename: "blob.dat", Body: bytes.NewReader([]byte{0xff, 0xfe, 0x00})}
	ures, err = g.Upload(ctx, "/", bin, "")
	require.NoError(t, err)
	require.True(t, ures.OK(), ures.Message)

	t.Run("image returns metadata", func(t *testing.T) {
		res, err := g.Read(ctx, "/img/logo.png")
		require.NoError(t, err)
		require.True(t, res.OK())
		assert.Equal(t, "png", res.Ext)
		assert.Nil(t, res.Contents)
		require.NotNil(t, res.Info)
		require.NotNil(t, res.Info.Properties.Width)
		assert.Equal(t, 3, *res.Info.Properties.Width)
		assert.Equal(t, 2, *res.Info.Properties.Height)
		assert.Equal(t, "http://host/img/logo.png", res.Info.Preview)
	})

	t.Run("undecodable returns metadata", func(t *testing.T) {
		res, err := g.Read(ctx, "/blob.dat")
		require.NoError(t, err)
		require.True(t, res.OK())
		assert.Nil(t, res.Contents)
		require.NotNil(t, res.Info)
		assert.Equal(t, "http://host/images/fileicons/default.png", res.Info.Preview)
	})

	t.Run("directory", func(t *testing.T) {
		res, err := g.Read(ctx, "/img")
		require.NoError(t, err)
		assert.Equal(t, CodeInvalidPath, res.Code)
	})

	t.Run("missing", func(t *testing.T) {
		res, err := g.Read(ctx, "/img/none.txt")
		require.NoError(t, err)
		assert.Equal(t, CodeNotFound, res.Code)
	})
}

func TestWrite(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()
	mustFolder(t, g, "/", "dir")

	res, err := g.Write(ctx, "/dir/a.css", "  body {\r\n  color: red;\r\n}\r\n\n", false)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "/dir/a.css", res.Path)
	assert.Equal(t, "body {\n  color: red;\n}", readText(t, g, "/dir/a.css"))

	mustFile(t, g, "/dir/a.css", "replaced")
	assert.Equal(t, "replaced", readText(t, g, "/dir/a.css"))

	tests := []struct {
		name string
		path string
		want Code
	}{
		{"directory", "/dir", CodeInvalidPath},
		{"root", "/", CodeInvalidPath},
		{"missing parent", "/nope/a.css", CodeInvalidParent},
		{"invalid new name", "/dir/a?.css", CodeInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.Write(ctx, tt.path, "x", false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Code, res.Message)
		})
	}
}

func TestWrite_RelativeURLs(t *testing.T) {
	g := newTestGateway(t, Config{RelativeURLsBase: "http://example.com/theme"})
	ctx := context.Background()
	mustFolder(t, g, "/", "css")

	css := `a { background: url("http://example.com/theme/img/bg.png"); }
b { background: url(http://other.org/x.png); }
c { background: url(img/local.png); }`
	res, err := g.Write(ctx, "/css/site.css", css, true)
	require.NoError(t, err)
	require.True(t, res.OK())

	got := readText(t, g, "/css/site.css")
	assert.Contains(t, got, `url("../img/bg.png")`)
	assert.Contains(t, got, `url(http://other.org/x.png)`)
	assert.Contains(t, got, `url(img/local.png)`)

	res, err = g.Write(ctx, "/css/plain.css", css, false)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Contains(t, readText(t, g, "/css/plain.css"), "http://example.com/theme/img/bg.png")
}

func TestRelPath(t *testing.T) {
	tests := []struct {
		from, to, want string
	}{
		{"/theme/css", "/theme/img/bg.png", "../img/bg.png"},
		{"/theme", "/theme/img/bg.png", "img/bg.png"},
		{"/", "/a/b", "a/b"},
		{"/a/b/c", "/x", "../../../x"},
		{"/a", "/a", "."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relPath(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestDownload(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()
	payload := []byte{0x00, 0x01, 0xff}
	mustFolder(t, g, "/", "bin")
	_, err := g.Upload(ctx, "/bin", &Upload{Filename: "raw.dat", Body: bytes.NewReader(payload)}, "")
	require.NoError(t, err)

	res, err := g.Download(ctx, "/bin/raw.dat")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "raw.dat", res.Name)
	assert.Equal(t, payload, res.Data)

	res, err = g.Download(ctx, "/bin/none")
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, res.Code)

	res, err = g.Download(ctx, "/bin")
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidPath, res.Code)
}

func TestTree(t *testing.T) {
	g := newTestGateway(t, Config{Hidden: []string{"*.tmp"}})
	ctx := context.Background()
	mustFolder(t, g, "/", "css")
	mustFile(t, g, "/css/a.css", "a")
	mustFile(t, g, "/index.html", "i")
	mustFile(t, g, "/scratch.tmp", "s")

	res, err := g.Tree(ctx, false)
	require.NoError(t, err)
	root := res.Root
	assert.Equal(t, "/", root.Key)
	assert.True(t, root.Expand)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "css", root.Children[0].Title)
	assert.Equal(t, "/css", root.Children[0].Key)
	assert.True(t, root.Children[0].IsFolder)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, "/css/a.css", root.Children[0].Children[0].Key)
	assert.Equal(t, "/index.html", root.Children[1].Key)

	res, err = g.Tree(ctx, true)
	require.NoError(t, err)
	require.Len(t, res.Root.Children, 1)
	assert.Empty(t, res.Root.Children[0].Children)
}

func TestDataTree(t *testing.T) {
	g := newTestGateway(t, Config{})
	ctx := context.Background()
	mustFile(t, g, "/index.html", "i")
	mustFolder(t, g, "/", "css")
	mustFile(t, g, "/css/a.css", "a")

	res, err := g.DataTree(ctx)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)

	file, ok := res.Items[0].(Summary)
	require.True(t, ok)
	assert.Equal(t, "/index.html", file.Path)

	folder, ok := res.Items[1].(DataTreeItem)
	require.True(t, ok)
	assert.Equal(t, "css", folder.Label)
	assert.True(t, folder.Folder)
	assert.Equal(t, "/css", folder.Path)
	require.Len(t, folder.Children, 1)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0kb"},
		{1023, "0kb"},
		{1024, "1kb"},
		{1024*1024 - 1, "1023kb"},
		{1024 * 1024, "1mb"},
		{5*1024*1024 + 10, "5mb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.size), "size %d", tt.size)
	}
}
