package vfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOp(t *testing.T) {
	t.Parallel()

	for _, op := range Ops() {
		got, err := ParseOp(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	got, err := ParseOp("  GetFolder ")
	require.NoError(t, err)
	assert.Equal(t, OpList, got)

	_, err = ParseOp("mkdir")
	assert.Error(t, err)
	assert.Equal(t, "unknown", OpUnknown.String())
}

func TestOpsCoverDispatchTable(t *testing.T) {
	t.Parallel()
	g := New(nil, Config{})
	for _, op := range Ops() {
		assert.Contains(t, g.handlers, op, "no handler for %s", op)
	}
	assert.Len(t, g.handlers, len(Ops()))
}

func TestDefaultProtectedAreMutations(t *testing.T) {
	t.Parallel()
	for _, op := range DefaultProtected() {
		assert.True(t, op.Mutates(), "%s", op)
	}
	assert.False(t, OpList.Mutates())
	assert.False(t, OpDownload.Mutates())
	assert.Len(t, DefaultProtected(), 7)
}

func TestParseOps(t *testing.T) {
	t.Parallel()
	ops, err := ParseOps([]string{"delete", "savefile"})
	require.NoError(t, err)
	assert.Equal(t, []Op{OpDelete, OpWrite}, ops)

	_, err = ParseOps([]string{"delete", "nuke"})
	assert.Error(t, err)
}

func TestCodeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "OK", CodeOK.String())
	assert.Equal(t, "DestinationNotFound", CodeDestinationNotFound.String())
	assert.Equal(t, "UnknownRequest", CodeUnknownRequest.String())
	assert.Equal(t, "Code(42)", Code(42).String())
}

func TestRequestParams(t *testing.T) {
	t.Parallel()

	req := NewRequest("getfolder", map[string]string{
		ParamPath:         "/a",
		ParamRelativeURLs: "",
		ParamFoldersOnly:  "0",
	})
	assert.NotEmpty(t, req.ID)
	assert.NotEqual(t, req.ID, NewRequest("getfolder", nil).ID)

	assert.Equal(t, "/a", req.Param(ParamPath))
	assert.Equal(t, "", req.Param(ParamName))
	assert.True(t, req.HasParam(ParamRelativeURLs))
	assert.False(t, req.HasParam(ParamName))
	assert.False(t, req.Flag(ParamFoldersOnly))

	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"false", false},
		{"FALSE", false},
		{"0", false},
		{"1", true},
		{"true", true},
		{"on", true},
	}
	for _, tt := range tests {
		r := NewRequest("filetree", map[string]string{ParamFoldersOnly: tt.value})
		assert.Equal(t, tt.want, r.Flag(ParamFoldersOnly), "value %q", tt.value)
	}

	var nilReq *Request
	assert.Equal(t, "", nilReq.Param(ParamPath))
	assert.False(t, nilReq.HasParam(ParamPath))
}

func TestTokenAuthorizer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	open := TokenAuthorizer{}
	assert.True(t, open.Authorize(ctx, &Request{}))

	a := TokenAuthorizer{Token: "abc"}
	assert.False(t, a.Authorize(ctx, &Request{}))
	assert.False(t, a.Authorize(ctx, &Request{Token: "abd"}))
	assert.True(t, a.Authorize(ctx, &Request{Token: "abc"}))
}
