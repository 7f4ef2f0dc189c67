package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resourcefm/internal/storage"
	"resourcefm/internal/vfs"
)

const testToken = "s3cret"

func newTestHTTP(t *testing.T) (*httptest.Server, *vfs.Gateway) {
	t.Helper()
	store := storage.NewMemTree()
	t.Cleanup(func() { store.Close() })
	g := vfs.New(store, vfs.Config{Authorizer: vfs.TokenAuthorizer{Token: testToken}})
	srv := httptest.NewServer(NewHTTPServer(g, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, g
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set(HeaderCSRFToken, token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHTTP_Health(t *testing.T) {
	srv, _ := newTestHTTP(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"status": "ok"}, decodeEnvelope(t, resp))

	addr := strings.TrimPrefix(srv.URL, "http://")
	assert.NoError(t, CheckHealth(context.Background(), addr))
}

func TestHTTP_ModeEndpoint(t *testing.T) {
	srv, _ := newTestHTTP(t)

	t.Run("protected mode without token", func(t *testing.T) {
		resp := postForm(t, srv, "/fm", url.Values{"mode": {"addfolder"}, "path": {"/"}, "name": {"docs"}}, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		body := decodeEnvelope(t, resp)
		assert.EqualValues(t, vfs.CodeUnauthorized, body["code"])
	})

	t.Run("token in header", func(t *testing.T) {
		resp := postForm(t, srv, "/fm", url.Values{"mode": {"addfolder"}, "path": {"/"}, "name": {"docs"}}, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "True", resp.Header.Get(HeaderThemeDisabled))
		assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
		assert.Equal(t, vfs.ContentTypeJSON, resp.Header.Get("Content-Type"))

		body := decodeEnvelope(t, resp)
		assert.EqualValues(t, 0, body["code"])
		assert.Equal(t, "docs", body["name"])
	})

	t.Run("token in form field", func(t *testing.T) {
		resp := postForm(t, srv, "/fm", url.Values{
			"mode": {"savefile"}, "path": {"/docs/a.txt"}, "value": {"  hello\r\n"},
			FieldAuthenticator: {testToken},
		}, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 0, decodeEnvelope(t, resp)["code"])
	})

	t.Run("query string read", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/fm?mode=getfile&path=/docs/a.txt")
		require.NoError(t, err)
		defer resp.Body.Close()

		body := decodeEnvelope(t, resp)
		assert.EqualValues(t, 0, body["code"])
		assert.Equal(t, "hello", body["contents"])
		assert.Equal(t, "txt", body["ext"])
	})

	t.Run("request id is echoed", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/fm?mode=getfolder&path=/", nil)
		require.NoError(t, err)
		req.Header.Set(HeaderRequestID, "trace-42")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "trace-42", resp.Header.Get(HeaderRequestID))
	})

	t.Run("unknown mode", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/fm?mode=explode")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeEnvelope(t, resp)
		assert.EqualValues(t, -1, body["code"])
		assert.Equal(t, "Unknown request", body["message"])
	})
}

func TestHTTP_Download(t *testing.T) {
	srv, g := newTestHTTP(t)
	ctx := context.Background()
	_, err := g.Write(ctx, "/report.csv", "a,b\n1,2", false)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/fm?mode=download&path=/report.csv")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, vfs.ContentTypeBinary, resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename=report.csv`, resp.Header.Get("Content-Disposition"))
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", buf.String())

	missing, err := http.Get(srv.URL + "/fm?mode=download&path=/nope.csv")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.EqualValues(t, vfs.CodeNotFound, decodeEnvelope(t, missing)["code"])
}

func TestHTTP_Upload(t *testing.T) {
	srv, g := newTestHTTP(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("mode", "add"))
	require.NoError(t, mw.WriteField("currentpath", "/"))
	require.NoError(t, mw.WriteField(FieldAuthenticator, testToken))
	fw, err := mw.CreateFormFile(FieldUpload, "hello.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("uploaded"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/fm", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, vfs.ContentTypeHTML, resp.Header.Get("Content-Type"))
	var raw bytes.Buffer
	_, err = raw.ReadFrom(resp.Body)
	require.NoError(t, err)
	text := raw.String()
	require.True(t, strings.HasPrefix(text, "<textarea>") && strings.HasSuffix(text, "</textarea>"), text)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSuffix(strings.TrimPrefix(text, "<textarea>"), "</textarea>")), &env))
	assert.EqualValues(t, 0, env["code"])
	assert.Equal(t, "hello.txt", env["name"])

	read, err := g.Read(context.Background(), "/hello.txt")
	require.NoError(t, err)
	require.NotNil(t, read.Contents)
	assert.Equal(t, "uploaded", *read.Contents)
}

func TestHTTP_ActionsEndpoint(t *testing.T) {
	srv, _ := newTestHTTP(t)

	resp := postForm(t, srv, "/actions", url.Values{"action": {"addFolder"}, "path": {"/"}, "name": {"css"}}, testToken)
	assert.EqualValues(t, 0, decodeEnvelope(t, resp)["code"])

	resp = postForm(t, srv, "/actions", url.Values{"action": {"saveFile"}, "path": {"/css/site.css"}, "data": {"body{}"}}, testToken)
	assert.EqualValues(t, 0, decodeEnvelope(t, resp)["code"])

	resp = postForm(t, srv, "/actions", url.Values{"action": {"getFile"}, "path": {"/css/site.css"}}, "")
	body := decodeEnvelope(t, resp)
	assert.Equal(t, "body{}", body["contents"])

	resp = postForm(t, srv, "/actions", url.Values{"action": {"renameFile"}, "path": {"/css/site.css"}, "filename": {"main.css"}}, testToken)
	body = decodeEnvelope(t, resp)
	assert.EqualValues(t, 0, body["code"])
	assert.Equal(t, "main.css", body["newName"])

	get, err := http.Get(srv.URL + "/actions?action=dataTree")
	require.NoError(t, err)
	defer get.Body.Close()
	var tree []map[string]any
	require.NoError(t, json.NewDecoder(get.Body).Decode(&tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "css", tree[0]["label"])
	assert.Equal(t, true, tree[0]["folder"])

	resp = postForm(t, srv, "/actions", url.Values{"action": {"launch"}}, "")
	assert.Equal(t, "True", resp.Header.Get(HeaderThemeDisabled))
	assert.EqualValues(t, -1, decodeEnvelope(t, resp)["code"])
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *vfs.Response
		want int
	}{
		{"unknown", vfs.UnknownResponse("x"), http.StatusOK},
		{"download missing", &vfs.Response{Op: vfs.OpDownload, Result: &vfs.DownloadResult{Status: vfs.Status{Code: vfs.CodeNotFound}}}, http.StatusNotFound},
		{"read missing", &vfs.Response{Op: vfs.OpRead, Result: &vfs.ReadResult{Status: vfs.Status{Code: vfs.CodeNotFound}}}, http.StatusOK},
		{"unauthorized", &vfs.Response{Op: vfs.OpDelete, Result: &vfs.StatusResult{Status: vfs.Status{Code: vfs.CodeUnauthorized}}}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, statusFor(tt.resp))
		})
	}
}
