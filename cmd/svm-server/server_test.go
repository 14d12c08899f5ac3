package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NeKzor/svm/cmd/svm-server/container"
	"github.com/NeKzor/svm/common/bootstrap"
	"github.com/NeKzor/svm/common/config"
	"github.com/NeKzor/svm/common/hasher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx := context.Background()
	tmp := t.TempDir()

	cfg := &config.Config{}
	cfg.Service.Name = "svm-server"
	cfg.Service.Host = "127.0.0.1"
	cfg.Service.Port = 8080
	cfg.Service.LogLevel = "error"
	cfg.Service.LogFormat = "json"
	cfg.Store.KVPath = filepath.Join(tmp, "svm.db")
	cfg.Store.BinRoot = filepath.Join(tmp, "bin")
	cfg.Auth.APIToken = testToken

	components, err := bootstrap.Setup(ctx, "svm-server",
		bootstrap.WithCustomConfig(cfg),
		bootstrap.WithoutTelemetry(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { components.Shutdown(ctx) })

	serviceContainer, err := container.NewContainer(components)
	require.NoError(t, err)
	t.Cleanup(func() { serviceContainer.PageCache.Close() })

	srv := httptest.NewServer(newEcho(serviceContainer))
	t.Cleanup(srv.Close)

	return srv
}

type uploadFile struct {
	name string
	data []byte
	hash string
}

func uploadBody(t *testing.T, fields map[string]string, files []uploadFile) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	for key, value := range fields {
		require.NoError(t, form.WriteField(key, value))
	}
	for i, file := range files {
		hash := file.hash
		if hash == "" {
			hash = hasher.Digest(file.data)
		}
		require.NoError(t, form.WriteField(fmt.Sprintf("hashes[%d]", i), hash))

		part, err := form.CreateFormFile(fmt.Sprintf("files[%d]", i), file.name)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}

	require.NoError(t, form.Close())
	return body, form.FormDataContentType()
}

func canaryFields(count int) map[string]string {
	return map[string]string{
		"version":     "0.0.0-canary",
		"sar_version": "0.0.0-canary-0-g0b4c5d07",
		"system":      "windows",
		"commit":      "0b4c5d07376ed288fe1d2f18d36065c393474480",
		"branch":      "master",
		"count":       fmt.Sprintf("%d", count),
	}
}

func doUpload(t *testing.T, srv *httptest.Server, token string, fields map[string]string, files []uploadFile) *http.Response {
	t.Helper()

	body, contentType := uploadBody(t, fields, files)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestUploadListLatestDownload(t *testing.T) {
	srv := newTestServer(t)

	dll := []byte("dll content")
	pdb := []byte("pdb content")

	resp := doUpload(t, srv, testToken, canaryFields(2), []uploadFile{
		{name: "sar.dll", data: dll},
		{name: "sar.pdb", data: pdb},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var upload struct {
		Inserted int  `json:"inserted"`
		OK       bool `json:"ok"`
	}
	decodeJSON(t, resp, &upload)
	assert.Equal(t, 2, upload.Inserted)
	assert.True(t, upload.OK)

	// Listing by channel and system, newest first, no path field
	resp, err := http.Get(srv.URL + "/api/v1/list/canary/windows")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []map[string]any
	decodeJSON(t, resp, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "sar.pdb", list[0]["name"])
	assert.Equal(t, hasher.Digest(pdb), list[0]["hash"])
	assert.Equal(t, "sar.dll", list[1]["name"])
	assert.Equal(t, hasher.Digest(dll), list[1]["hash"])
	for _, entry := range list {
		assert.NotContains(t, entry, "path")
		assert.NotEmpty(t, entry["date"])
	}

	// Latest pointer of the canary channel
	resp, err = http.Get(srv.URL + "/api/v1/latest/canary")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var latest map[string]any
	decodeJSON(t, resp, &latest)
	assert.Equal(t, "0.0.0-canary", latest["version"])
	assert.Equal(t, "0b4c5d07376ed288fe1d2f18d36065c393474480", latest["commit"])
	assert.Equal(t, "master", latest["branch"])
	assert.NotEmpty(t, latest["date"])

	// Download with integrity headers
	resp, err = http.Get(srv.URL + "/0.0.0-canary/windows/sar.dll")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, hasher.Digest(dll), resp.Header.Get("X-File-Hash"))
	assert.Equal(t, fmt.Sprintf("%d", len(dll)), resp.Header.Get("X-File-Size"))

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, dll, data)
}

func TestUploadHashMismatchLeavesLatestUntouched(t *testing.T) {
	srv := newTestServer(t)

	// First batch succeeds
	resp := doUpload(t, srv, testToken, canaryFields(1), []uploadFile{
		{name: "sar.dll", data: []byte("old dll")},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/v1/latest/canary")
	require.NoError(t, err)
	var before map[string]any
	decodeJSON(t, resp, &before)

	// Second batch has a corrupted file at index 1
	resp = doUpload(t, srv, testToken, canaryFields(2), []uploadFile{
		{name: "sar.dll", data: []byte("new dll")},
		{name: "sar.pdb", data: []byte("new pdb"), hash: hasher.Digest([]byte("corrupted"))},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// The pointer still reflects the first batch
	resp, err = http.Get(srv.URL + "/api/v1/latest/canary")
	require.NoError(t, err)
	var after map[string]any
	decodeJSON(t, resp, &after)
	assert.Equal(t, before, after)
}

func TestUploadAuth(t *testing.T) {
	srv := newTestServer(t)

	// Wrong token
	resp := doUpload(t, srv, "wrong-token", canaryFields(1), []uploadFile{
		{name: "sar.dll", data: []byte("dll")},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Missing Authorization header
	resp = doUpload(t, srv, "", canaryFields(1), []uploadFile{
		{name: "sar.dll", data: []byte("dll")},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Nothing was created
	resp, err := http.Get(srv.URL + "/api/v1/list")
	require.NoError(t, err)
	var list []any
	decodeJSON(t, resp, &list)
	assert.Empty(t, list)

	resp, err = http.Get(srv.URL + "/api/v1/latest/canary")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"invalid version", func(f map[string]string) { f["version"] = "not-a-version" }},
		{"missing sar version", func(f map[string]string) { delete(f, "sar_version") }},
		{"invalid system", func(f map[string]string) { f["system"] = "darwin" }},
		{"missing commit", func(f map[string]string) { delete(f, "commit") }},
		{"missing branch", func(f map[string]string) { delete(f, "branch") }},
		{"count zero", func(f map[string]string) { f["count"] = "0" }},
		{"count too high", func(f map[string]string) { f["count"] = "5" }},
		{"count not a number", func(f map[string]string) { f["count"] = "abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := canaryFields(1)
			tt.mutate(fields)

			resp := doUpload(t, srv, testToken, fields, []uploadFile{
				{name: "sar.dll", data: []byte("dll")},
			})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestUploadMissingFilePart(t *testing.T) {
	srv := newTestServer(t)

	// count says two files but only one part is attached
	resp := doUpload(t, srv, testToken, canaryFields(2), []uploadFile{
		{name: "sar.dll", data: []byte("dll")},
	})
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	resp.Body.Close()

	// The latest pointer must not advance on a partial batch
	resp, err := http.Get(srv.URL + "/api/v1/latest/canary")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestLatestDefaultsToRelease(t *testing.T) {
	srv := newTestServer(t)

	fields := canaryFields(1)
	fields["version"] = "1.0.0"
	fields["sar_version"] = "1.0.0-0-g0b4c5d07"

	resp := doUpload(t, srv, testToken, fields, []uploadFile{
		{name: "sar.dll", data: []byte("dll")},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/v1/latest")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var latest map[string]any
	decodeJSON(t, resp, &latest)
	assert.Equal(t, "1.0.0", latest["version"])
	assert.Equal(t, "release", latest["channel"])
}

func TestDownloadNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/9.9.9/windows/sar.dll")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Unknown system never resolves
	resp, err = http.Get(srv.URL + "/9.9.9/darwin/sar.dll")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t)

	resp := doUpload(t, srv, testToken, canaryFields(1), []uploadFile{
		{name: "sar.dll", data: []byte("dll")},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	html := string(page)
	assert.True(t, strings.Contains(html, "sar.dll"))
	assert.True(t, strings.Contains(html, "0.0.0-canary"))
	assert.True(t, strings.Contains(html, `href="/0.0.0-canary/windows/sar.dll"`))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	decodeJSON(t, resp, &health)
	assert.Equal(t, "ok", health["status"])
}
