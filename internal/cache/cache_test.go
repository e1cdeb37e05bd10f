package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, SchemeHTTP, classify("https://example.com/repo"))
	assert.Equal(t, SchemeS3, classify("s3://bucket/prefix"))
	assert.Equal(t, SchemeSCP, classify("user@host:/path"))
	assert.Equal(t, SchemeLocal, classify("/var/cache/skw"))
}

func TestProbeFetch_Local(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "foo-1.0.tar.xz"), []byte("data"), 0o644))

	c := &Client{HTTP: http.DefaultClient}
	hit, err := c.Probe(context.Background(), repo, "foo-1.0.tar.xz")
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = c.Probe(context.Background(), repo, "missing.tar.xz")
	require.NoError(t, err)
	assert.False(t, hit)

	dest := filepath.Join(t.TempDir(), "out.tar.xz")
	require.NoError(t, c.Fetch(context.Background(), repo, "foo-1.0.tar.xz", dest))
	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))
}

func TestProbeFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/foo-1.0.tar.xz.meta.json" {
			w.WriteHeader(200)
			return
		}
		if r.Method == http.MethodGet && r.URL.Path == "/foo-1.0.tar.xz" {
			w.Write([]byte("archive-bytes"))
			return
		}
		w.WriteHeader(404)
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client()}
	hit, err := c.Probe(context.Background(), srv.URL, "foo-1.0.tar.xz.meta.json")
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = c.Probe(context.Background(), srv.URL, "missing.meta.json")
	require.NoError(t, err)
	assert.False(t, hit)

	dest := filepath.Join(t.TempDir(), "out.tar.xz")
	require.NoError(t, c.Fetch(context.Background(), srv.URL, "foo-1.0.tar.xz", dest))
	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(content))
}

func TestPublish_RejectsHTTP(t *testing.T) {
	c := &Client{HTTP: http.DefaultClient}
	err := c.Publish(context.Background(), "https://example.com/upload", "a", "b")
	require.Error(t, err)
}

func TestPublish_Local(t *testing.T) {
	c := &Client{HTTP: http.DefaultClient}
	src := t.TempDir()
	archive := filepath.Join(src, "foo-1.0.tar.xz")
	meta := filepath.Join(src, "foo-1.0.tar.xz.meta.json")
	require.NoError(t, os.WriteFile(archive, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(meta, []byte("{}"), 0o644))

	repo := filepath.Join(t.TempDir(), "upload")
	require.NoError(t, c.Publish(context.Background(), repo, archive, meta))
	assert.FileExists(t, filepath.Join(repo, "foo-1.0.tar.xz"))
	assert.FileExists(t, filepath.Join(repo, "foo-1.0.tar.xz.meta.json"))
}

func TestFetchSource_VerifiesChecksum(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("source-bytes"))
	}))
	defer srv.Close()

	sum := sha256.Sum256([]byte("source-bytes"))
	checksum := "sha256:" + hex.EncodeToString(sum[:])

	c := &Client{HTTP: srv.Client()}
	scratch := t.TempDir()
	path, err := c.FetchSource(context.Background(), srv.URL+"/foo.tar.gz", checksum, scratch)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "source-bytes", string(content))
}

func TestFetchSource_ChecksumMismatchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("source-bytes"))
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client()}
	scratch := t.TempDir()
	_, err := c.FetchSource(context.Background(), srv.URL+"/foo.tar.gz", "sha256:deadbeef", scratch)
	require.Error(t, err)
}
