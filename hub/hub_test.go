package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-efficientnet/weights"
)

// testArtifact serves payload over httptest and returns a weight entry whose
// checksum matches it, plus a counter of download hits.
func testArtifact(t *testing.T, payload []byte) (*weights.Entry, *httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	entry := &weights.Entry{
		Name:     "efficientnet-b0/imagenet1k-test-v1",
		Arch:     "efficientnet-b0",
		URL:      server.URL + "/efficientnet_b0_test-deadbeef.onnx",
		Checksum: digest.FromBytes(payload).Encoded()[:8],
		Size:     int64(len(payload)),
	}
	return entry, server, &hits
}

// TestFetchDownloadsAndCaches validates a cold fetch transfers and verifies
// the artifact, and a warm fetch is served from the cache without touching
// the network.
func TestFetchDownloadsAndCaches(t *testing.T) {
	payload := []byte("pretend this is an onnx graph")
	entry, _, hits := testArtifact(t, payload)

	opts := &Options{CacheDir: t.TempDir(), DisableProgress: true}

	path, err := Fetch(context.Background(), entry, opts)
	require.NoError(t, err, "cold fetch should succeed")
	assert.Equal(t, filepath.Join(opts.CacheDir, entry.Filename()), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data, "cached file should hold the artifact bytes")

	path2, err := Fetch(context.Background(), entry, opts)
	require.NoError(t, err, "warm fetch should succeed")
	assert.Equal(t, path, path2)
	assert.Equal(t, int64(1), hits.Load(), "warm fetch must not re-download")
}

// TestFetchRefetchesCorruptCache validates a cached file that fails
// verification is replaced instead of returned.
func TestFetchRefetchesCorruptCache(t *testing.T) {
	payload := []byte("the genuine checkpoint")
	entry, _, hits := testArtifact(t, payload)

	opts := &Options{CacheDir: t.TempDir(), DisableProgress: true}
	dest := filepath.Join(opts.CacheDir, entry.Filename())
	require.NoError(t, os.WriteFile(dest, []byte("bitrot"), 0o644))

	path, err := Fetch(context.Background(), entry, opts)
	require.NoError(t, err, "fetch should replace the corrupt file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, int64(1), hits.Load())
}

// TestFetchChecksumMismatch validates a server handing back the wrong bytes
// produces ErrChecksumMismatch and leaves nothing in the cache.
func TestFetchChecksumMismatch(t *testing.T) {
	entry, _, _ := testArtifact(t, []byte("what the server actually has"))
	entry.Checksum = "00000000"

	opts := &Options{CacheDir: t.TempDir(), DisableProgress: true, Retries: 2}

	_, err := Fetch(context.Background(), entry, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	_, statErr := os.Stat(filepath.Join(opts.CacheDir, entry.Filename()))
	assert.True(t, os.IsNotExist(statErr), "mismatched artifact must not land in the cache")
}

// TestFetchClientError validates 4xx responses fail fast instead of
// retrying.
func TestFetchClientError(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	entry := &weights.Entry{
		Name:     "efficientnet-b0/imagenet1k-test-v1",
		Arch:     "efficientnet-b0",
		URL:      server.URL + "/missing.onnx",
		Checksum: "deadbeef",
	}

	_, err := Fetch(context.Background(), entry, &Options{
		CacheDir:        t.TempDir(),
		DisableProgress: true,
		Retries:         3,
	})
	require.Error(t, err)
	assert.Equal(t, int64(1), hits.Load(), "a 404 should not be retried")
}

// TestFetchServerErrorRetries validates 5xx responses are retried until the
// server recovers.
func TestFetchServerErrorRetries(t *testing.T) {
	payload := []byte("eventually consistent artifact")
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	entry := &weights.Entry{
		Name:     "efficientnet-b2/imagenet1k-test-v1",
		Arch:     "efficientnet-b2",
		URL:      server.URL + "/efficientnet_b2_test.onnx",
		Checksum: digest.FromBytes(payload).Encoded()[:8],
	}

	path, err := Fetch(context.Background(), entry, &Options{
		CacheDir:        t.TempDir(),
		DisableProgress: true,
		Retries:         5,
	})
	require.NoError(t, err, "fetch should survive transient server errors")
	assert.Equal(t, int64(3), hits.Load())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

// TestFetchCancelledContext validates cancellation aborts before any
// network activity.
func TestFetchCancelledContext(t *testing.T) {
	entry, _, hits := testArtifact(t, []byte("never fetched"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch(ctx, entry, &Options{CacheDir: t.TempDir(), DisableProgress: true})
	require.Error(t, err, "a cancelled context should abort the fetch")
	assert.Equal(t, int64(0), hits.Load())
}

// TestFetchNilEntry validates the nil guard.
func TestFetchNilEntry(t *testing.T) {
	_, err := Fetch(context.Background(), nil, &Options{CacheDir: t.TempDir(), DisableProgress: true})
	assert.Error(t, err)
}

// TestDefaultCacheDir validates the cache lands under the platform cache
// root with the org prefix.
func TestDefaultCacheDir(t *testing.T) {
	dir, err := DefaultCacheDir()
	require.NoError(t, err)
	assert.Contains(t, dir, filepath.Join("nvr-ai", "efficientnet"))
}
