package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(client *http.Client) *Fetcher {
	return NewFetcher(client, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, 3)
}

func TestFetcher_FetchAll_downloadsAndStreams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "payload for %s", r.URL.Path)
	}))
	defer server.Close()

	dir := t.TempDir()
	list := SegmentList{
		{Ordinal: 1, URI: server.URL + "/one.ts", Duration: 10, CacheFile: filepath.Join(dir, "s_00001.tmp.mpeg")},
		{Ordinal: 2, URI: server.URL + "/two.ts", Duration: 10, CacheFile: filepath.Join(dir, "s_00002.tmp.mpeg")},
	}

	outcomes, ok := newTestFetcher(server.Client()).FetchAll(context.Background(), list)
	require.True(t, ok)
	require.Len(t, outcomes, 2)

	data, err := os.ReadFile(list[0].CacheFile)
	require.NoError(t, err)
	assert.Equal(t, "payload for /one.ts", string(data))

	// No .part leftovers after a clean run.
	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.part"))
	assert.Empty(t, leftovers)
}

func TestFetcher_FetchAll_cacheHitSkipsNetwork(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprint(w, "fresh")
	}))
	defer server.Close()

	dir := t.TempDir()
	cached := filepath.Join(dir, "s_00001.tmp.mpeg")
	require.NoError(t, os.WriteFile(cached, []byte("stale but present"), 0o644))

	list := SegmentList{{Ordinal: 1, URI: server.URL + "/one.ts", Duration: 10, CacheFile: cached}}

	_, ok := newTestFetcher(server.Client()).FetchAll(context.Background(), list)
	require.True(t, ok)
	assert.Zero(t, atomic.LoadInt32(&requests), "cache hit must not touch the network")

	// The cached content is untouched, whatever it was.
	data, err := os.ReadFile(cached)
	require.NoError(t, err)
	assert.Equal(t, "stale but present", string(data))
}

func TestFetcher_FetchAll_aggregateAndCompletion(t *testing.T) {
	var served int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&served, 1)
		if r.URL.Path == "/bad.ts" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	dir := t.TempDir()
	list := SegmentList{
		{Ordinal: 1, URI: server.URL + "/a.ts", CacheFile: filepath.Join(dir, "1.tmp.mpeg")},
		{Ordinal: 2, URI: server.URL + "/bad.ts", CacheFile: filepath.Join(dir, "2.tmp.mpeg")},
		{Ordinal: 3, URI: server.URL + "/c.ts", CacheFile: filepath.Join(dir, "3.tmp.mpeg")},
	}

	outcomes, ok := newTestFetcher(server.Client()).FetchAll(context.Background(), list)
	assert.False(t, ok, "one failure must make the aggregate false")

	// Every dispatched fetch ran to completion, failure or not.
	assert.Equal(t, int32(3), atomic.LoadInt32(&served))
	require.Len(t, outcomes, 3)
	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)

	// Failed segment left no cache file behind to poison a future resume.
	_, err := os.Stat(list[1].CacheFile)
	assert.True(t, os.IsNotExist(err))

	// Successful siblings are cached normally.
	_, err = os.Stat(list[0].CacheFile)
	assert.NoError(t, err)
}

func TestFetcher_FetchAll_nonOKStatusIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	list := SegmentList{{Ordinal: 1, URI: server.URL + "/x.ts", CacheFile: filepath.Join(t.TempDir(), "x.tmp.mpeg")}}

	outcomes, ok := newTestFetcher(server.Client()).FetchAll(context.Background(), list)
	assert.False(t, ok)
	assert.ErrorContains(t, outcomes[0].Err, "status 404")
}

func TestFetcher_FetchAll_empty(t *testing.T) {
	outcomes, ok := newTestFetcher(http.DefaultClient).FetchAll(context.Background(), nil)
	assert.True(t, ok)
	assert.Empty(t, outcomes)
}
