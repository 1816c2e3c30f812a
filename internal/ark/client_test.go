package ark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinget/internal/capture"
)

const samplePlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:301
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:300.500,
chunk-001.ts
#EXTINF:299.500,
chunk-002.ts
#EXTINF:300.000,
https://cdn.example.com/abs/chunk-003.ts
#EXT-X-ENDLIST
`

func testProfile(baseURL string) capture.StationProfile {
	return capture.StationProfile{
		ID:        "wbor",
		Shortcode: "WBOR",
		IndexURL:  baseURL + "/ark2/{shortcode}-{stamp}/index.m3u8",
		Timezone:  "America/New_York",
	}
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)), "spinget-test")
}

func TestWindowURL(t *testing.T) {
	profile := capture.StationProfile{
		Shortcode: "WXOX",
		IndexURL:  "https://ark3.spinitron.com/ark2/{shortcode}-{stamp}/index.m3u8",
	}
	got := WindowURL(profile, "20211120T100000Z")
	assert.Equal(t, "https://ark3.spinitron.com/ark2/WXOX-20211120T100000Z/index.m3u8", got)
}

func TestClient_FetchWindow_parsesPlaylist(t *testing.T) {
	var gotPath, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, samplePlaylist)
	}))
	defer server.Close()

	c := newTestClient(server)
	window, err := c.FetchWindow(context.Background(), testProfile(server.URL), "20240101T100000Z")
	require.NoError(t, err)

	assert.Equal(t, "/ark2/WBOR-20240101T100000Z/index.m3u8", gotPath)
	assert.Equal(t, "spinget-test", gotAgent)

	require.Len(t, window.Segments, 3)
	assert.InDelta(t, 300.5, window.Segments[0].Duration, 1e-9)
	assert.InDelta(t, 299.5, window.Segments[1].Duration, 1e-9)

	// Relative URIs resolve against the index URL; absolute ones pass through.
	assert.Equal(t, server.URL+"/ark2/WBOR-20240101T100000Z/chunk-001.ts", window.Segments[0].URI)
	assert.Equal(t, "https://cdn.example.com/abs/chunk-003.ts", window.Segments[2].URI)
}

func TestClient_FetchWindow_notFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(server)
	_, err := c.FetchWindow(context.Background(), testProfile(server.URL), "20240101T100000Z")
	assert.ErrorIs(t, err, capture.ErrIndexNotFound)
}

func TestClient_FetchWindow_serverError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server)
	_, err := c.FetchWindow(context.Background(), testProfile(server.URL), "20240101T100000Z")
	require.Error(t, err)
	assert.NotErrorIs(t, err, capture.ErrIndexNotFound)
	assert.ErrorContains(t, err, "status 500")
}

func TestClient_FetchWindow_garbageBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>definitely not a playlist</html>")
	}))
	defer server.Close()

	c := newTestClient(server)
	_, err := c.FetchWindow(context.Background(), testProfile(server.URL), "20240101T100000Z")
	assert.Error(t, err)
}

func TestClient_FetchWindow_transportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	c := NewClient(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), "")
	_, err := c.FetchWindow(context.Background(), testProfile(server.URL), "20240101T100000Z")
	assert.Error(t, err)
}
