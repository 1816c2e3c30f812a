// Package ark talks to a Spinitron ARK style segment archive: per-station
// index playlists addressed by UTC window timestamps, each listing ~30
// minutes of media segment URIs with durations.
package ark

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grafov/m3u8"

	"spinget/internal/capture"
)

// DefaultTimeout bounds a single index or segment request.
const DefaultTimeout = 30 * time.Second

// Client fetches index windows over HTTP. It implements capture.IndexFetcher.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
	userAgent  string
}

// NewClient returns an index client using httpClient. A nil httpClient gets
// a default with a bounded timeout.
func NewClient(httpClient *http.Client, log *slog.Logger, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{httpClient: httpClient, log: log, userAgent: userAgent}
}

// WindowURL expands the station's index template for the given window stamp.
func WindowURL(profile capture.StationProfile, stamp string) string {
	return strings.NewReplacer(
		"{shortcode}", profile.Shortcode,
		"{stamp}", stamp,
	).Replace(profile.IndexURL)
}

// FetchWindow retrieves and parses the index window addressed by stamp.
// A 404 maps to capture.ErrIndexNotFound; any other non-200 status or
// transport failure is a transport error for the run.
func (c *Client) FetchWindow(ctx context.Context, profile capture.StationProfile, stamp string) (capture.Window, error) {
	indexURL := WindowURL(profile, stamp)
	c.log.Debug("fetching index", "url", indexURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return capture.Window{}, fmt.Errorf("build index request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return capture.Window{}, fmt.Errorf("fetch index %s: %w", indexURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return capture.Window{}, fmt.Errorf("%s: %w", indexURL, capture.ErrIndexNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return capture.Window{}, fmt.Errorf("fetch index %s: unexpected status %d", indexURL, resp.StatusCode)
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return capture.Window{}, fmt.Errorf("parse index %s: %w", indexURL, err)
	}
	if listType != m3u8.MEDIA {
		return capture.Window{}, fmt.Errorf("parse index %s: not a media playlist", indexURL)
	}

	media := playlist.(*m3u8.MediaPlaylist)
	base, err := url.Parse(indexURL)
	if err != nil {
		return capture.Window{}, fmt.Errorf("parse index url %s: %w", indexURL, err)
	}

	var window capture.Window
	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		uri, err := resolveURI(base, seg.URI)
		if err != nil {
			return capture.Window{}, fmt.Errorf("index %s: %w", indexURL, err)
		}
		window.Segments = append(window.Segments, capture.WindowSegment{
			URI:      uri,
			Duration: seg.Duration,
		})
	}
	return window, nil
}

// resolveURI resolves a possibly relative segment URI against the index URL.
func resolveURI(base *url.URL, uri string) (string, error) {
	ref, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid segment uri %q: %w", uri, err)
	}
	return base.ResolveReference(ref).String(), nil
}
