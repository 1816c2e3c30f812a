package capture

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ShowRequest describes a single capture: which station, when the show
// started in station-local time, and how long it ran. Immutable once built.
type ShowRequest struct {
	Station string // station id used to look up the profile
	Date    string // MM/DD/YYYY
	Time    string // HH:MM, 24-hour
	Hours   int    // whole hours, 1 or 2
	Keep    bool   // keep segment cache and manifest after a successful mux
}

// StationProfile is the read-only configuration for one station.
type StationProfile struct {
	ID        string
	Shortcode string
	// IndexURL is the ARK index template with {shortcode} and {stamp}
	// placeholders, e.g. "https://ark3.spinitron.com/ark2/{shortcode}-{stamp}/index.m3u8".
	IndexURL string
	Timezone string // IANA zone name, e.g. "America/New_York"
}

// Location loads the profile's IANA timezone.
func (p StationProfile) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("station %s has invalid timezone %q: %w", p.ID, p.Timezone, err)
	}
	return loc, nil
}

// Anchor is the validated UTC instant a capture starts at. It is always
// aligned to a 5-minute boundary and never mutated after resolution.
type Anchor struct {
	t time.Time
}

// NewAnchor wraps t as an anchor, normalizing to UTC. Callers outside the
// resolver use it only in tests.
func NewAnchor(t time.Time) Anchor {
	return Anchor{t: t.UTC()}
}

// Time returns the anchor instant in UTC.
func (a Anchor) Time() time.Time {
	return a.t
}

// WindowStamp formats t the way the ARK index addresses windows:
// YYYYMMDDThhmm00Z. Seconds are hard zeroes because windows only exist on
// 5-minute boundaries.
func WindowStamp(t time.Time) string {
	return t.UTC().Format("20060102T1504") + "00Z"
}

// ShowID is the stamp of the anchor itself, used in output file names.
func (a Anchor) ShowID() string {
	return WindowStamp(a.t)
}

// Segment is one chunk of the broadcast stream as discovered in an index
// window. Ordinal is assigned at discovery time and is the single source of
// truth for concatenation order; download completion order never matters.
type Segment struct {
	Ordinal   int
	URI       string
	Duration  float64 // seconds
	CacheFile string
}

// SegmentList is the ordered result of walking the index. Append-only while
// the walker runs, read-only afterwards.
type SegmentList []Segment

// TotalSeconds sums the listed segment durations.
func (l SegmentList) TotalSeconds() float64 {
	var total float64
	for _, s := range l {
		total += s.Duration
	}
	return total
}

// Outcome records the result of fetching one segment. It feeds the aggregate
// success check and nothing else.
type Outcome struct {
	Ordinal int
	Err     error
}

// CacheFileName derives the cache file name for a segment. It is a pure
// function of (shortcode, ordinal, URI) so that a file left on disk by an
// earlier run is a valid substitute for a network fetch.
func CacheFileName(shortcode string, ordinal int, uri string) string {
	chunk := path.Base(strings.SplitN(uri, "?", 2)[0])
	return fmt.Sprintf("%s_%05d_%s.tmp.mpeg", shortcode, ordinal, chunk)
}

// CachePath joins the cache directory with the derived cache file name.
func CachePath(dir, shortcode string, ordinal int, uri string) string {
	return filepath.Join(dir, CacheFileName(shortcode, ordinal, uri))
}

// Validate checks the request fields the resolver does not cover.
func (r ShowRequest) Validate() error {
	if r.Hours < 1 || r.Hours > 2 {
		return ErrInvalidDuration
	}
	return nil
}

// RequiredSeconds is the capture target duration in seconds.
func (r ShowRequest) RequiredSeconds() int {
	return r.Hours * 3600
}
