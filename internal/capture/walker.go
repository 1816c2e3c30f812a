package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spinget/internal/platform/metrics"
)

// WindowSeconds is the span of real content one ARK index window is
// guaranteed to cover. Segments past this point in a window may belong to
// the next window and must be re-discovered at the advanced cursor.
const WindowSeconds = 30 * 60

// WindowSegment is one entry of a fetched index window, in published
// playback order.
type WindowSegment struct {
	URI      string
	Duration float64 // seconds
}

// Window is the parsed contents of one remote index window.
type Window struct {
	Segments []WindowSegment
}

// IndexFetcher retrieves the index window addressed by a WindowStamp
// timestamp. Implementations return ErrIndexNotFound (possibly wrapped) when
// the window does not exist on the remote.
type IndexFetcher interface {
	FetchWindow(ctx context.Context, profile StationProfile, stamp string) (Window, error)
}

// Walker accumulates an ordered segment list by stepping through index
// windows until the required duration is covered.
type Walker struct {
	fetcher  IndexFetcher
	log      *slog.Logger
	metrics  *metrics.Metrics
	cacheDir string
}

// NewWalker returns a walker that discovers segments through fetcher and
// derives cache paths under cacheDir. m may be nil.
func NewWalker(fetcher IndexFetcher, log *slog.Logger, m *metrics.Metrics, cacheDir string) *Walker {
	return &Walker{fetcher: fetcher, log: log, metrics: m, cacheDir: cacheDir}
}

// Accumulate walks windows starting at anchor and returns segments covering
// at least requiredSeconds. Ordinals are assigned 1..N in discovery order.
//
// Any missing or empty window aborts the walk with a nil list: the remote
// does not backfill within a run, so partial coverage cannot be repaired by
// retrying here. The loop is bounded because every iteration either appends
// at least one segment or returns.
func (w *Walker) Accumulate(ctx context.Context, profile StationProfile, anchor Anchor, requiredSeconds int) (SegmentList, error) {
	cursor := anchor.Time()
	required := float64(requiredSeconds)

	var (
		list  SegmentList
		accum float64
	)

	for accum < required {
		stamp := WindowStamp(cursor)
		w.log.Info("fetching index window", "stamp", stamp, "accumulated_s", int(accum), "required_s", requiredSeconds)

		window, err := w.fetcher.FetchWindow(ctx, profile, stamp)
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", stamp, err)
		}
		w.metrics.IncWindowsFetched()
		if len(window.Segments) == 0 {
			return nil, fmt.Errorf("window %s: %w", stamp, ErrIndexEmpty)
		}

		var windowSecs float64
		for _, seg := range window.Segments {
			if windowSecs+seg.Duration > WindowSeconds {
				// Past the window's guaranteed span; the rest belongs to the
				// next window and is re-discovered at the advanced cursor.
				break
			}
			ordinal := len(list) + 1
			list = append(list, Segment{
				Ordinal:   ordinal,
				URI:       seg.URI,
				Duration:  seg.Duration,
				CacheFile: CachePath(w.cacheDir, profile.Shortcode, ordinal, seg.URI),
			})
			windowSecs += seg.Duration
			accum += seg.Duration
			if accum >= required {
				break
			}
		}

		if windowSecs == 0 {
			return nil, fmt.Errorf("window %s: %w", stamp, ErrIndexEmpty)
		}
		if accum < required {
			w.log.Info("window consumed", "stamp", stamp, "window_s", int(windowSecs), "missing_s", int(required-accum))
			cursor = cursor.Add(WindowSeconds * time.Second)
		}
	}

	w.log.Info("segment list complete", "segments", len(list), "total_s", int(list.TotalSeconds()))
	return list, nil
}
