package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"spinget/internal/platform/metrics"
)

// DefaultFetchWorkers bounds concurrent segment downloads when no explicit
// worker count is configured.
const DefaultFetchWorkers = 4

// Fetcher downloads segments into the on-disk cache with a bounded worker
// pool. A segment whose cache file already exists is a success without any
// network access, which is what makes reruns resume instead of refetch.
type Fetcher struct {
	client  *http.Client
	log     *slog.Logger
	metrics *metrics.Metrics
	workers int
}

// NewFetcher returns a fetcher using client for segment GETs. workers <= 0
// selects DefaultFetchWorkers. metrics may be nil.
func NewFetcher(client *http.Client, log *slog.Logger, m *metrics.Metrics, workers int) *Fetcher {
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}
	return &Fetcher{client: client, log: log, metrics: m, workers: workers}
}

// FetchAll downloads every segment in list concurrently and returns the
// per-segment outcomes plus the aggregate success flag. Failures do not
// cancel sibling downloads; every dispatched segment runs to completion so
// the cache state is accurate for a future retry.
func (f *Fetcher) FetchAll(ctx context.Context, list SegmentList) ([]Outcome, bool) {
	outcomes := make([]Outcome, len(list))
	var mu sync.Mutex

	workers := pool.New().WithMaxGoroutines(f.workers)
	for i, seg := range list {
		i, seg := i, seg
		workers.Go(func() {
			err := f.fetchOne(ctx, seg, len(list))
			mu.Lock()
			outcomes[i] = Outcome{Ordinal: seg.Ordinal, Err: err}
			mu.Unlock()
		})
	}
	workers.Wait()

	ok := true
	for _, out := range outcomes {
		if out.Err != nil {
			ok = false
			f.metrics.IncSegmentFailures()
			f.log.Error("segment fetch failed", "ordinal", out.Ordinal, "error", out.Err)
		}
	}
	return outcomes, ok
}

func (f *Fetcher) fetchOne(ctx context.Context, seg Segment, total int) error {
	if _, err := os.Stat(seg.CacheFile); err == nil {
		f.log.Debug("segment cached", "ordinal", seg.Ordinal, "file", seg.CacheFile)
		f.metrics.IncCacheHits()
		return nil
	}

	f.log.Info("fetching segment", "ordinal", seg.Ordinal, "of", total, "uri", seg.URI)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, seg.URI, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", seg.URI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("get %s: unexpected status %d", seg.URI, resp.StatusCode)
	}

	// Stream into a sibling .part file and rename at the end so an
	// interrupted download can never be mistaken for a valid cache hit.
	part := seg.CacheFile + ".part"
	out, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create %s: %w", part, err)
	}

	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(part)
		return fmt.Errorf("write %s: %w", part, err)
	}
	if err := os.Rename(part, seg.CacheFile); err != nil {
		os.Remove(part)
		return fmt.Errorf("finalize %s: %w", seg.CacheFile, err)
	}

	f.metrics.IncSegmentsDownloaded()
	f.metrics.AddBytesDownloaded(n)
	return nil
}
