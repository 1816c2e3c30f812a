package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetrics_nilSafe(t *testing.T) {
	var m *Metrics
	// None of these may panic on a nil receiver.
	m.IncWindowsFetched()
	m.AddSegmentsDiscovered(3)
	m.IncSegmentsDownloaded()
	m.IncCacheHits()
	m.IncSegmentFailures()
	m.AddBytesDownloaded(1024)
	m.IncCapturesStarted()
	m.IncCapturesSucceeded()
	m.IncCapturesFailed()
}

func TestMetrics_handlerExposesCounters(t *testing.T) {
	m := New()
	m.IncCapturesStarted()
	m.IncSegmentsDownloaded()
	m.AddBytesDownloaded(2048)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		"spinget_captures_started_total 1",
		"spinget_segments_downloaded_total 1",
		"spinget_bytes_downloaded_total 2048",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
