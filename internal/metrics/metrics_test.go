package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetrics tests recording and exposition.
func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("counters record observations", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.ObserveFetch(120 * time.Millisecond)
		m.ObserveFetch(80 * time.Millisecond)
		m.ObserveStored()
		m.ObserveFailure("fetch", "Timeout")
		m.SetFrontier(5, 2)
		m.ObserveSearch(SearchOK)

		if got := testutil.ToFloat64(m.PagesFetched); got != 2 {
			t.Errorf("pages fetched = %v, want 2", got)
		}
		if got := testutil.ToFloat64(m.PagesStored); got != 1 {
			t.Errorf("pages stored = %v, want 1", got)
		}
		if got := testutil.ToFloat64(m.PagesFailed.WithLabelValues("fetch", "Timeout")); got != 1 {
			t.Errorf("pages failed = %v, want 1", got)
		}
		if got := testutil.ToFloat64(m.FrontierQueued); got != 5 {
			t.Errorf("frontier queued = %v, want 5", got)
		}
		if got := testutil.ToFloat64(m.SearchRequests.WithLabelValues(SearchOK)); got != 1 {
			t.Errorf("search requests = %v, want 1", got)
		}
	})

	t.Run("nil metrics are a no-op", func(t *testing.T) {
		t.Parallel()

		var m *Metrics
		m.ObserveFetch(time.Second)
		m.ObserveStored()
		m.ObserveFailure("store", "WriteFailed")
		m.SetFrontier(1, 1)
		m.ObserveSearch(SearchError)
	})

	t.Run("two instances do not collide", func(t *testing.T) {
		t.Parallel()

		a, b := New(), New()
		a.ObserveStored()
		if got := testutil.ToFloat64(b.PagesStored); got != 0 {
			t.Errorf("expected independent registries, got %v", got)
		}
	})

	t.Run("handler exposes metrics", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.ObserveStored()

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body, err := io.ReadAll(rec.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if !strings.Contains(string(body), "textcrawl_pages_stored_total 1") {
			t.Errorf("expected stored counter in output:\n%s", body)
		}
	})
}
