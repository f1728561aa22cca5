package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBackendRequest(t *testing.T) {
	m := New()
	m.ObserveBackendRequest(http.MethodGet, "/ciclos", "200", 20*time.Millisecond)
	m.ObserveBackendRequest(http.MethodGet, "/ciclos", "404", 10*time.Millisecond)
	m.ObserveBackendRequest(http.MethodPost, "/usuarios", "timeout", time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.backendTotal.WithLabelValues(http.MethodGet, "/ciclos", "200")))
	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap.BackendRequests)
	assert.Equal(t, uint64(2), snap.BackendFailures)
	assert.Greater(t, snap.AverageRequestDurationMs, 0.0)
}

func TestRecordCacheOperation(t *testing.T) {
	m := New()
	m.RecordCacheOperation(false)
	m.RecordCacheOperation(true)
	m.RecordCacheOperation(true)

	assert.InDelta(t, 2.0/3.0, testutil.ToFloat64(m.cacheHitRatio), 0.0001)
	assert.Equal(t, uint64(2), m.Snapshot().SubjectCacheHits)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveBackendRequest(http.MethodGet, "/x", "200", time.Millisecond)
	m.RecordCacheOperation(true)
	m.ObserveBulk("grades.create_bulk", 1, 0)
	assert.Equal(t, Snapshot{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveBulk("enrollments.enroll_multiple", 2, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sicali_bulk_items_total")
}
