package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetricsServiceCacheCollectors(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true, 2*time.Millisecond)
	m.RecordCacheOperation(false, 3*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveCacheWrite(4 * time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, "siap_cache_latency_seconds_count 3")
	assert.Contains(t, body, "siap_cache_write_seconds_count 1")
	assert.Contains(t, body, "siap_cache_hits_total 2")
	assert.Contains(t, body, "siap_cache_misses_total 1")
	assert.Contains(t, body, "siap_cache_hit_ratio 0.6666666666666666")
}

func TestMetricsServiceFileCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordUpload("original")
	m.RecordFileCleanup(true)
	m.RecordFileCleanup(false)
	m.ObserveDBQuery("documents_list", time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `siap_uploaded_files_total{slot="original"} 1`)
	assert.Contains(t, body, `siap_file_cleanup_total{result="error"} 1`)
	assert.Contains(t, body, `siap_db_query_duration_seconds_count{query="documents_list"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveCacheWrite(time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
