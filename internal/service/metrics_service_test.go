package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/eco-report-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/reports", http.StatusOK, 10*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/reports", http.StatusCreated, 30*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ReportCreated(models.CategoryTrash, models.StatusPending, true)
	m.StatusChanged(models.StatusInProgress, models.StatusResolved, 15)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.RequestsTotal)
	assert.InDelta(t, 20, snap.AverageRequestDurationMs, 0.001)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.001)
	assert.EqualValues(t, 1, snap.ReportsCreated)
	assert.EqualValues(t, 1, snap.Transitions)
	assert.EqualValues(t, 15, snap.PointsCredited)
}

func TestMetricsServiceExposition(t *testing.T) {
	m := NewMetricsService()
	m.EventPublished(models.EventReportCreated, false)
	m.StatusChanged(models.StatusPending, models.StatusRejected, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `eco_report_events_published_total{outcome="error",type="report.created"} 1`)
	assert.Contains(t, body, `eco_report_status_transitions_total{from="PENDING",to="REJECTED"} 1`)
	assert.Contains(t, body, "eco_report_cache_hit_ratio 0")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordCacheOperation(true, 0)
		m.StatusChanged(models.StatusPending, models.StatusInProgress, 0)
	})
	assert.Zero(t, m.Snapshot().RequestsTotal)
}
