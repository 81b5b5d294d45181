package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodPost, "/api/v1/enrollments", http.StatusCreated, 20*time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.RecordEnrollment(true)
	metrics.RecordPromotion(3, 1)
	metrics.RecordGroupCreated("promotion")

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snapshot.EnrollmentsCreated)
	assert.Equal(t, uint64(3), snapshot.StudentsPromoted)
	assert.Equal(t, uint64(1), snapshot.PromotionsSkipped)
	assert.Equal(t, uint64(1), snapshot.GroupsAutoCreated)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `enrollments_created_total{discounted="true"} 1`)
	assert.Contains(t, rec.Body.String(), `groups_auto_created_total{source="promotion"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordEnrollment(false)
	metrics.RecordPromotion(1, 1)
	assert.Equal(t, uint64(0), metrics.Snapshot().EnrollmentsCreated)
}
