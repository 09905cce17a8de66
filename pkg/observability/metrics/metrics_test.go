package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveMergeCountsDecisions(t *testing.T) {
	m := New()

	m.ObserveMerge("patient", 3, 1, 2, 10*time.Millisecond, nil)
	m.ObserveMerge("patient", 0, 0, 0, time.Millisecond, errors.New("store down"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.MergeDecisions.WithLabelValues("patient", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MergeDecisions.WithLabelValues("patient", "skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MergeDecisions.WithLabelValues("patient", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MergeBatches.WithLabelValues("patient", "failed")))
}

func TestObserveSearchCountsFailures(t *testing.T) {
	m := New()

	m.ObserveSearch("v2", time.Millisecond, 4, nil)
	m.ObserveSearch("v2", time.Millisecond, 0, errors.New("filter failed"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchFailures.WithLabelValues("v2")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveMerge("protocol", 1, 0, 0, time.Second, nil)
		m.ObserveSearch("v1", time.Second, 1, nil)
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveSearch("v1", time.Millisecond, 2, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "clinic_sync_search_duration_seconds"))
}
