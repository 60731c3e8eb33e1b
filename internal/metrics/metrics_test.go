package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFacet(t *testing.T) {
	m := NewFacetMetrics()

	m.ObserveFacet("waves", "ready", 0.02)
	m.ObserveFacet("waves", "ready", 0.03)
	m.ObserveFacet("totals", "unavailable", 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.total.WithLabelValues("waves", "ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("totals", "unavailable")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestHandlerExposesFacetMetrics(t *testing.T) {
	m := NewFacetMetrics()
	m.ObserveFacet("summary", "absent", 0.001)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `salmonstats_facet_total{facet="summary",status="absent"} 1`)
	assert.Contains(t, string(body), "salmonstats_facet_duration_seconds_bucket")
}
