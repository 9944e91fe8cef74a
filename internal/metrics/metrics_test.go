package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAnalysis_Success(t *testing.T) {
	r := NewRegistry()

	r.ObserveAnalysis(AnalysisObservation{
		Source:   "upload",
		Status:   StatusOK,
		Duration: 120 * time.Millisecond,
		Accounts: 9,
		Edges:    12,
		Rings:    2,
		Patterns: []string{"cycle_length_3", "cycle_length_3", "fan_in_high"},
		Cycles:   4,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.AnalysesTotal.WithLabelValues("upload", StatusOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.RingsDetected))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.AccountsFlagged.WithLabelValues("cycle_length_3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.AccountsFlagged.WithLabelValues("fan_in_high")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.CycleTruncations))
	assert.Equal(t, 1, testutil.CollectAndCount(r.AnalysisDuration))
}

func TestObserveAnalysis_FailureOnlyCounts(t *testing.T) {
	r := NewRegistry()

	r.ObserveAnalysis(AnalysisObservation{Source: "json", Status: StatusInvalid, Rings: 3})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.AnalysesTotal.WithLabelValues("json", StatusInvalid)))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.RingsDetected))
	assert.Equal(t, 0, testutil.CollectAndCount(r.AnalysisDuration))
}

func TestObserveAnalysis_Truncated(t *testing.T) {
	r := NewRegistry()

	r.ObserveAnalysis(AnalysisObservation{Source: "ledger", Status: StatusOK, CyclesTruncated: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CycleTruncations))
}

func TestHandler_ExposesEngineMetrics(t *testing.T) {
	r := NewRegistry()
	r.StreamClients.Set(3)
	r.ObserveHTTP("GET", "/api/v1/health", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "ringwatch_stream_clients 3")
	assert.Contains(t, string(body), `ringwatch_http_requests_total{code="200",method="GET",route="/api/v1/health"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
