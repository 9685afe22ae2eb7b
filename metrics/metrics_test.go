package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLSAFlooded_LabelsSelfAndReflooded(t *testing.T) {
	r := New("R1")

	r.RecordLSAFlooded(true)
	r.RecordLSAFlooded(false)
	r.RecordLSAFlooded(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.LSAsFlooded.WithLabelValues("self")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.LSAsFlooded.WithLabelValues("reflooded")))
}

func TestRecordSPFRun_Increments(t *testing.T) {
	r := New("R1")

	r.RecordSPFRun()
	r.RecordSPFRun()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.SPFRuns))
}

func TestSetNeighborsUp_ReflectsLatestValue(t *testing.T) {
	r := New("R1")

	r.SetNeighborsUp(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(r.NeighborsUp))

	r.SetNeighborsUp(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.NeighborsUp))
}

func TestRecordFIBOperation_LabelsSuccessAndFailure(t *testing.T) {
	r := New("R1")

	r.RecordFIBOperation(true)
	r.RecordFIBOperation(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.FIBOperations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FIBOperations.WithLabelValues("failure")))
}

func TestNewServer_ServesRegisteredMetrics(t *testing.T) {
	r := New("R1")
	r.RecordSPFRun()

	srv := NewServer(":0", r, nil)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	srv.http.Handler.ServeHTTP(recorder, req)

	require.Equal(t, 200, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), "routingd_spf_runs_total"))
}
