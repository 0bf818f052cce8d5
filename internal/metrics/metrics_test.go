package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordApplied("KeyGenerated")
	c.RecordApplied("KeyGenerated")
	c.RecordApplied("KeyActivated")
	c.RecordRejected("INVALID_TRANSITION")
	c.RecordHistory("undo")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.applied.WithLabelValues("KeyGenerated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.applied.WithLabelValues("KeyActivated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rejected.WithLabelValues("INVALID_TRANSITION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.history.WithLabelValues("undo")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.history.WithLabelValues("redo")))
}

func TestCollector_Histograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordKDF(1500 * time.Millisecond)
	c.RecordSubmitLatency(time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]uint64{}
	for _, mf := range families {
		if h := mf.GetMetric()[0].GetHistogram(); h != nil {
			counts[mf.GetName()] = h.GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), counts["keyledger_kdf_duration_seconds"])
	assert.Equal(t, uint64(1), counts["keyledger_submit_latency_seconds"])
}

func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordApplied("KeyGenerated")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	SetupMetricsRoute(reg).ServeHTTP(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "keyledger_events_applied_total")
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordApplied("x")
	r.RecordKDF(time.Second)
}
