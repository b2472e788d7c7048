package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestPrometheusRecorder_Counts checks that every hook reaches its collector.
func TestPrometheusRecorder_Counts(t *testing.T) {
	t.Parallel()

	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncTick(TickBaseline)
	pr.IncTick(TickDiffed)
	pr.IncTick(TickDiffed)
	pr.IncTransition("checkin")
	pr.ObserveDelivery("naver", "delivered", 150*time.Millisecond)
	pr.ObserveDelivery("naver", "failed", time.Second)

	require.InDelta(t, 2, testutil.ToFloat64(pr.ticks.WithLabelValues(string(TickDiffed))), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.transitions.WithLabelValues("checkin")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.deliveries.WithLabelValues("naver", "failed")), 0)
	require.Equal(t, 1, testutil.CollectAndCount(pr.deliveryDuration))

	expected := `
# HELP attendance_transitions_total Detected presence transitions by direction
# TYPE attendance_transitions_total counter
attendance_transitions_total{direction="checkin"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "attendance_transitions_total"))
}

// TestPrometheusRecorder_NilSafe checks that a nil recorder is usable.
func TestPrometheusRecorder_NilSafe(t *testing.T) {
	t.Parallel()

	var pr *PrometheusRecorder

	require.NotPanics(t, func() {
		pr.IncTick(TickStoreError)
		pr.IncTransition("checkout")
		pr.ObserveDelivery("test", "delivered", time.Millisecond)
	})
}

// TestHTTPHandler checks that the registry is exposed.
func TestHTTPHandler(t *testing.T) {
	t.Parallel()

	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncTick(TickBaseline)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `attendance_poll_ticks_total{result="baseline"} 1`)
}

// TestNoopRecorder ensures the no-op recorder satisfies Recorder and ignores every call.
func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	var rec Recorder = NoopRecorder{}

	require.NotPanics(t, func() {
		rec.IncTick(TickBaseline)
		rec.IncTransition("checkin")
		rec.ObserveDelivery("test", "delivered", time.Millisecond)
	})
}
