package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "attendance"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	ticks            *prom.CounterVec
	transitions      *prom.CounterVec
	deliveries       *prom.CounterVec
	deliveryDuration *prom.HistogramVec
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{
		ticks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Poll ticks by result",
		}, []string{"result"}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Detected presence transitions by direction",
		}, []string{"direction"}),
		deliveries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Notification deliveries by provider and outcome",
		}, []string{"provider", "outcome"}),
		deliveryDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Time spent in a provider send call",
			Buckets:   prom.DefBuckets,
		}, []string{"provider"}),
	}

	reg.MustRegister(pr.ticks, pr.transitions, pr.deliveries, pr.deliveryDuration)

	return pr
}

// IncTick implements Recorder.
func (p *PrometheusRecorder) IncTick(result TickResult) {
	if p == nil {
		return
	}

	p.ticks.WithLabelValues(string(result)).Inc()
}

// IncTransition implements Recorder.
func (p *PrometheusRecorder) IncTransition(direction string) {
	if p == nil {
		return
	}

	p.transitions.WithLabelValues(direction).Inc()
}

// ObserveDelivery implements Recorder.
func (p *PrometheusRecorder) ObserveDelivery(provider, outcome string, d time.Duration) {
	if p == nil {
		return
	}

	p.deliveries.WithLabelValues(provider, outcome).Inc()
	p.deliveryDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// HTTPHandler serves the metrics gathered by reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
