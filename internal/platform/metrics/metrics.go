package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics exposes counters/histograms for inbound webhook processing.
type WebhookMetrics struct {
	requestsTotal  *prometheus.CounterVec
	fallbacksTotal *prometheus.CounterVec
	processing     *prometheus.HistogramVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadhook",
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Total inbound webhook deliveries by mode and outcome",
		}, []string{"mode", "outcome"}),
		fallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadhook",
			Subsystem: "webhook",
			Name:      "fallbacks_total",
			Help:      "Remote processing failures recovered by local processing",
		}, []string{"reason"}),
		processing: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadhook",
			Subsystem: "webhook",
			Name:      "processing_seconds",
			Help:      "Latency of webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.fallbacksTotal, m.processing)
	return m
}

func (m *WebhookMetrics) ObserveRequest(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(mode, outcome).Inc()
	m.processing.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *WebhookMetrics) ObserveFallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(reason).Inc()
}
