package receipt

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zombor/recibos/internal/extraction"
)

// Metrics records processing counters on its own registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	processed *prometheus.CounterVec
	failures  *prometheus.CounterVec
	missing   *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with Go runtime metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recibos",
			Name:      "receipts_processed_total",
			Help:      "Receipts parsed, by document kind and field source.",
		}, []string{"kind", "source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recibos",
			Name:      "processing_failures_total",
			Help:      "Receipts that could not be processed, by stage.",
		}, []string{"stage"}),
		missing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recibos",
			Name:      "fields_missing_total",
			Help:      "Parsed receipts lacking a field.",
		}, []string{"field"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recibos",
			Name:      "processing_seconds",
			Help:      "Time spent recognising and parsing one upload.",
			Buckets:   []float64{.5, 1, 2, 5, 10, 20, 40, 80},
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.processed, m.failures, m.missing, m.duration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeParsed(kind extraction.DocumentKind, data *extraction.ParsedReceiptData, took time.Duration) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(string(kind), string(data.Source)).Inc()
	m.duration.Observe(took.Seconds())
	if data.MerchantName == nil {
		m.missing.WithLabelValues("merchant").Inc()
	}
	if data.TotalValue == nil {
		m.missing.WithLabelValues("total").Inc()
	}
	if data.DateDetected == nil {
		m.missing.WithLabelValues("date").Inc()
	}
	if data.Categoria == nil {
		m.missing.WithLabelValues("category").Inc()
	}
}

func (m *Metrics) observeFailure(stage string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage).Inc()
}
