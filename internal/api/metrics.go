package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"manifest_parser/internal/extractor"
)

// Result labels of the documents counter.
const (
	resultOK         = "ok"
	resultEmpty      = "empty"
	resultUnreadable = "unreadable"
	resultFailed     = "failed"
)

// Metrics holds the API's Prometheus collectors.
type Metrics struct {
	registry   *prometheus.Registry
	Documents  *prometheus.CounterVec
	Containers prometheus.Counter
	AWBs       prometheus.Counter
	Pieces     prometheus.Counter
	Duration   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manifest",
			Name:      "documents_parsed_total",
			Help:      "Uploaded manifests by outcome.",
		}, []string{"result"}),
		Containers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "manifest",
			Name:      "containers_total",
			Help:      "Containers found in parsed manifests.",
		}),
		AWBs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "manifest",
			Name:      "awbs_total",
			Help:      "Shipment items found in parsed manifests.",
		}),
		Pieces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "manifest",
			Name:      "pieces_total",
			Help:      "Pieces found in parsed manifests.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "manifest",
			Name:      "parse_duration_seconds",
			Help:      "Time spent assembling a manifest after text extraction.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	reg.MustRegister(m.Documents, m.Containers, m.AWBs, m.Pieces, m.Duration)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// observe records a parsed document. Totals are taken before filtering so the
// counters reflect what the document holds.
func (m *Metrics) observe(res *extractor.Result, elapsed time.Duration) {
	m.Duration.Observe(elapsed.Seconds())

	switch {
	case res.Unreadable():
		m.Documents.WithLabelValues(resultUnreadable).Inc()
		return
	case len(res.Document.Records) == 0:
		m.Documents.WithLabelValues(resultEmpty).Inc()
	default:
		m.Documents.WithLabelValues(resultOK).Inc()
	}

	awbs, pieces := 0, 0
	for _, r := range res.Document.Records {
		awbs += len(r.Items)
		pieces += r.TotalPieces()
	}
	m.Containers.Add(float64(len(res.Document.Records)))
	m.AWBs.Add(float64(awbs))
	m.Pieces.Add(float64(pieces))
}

func (m *Metrics) observeFailure() {
	m.Documents.WithLabelValues(resultFailed).Inc()
}
