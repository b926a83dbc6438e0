// Package telemetry exposes Prometheus collectors for searches, ingestion
// runs and HTTP requests. All metrics are registered on a caller-supplied
// registerer so tests and commands do not share global state.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "corpusexplorer"

// Metrics holds the collectors of one process. It implements
// search.Observer and ingest.Recorder.
type Metrics struct {
	SearchRequestsTotal  *prometheus.CounterVec
	SearchDuration       *prometheus.HistogramVec
	IngestFilesTotal     *prometheus.CounterVec
	IngestDocumentsTotal *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		SearchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_requests_total",
				Help:      "Total searches by mode and outcome (ok, user_error, error).",
			},
			[]string{"mode", "outcome"},
		),
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Search latency in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),
		IngestFilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_files_total",
				Help:      "Input files processed by outcome (ok, failed, cancelled).",
			},
			[]string{"outcome"},
		),
		IngestDocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_documents_total",
				Help:      "Input rows by outcome (indexed, filtered, skipped).",
			},
			[]string{"outcome"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.SearchRequestsTotal,
		m.SearchDuration,
		m.IngestFilesTotal,
		m.IngestDocumentsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// NewWithProcess is New plus the Go runtime and process collectors, for
// the long-running server.
func NewWithProcess() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg), reg
}

// ObserveSearch records one finished search.
func (m *Metrics) ObserveSearch(mode, outcome string, elapsed time.Duration) {
	m.SearchRequestsTotal.WithLabelValues(mode, outcome).Inc()
	m.SearchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveFile records one finished input file.
func (m *Metrics) ObserveFile(outcome string) {
	m.IngestFilesTotal.WithLabelValues(outcome).Inc()
}

// ObserveDocuments records n input rows with the same outcome.
func (m *Metrics) ObserveDocuments(outcome string, n int) {
	if n <= 0 {
		return
	}
	m.IngestDocumentsTotal.WithLabelValues(outcome).Add(float64(n))
}

// Handler returns the scrape handler for the registry the metrics live in.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
