package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DNS metrics
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docker_dns_queries_total",
			Help: "Total number of DNS queries by query type",
		},
		[]string{"type"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docker_dns_answers_total",
			Help: "Total number of DNS answers by source (table, upstream, none)",
		},
		[]string{"source"},
	)

	UpstreamLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docker_dns_upstream_latency_seconds",
			Help:    "Upstream resolution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Monitor metrics
	RuntimeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docker_dns_runtime_events_total",
			Help: "Total number of runtime events processed by action",
		},
		[]string{"action"},
	)

	EventErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docker_dns_event_errors_total",
			Help: "Total number of runtime events that failed processing",
		},
	)

	// Table metrics
	RecordsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docker_dns_records",
			Help: "Current number of entries in the name table",
		},
	)

	RecordMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docker_dns_record_mutations_total",
			Help: "Total number of name table mutations by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(UpstreamLatency)
	prometheus.MustRegister(RuntimeEventsTotal)
	prometheus.MustRegister(EventErrorsTotal)
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(RecordMutationsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
