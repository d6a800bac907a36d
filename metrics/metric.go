package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registry = prometheus.NewRegistry()

	QueryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "MetaQuery",
			Name:      "queries_total",
			Help:      "queries served, by kind and status",
		},
		[]string{"kind", "status"},
	)
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "MetaQuery",
			Name:      "query_duration_seconds",
			Help:      "wall time of one query call",
		},
		[]string{"kind"},
	)
	ResultBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "MetaQuery",
			Name:      "query_result_bytes_total",
			Help:      "result bytes packed into destination buffers",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		QueryCounter,
		QueryDuration,
		ResultBytes,
	)
}
