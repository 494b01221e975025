package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sortir"

var (
	registry = prometheus.NewRegistry()

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "uploads_total",
			Help:      "Uploads by outcome.",
		},
		[]string{"outcome"},
	)
	asksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Questions by outcome.",
		},
		[]string{"outcome"},
	)
	contextChars = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "context_chars",
			Help:      "Size of the assembled context in characters.",
			Buckets:   []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000},
		},
	)
	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "LLM gateway call duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"outcome"},
	)
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		},
		[]string{"name"},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestsTotal,
		httpRequestDuration,
		uploadsTotal,
		asksTotal,
		contextChars,
		gatewayDuration,
		breakerState,
	)
}

// ObserveHTTP records one completed request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// IncUpload counts an upload outcome (ok, invalid, unsupported, extraction, storage).
func IncUpload(outcome string) {
	uploadsTotal.WithLabelValues(outcome).Inc()
}

// IncAsk counts a question outcome (ok, no_documents, invalid, storage, upstream).
func IncAsk(outcome string) {
	asksTotal.WithLabelValues(outcome).Inc()
}

func ObserveContextChars(n int) {
	contextChars.Observe(float64(n))
}

func ObserveGateway(outcome string, d time.Duration) {
	gatewayDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
