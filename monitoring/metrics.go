package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricsNamespace  = "churnapi"
	PredictSubsystem  = "predict"
	ArtifactSubsystem = "artifact"
	HTTPSubsystem     = "http"
)

// Variables declared for metrics.
var (
	PredictionCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: PredictSubsystem,
		Name:      "total",
		Help:      "Counter of the number of successful predictions.",
	}, []string{"label"})

	PredictionFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: PredictSubsystem,
		Name:      "failure_total",
		Help:      "Counter of the number of failed predictions.",
	}, []string{"kind"})

	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: PredictSubsystem,
		Name:      "duration_seconds",
		Help:      "Histogram of the time spent on a prediction.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
	})

	CacheLookupCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: PredictSubsystem,
		Name:      "cache_lookup_total",
		Help:      "Counter of prediction cache lookups.",
	}, []string{"result"})

	ArtifactLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: ArtifactSubsystem,
		Name:      "loaded",
		Help:      "Whether the artifact was loaded at startup.",
	}, []string{"artifact"})

	ArtifactChangeCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: ArtifactSubsystem,
		Name:      "changed_total",
		Help:      "Counter of on-disk changes to a loaded artifact.",
	}, []string{"artifact"})

	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: HTTPSubsystem,
		Name:      "websocket_connections",
		Help:      "Number of open prediction websocket connections.",
	})
)

// NewMetricsServer 创建独立的指标服务器
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}

// SetArtifactLoaded 记录构件加载状态
func SetArtifactLoaded(artifact string, loaded bool) {
	value := 0.0
	if loaded {
		value = 1
	}
	ArtifactLoaded.WithLabelValues(artifact).Set(value)
}
