package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirrorbridge",
			Name:      "frames_total",
			Help:      "Frames decoded and emitted, by media type.",
		},
		[]string{"mime"},
	)
	frameBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mirrorbridge",
			Name:      "frame_bytes_total",
			Help:      "Raw payload bytes decoded from the companion stream.",
		},
	)
	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirrorbridge",
			Name:      "stream_errors_total",
			Help:      "Terminal stream failures, by stage.",
		},
		[]string{"stage"},
	)
	bootstrapFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mirrorbridge",
			Name:      "bootstrap_failures_total",
			Help:      "Transport bootstrap failures reported as events.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirrorbridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests to the metrics listener.",
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal, frameBytesTotal, streamErrorsTotal, bootstrapFailuresTotal, httpRequests)
	})
}

func RecordFrame(mime string, payloadBytes int) {
	RegisterMetrics()
	framesTotal.WithLabelValues(mime).Inc()
	frameBytesTotal.Add(float64(payloadBytes))
}

// Stage is one of "header", "payload", "emit".
func RecordStreamError(stage string) {
	RegisterMetrics()
	streamErrorsTotal.WithLabelValues(stage).Inc()
}

func RecordBootstrapFailure() {
	RegisterMetrics()
	bootstrapFailuresTotal.Inc()
}
