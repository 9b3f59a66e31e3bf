// Package metrics holds the Prometheus collectors for ingestion and the HTTP
// API. Collectors register with the default registry on import.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "replaylog"

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of uploads by outcome",
		},
		[]string{"result"},
	)

	// DroppedRecordsTotal counts raw log records skipped as malformed.
	DroppedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_records_total",
			Help:      "Total number of malformed raw log records dropped during decoding",
		},
		[]string{"variant"},
	)

	HeartbeatPulsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeat_pulses_total",
			Help:      "Total number of heartbeat pulses decoded",
		},
	)

	RecordingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_total",
			Help:      "Total number of recordings reconstructed",
		},
		[]string{"truncated"},
	)

	CommitStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_stage_duration_seconds",
			Help:      "Duration of each commit stage in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage", "result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordUpload(result string) {
	UploadsTotal.WithLabelValues(result).Inc()
}

func RecordDecode(variant string, pulses, dropped int) {
	if variant == "" {
		variant = "auto"
	}
	HeartbeatPulsesTotal.Add(float64(pulses))
	if dropped > 0 {
		DroppedRecordsTotal.WithLabelValues(variant).Add(float64(dropped))
	}
}

func RecordRecording(truncated bool) {
	RecordingsTotal.WithLabelValues(strconv.FormatBool(truncated)).Inc()
}

func ObserveCommitStage(stage string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CommitStageDuration.WithLabelValues(stage, result).Observe(time.Since(start).Seconds())
}

func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
