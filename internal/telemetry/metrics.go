package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "churnpipe"

var (
	// RunsTotal counts finished training runs by outcome ("ok", "error").
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Training runs by terminal status.",
	}, []string{"status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of a full training run.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	RowsValidated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schema",
		Name:      "rows_validated_total",
		Help:      "Rows that passed schema validation.",
	})

	ValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schema",
		Name:      "validation_failures_total",
		Help:      "Schema violations observed on rejected input.",
	})

	TrackingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "publish_failures_total",
		Help:      "Run reports that could not be delivered to the tracker.",
	})

	Predictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "serve",
		Name:      "predictions_total",
		Help:      "Records scored by the serving API.",
	})

	PredictDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "serve",
		Name:      "predict_duration_seconds",
		Help:      "Latency of predict requests.",
		Buckets:   prometheus.DefBuckets,
	})

	Reloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "serve",
		Name:      "reloads_total",
		Help:      "Artifact reloads by outcome.",
	}, []string{"status"})
)

// Expose serves the default registry on addr in the background.
func Expose(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(addr, mux)
	}()
}
