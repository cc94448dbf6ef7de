// Package metrics defines the Prometheus metrics exported by the speech analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the speech analysis service
type Metrics struct {
	// Analysis metrics
	AnalysesTotal      *prometheus.CounterVec
	AnalysisDuration   prometheus.Histogram
	ExtractionDuration prometheus.Histogram
	UploadSize         prometheus.Histogram
	AudioDuration      prometheus.Histogram
	SpeechStyles       *prometheus.CounterVec
	RepetitionsFound   prometheus.Counter
	PlotFailures       prometheus.Counter

	// Worker pool metrics
	QueueSize     prometheus.Gauge
	ActiveWorkers prometheus.Gauge

	// External model metrics
	ModelRequests *prometheus.CounterVec
	ModelDuration *prometheus.HistogramVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Analysis metrics
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sprov_analyses_total",
			Help: "Total number of analyses by outcome",
		}, []string{"outcome"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sprov_analysis_duration_seconds",
			Help:    "End-to-end duration of an analysis",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 11), // 100ms to ~100s
		}),
		ExtractionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sprov_extraction_duration_seconds",
			Help:    "Time spent decoding audio and extracting features",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 13), // 10ms to ~40s
		}),
		UploadSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sprov_upload_size_bytes",
			Help:    "Size of accepted uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 12), // 16KB to ~32MB
		}),
		AudioDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sprov_audio_duration_seconds",
			Help:    "Duration of decoded recordings",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~8 minutes
		}),
		SpeechStyles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sprov_speech_style_total",
			Help: "Speaking style classifications",
		}, []string{"style"}),
		RepetitionsFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "sprov_repetitions_detected_total",
			Help: "Transcripts in which adjacent repeated words were found",
		}),
		PlotFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sprov_plot_failures_total",
			Help: "Pitch contour images that could not be rendered",
		}),

		// Worker pool metrics
		QueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sprov_extraction_queue_size",
			Help: "Current number of extraction jobs waiting for a worker",
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sprov_extraction_active_workers",
			Help: "Current number of workers running an extraction",
		}),

		// External model metrics
		ModelRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sprov_model_requests_total",
			Help: "Generative model calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		ModelDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sprov_model_request_duration_seconds",
			Help:    "Duration of generative model calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		}, []string{"operation"}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sprov_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sprov_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sprov_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordAnalysis records a finished analysis
func (m *Metrics) RecordAnalysis(outcome string, durationSeconds float64) {
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(durationSeconds)
}

// RecordExtraction records a completed decode and feature extraction
func (m *Metrics) RecordExtraction(durationSeconds, audioSeconds float64, style string) {
	m.ExtractionDuration.Observe(durationSeconds)
	m.AudioDuration.Observe(audioSeconds)
	m.SpeechStyles.WithLabelValues(style).Inc()
}

// RecordUpload records the size of an accepted upload
func (m *Metrics) RecordUpload(sizeBytes int64) {
	m.UploadSize.Observe(float64(sizeBytes))
}

// RecordRepetition increments the repetition counter
func (m *Metrics) RecordRepetition() {
	m.RepetitionsFound.Inc()
}

// RecordPlotFailure increments the plot failure counter
func (m *Metrics) RecordPlotFailure() {
	m.PlotFailures.Inc()
}

// SetQueueSize sets the current queue size
func (m *Metrics) SetQueueSize(size int) {
	m.QueueSize.Set(float64(size))
}

// SetActiveWorkers sets the number of busy workers
func (m *Metrics) SetActiveWorkers(count int) {
	m.ActiveWorkers.Set(float64(count))
}

// RecordModelCall records one generative model call
func (m *Metrics) RecordModelCall(operation, outcome string, durationSeconds float64) {
	m.ModelRequests.WithLabelValues(operation, outcome).Inc()
	m.ModelDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
