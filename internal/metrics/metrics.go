package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmeta_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytmeta_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Extraction Metrics
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmeta_extractions_total",
			Help: "Total number of backend extractions",
		},
		[]string{"mode", "status"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytmeta_extraction_duration_seconds",
			Help:    "Backend extraction duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"mode"},
	)

	ValidationFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytmeta_validation_fallbacks_total",
			Help: "Number of video records rebuilt after strict validation failed",
		},
	)

	// Caption Metrics
	CaptionLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmeta_caption_lookups_total",
			Help: "Total number of caption lookups",
		},
		[]string{"scope", "status"},
	)

	CaptionKeysReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytmeta_caption_keys_returned",
			Help:    "Number of caption keys returned per lookup",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)

	// Resolver Metrics
	VideoIDResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmeta_video_id_resolutions_total",
			Help: "Total number of video ID resolutions",
		},
		[]string{"resolved"},
	)

	// Lookup Job Metrics
	LookupsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmeta_lookups_completed_total",
			Help: "Total number of completed queued lookups",
		},
		[]string{"kind", "status"},
	)

	LookupsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytmeta_lookups_in_progress",
			Help: "Number of queued lookups currently being processed",
		},
	)

	LookupQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytmeta_lookup_queue_depth",
			Help: "Number of lookups waiting in queue",
		},
	)

	LookupDeadLetterDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytmeta_lookup_dead_letter_depth",
			Help: "Number of lookups parked in the dead letter queue",
		},
	)

	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytmeta_lookup_duration_seconds",
			Help:    "Queued lookup processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"kind"},
	)

	// Cache Metrics
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmeta_cache_lookups_total",
			Help: "Total number of extraction cache lookups",
		},
		[]string{"result"},
	)

	// Webhook Metrics
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmeta_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"event", "result"},
	)

	// Error Metrics

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmeta_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordExtraction records a backend extraction
func RecordExtraction(mode, status string, duration float64) {
	ExtractionsTotal.WithLabelValues(mode, status).Inc()
	ExtractionDuration.WithLabelValues(mode).Observe(duration)
}

// RecordValidationFallback records a record rebuilt from the minimal skeleton
func RecordValidationFallback() {
	ValidationFallbacksTotal.Inc()
}

// RecordCaptionLookup records a caption lookup and the number of keys returned
func RecordCaptionLookup(returnAll bool, status string, keys int) {
	scope := "preferred"
	if returnAll {
		scope = "all"
	}
	CaptionLookupsTotal.WithLabelValues(scope, status).Inc()
	CaptionKeysReturned.Observe(float64(keys))
}

// RecordVideoIDResolution records whether a URL resolved to a video ID
func RecordVideoIDResolution(resolved bool) {
	VideoIDResolutionsTotal.WithLabelValues(strconv.FormatBool(resolved)).Inc()
}

// RecordLookupCompleted records a finished queued lookup
func RecordLookupCompleted(kind, status string, duration float64) {
	LookupsCompletedTotal.WithLabelValues(kind, status).Inc()
	LookupDuration.WithLabelValues(kind).Observe(duration)
}

// UpdateLookupMetrics updates the queued lookup gauges
func UpdateLookupMetrics(inProgress, queueDepth int) {
	LookupsInProgress.Set(float64(inProgress))
	LookupQueueDepth.Set(float64(queueDepth))
}

// UpdateDeadLetterDepth sets the dead letter queue gauge
func UpdateDeadLetterDepth(depth int) {
	LookupDeadLetterDepth.Set(float64(depth))
}

// RecordCacheLookup records an extraction cache hit, miss or error
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordWebhookDelivery records one webhook delivery attempt
func RecordWebhookDelivery(event, result string) {
	WebhookDeliveriesTotal.WithLabelValues(event, result).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
