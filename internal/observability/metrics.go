package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec
	sseClientsActive      prometheus.Gauge
	chatConnectionsTotal  prometheus.Counter
	chatMessagesTotal     *prometheus.CounterVec
	uploadRequestsTotal   *prometheus.CounterVec
	uploadRejectedTotal   *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
	contextSourceFailures *prometheus.CounterVec
	dashboardCacheTotal   *prometheus.CounterVec
	reviewDecisionsTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lira_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lira_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lira_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lira_notifications_published_total",
			Help: "Notifications delivered to in-process subscribers.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lira_sse_clients_active",
			Help: "Currently connected notification stream clients.",
		})

		chatConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lira_chat_connections_total",
			Help: "Channel websocket connections accepted.",
		})

		chatMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lira_chat_messages_total",
			Help: "Channel messages broadcast to connected clients.",
		}, []string{"kind"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lira_upload_requests_total",
			Help: "Accepted uploads by purpose.",
		}, []string{"purpose"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lira_upload_rejected_total",
			Help: "Rejected uploads by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lira_upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		contextSourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lira_context_source_failures_total",
			Help: "Assistant context sources that could not be read.",
		}, []string{"source"})

		dashboardCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lira_dashboard_cache_total",
			Help: "Dashboard stats cache lookups by result.",
		}, []string{"result"})

		reviewDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lira_review_decisions_total",
			Help: "Activity review decisions by status and outcome.",
		}, []string{"status", "outcome"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			notificationsTotal, sseClientsActive,
			chatConnectionsTotal, chatMessagesTotal,
			uploadRequestsTotal, uploadRejectedTotal, uploadLatencySeconds,
			contextSourceFailures, dashboardCacheTotal, reviewDecisionsTotal,
		)
		// go and process collectors come with the default registry
		_ = prometheus.Register(collectors.NewBuildInfoCollector())
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// NotificationsPublishedTotal counts notifications fanned out to subscribers.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// SSEClientsActive tracks connected notification streams.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// ChatConnectionsTotal counts accepted websocket connections.
func ChatConnectionsTotal() prometheus.Counter {
	RegisterMetrics()
	return chatConnectionsTotal
}

// ChatMessagesSent counts channel messages by kind.
func ChatMessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return chatMessagesTotal
}

// UploadRequests counts accepted uploads.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency observes upload processing time.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// ContextSourceFailures counts failed assistant context reads.
func ContextSourceFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return contextSourceFailures
}

// DashboardCache counts dashboard cache hits and misses.
func DashboardCache() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheTotal
}

// ReviewDecisions counts review attempts.
func ReviewDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewDecisionsTotal
}
