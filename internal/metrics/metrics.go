// Package metrics provides Prometheus metrics for the dashboard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payboard_submissions_accepted_total",
			Help: "Total number of form submissions appended to the record sequence",
		},
	)
	SubmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payboard_submissions_rejected_total",
			Help: "Total number of rejected form submissions by failing field",
		},
		[]string{"field"},
	)
	RecordsHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payboard_records",
			Help: "Current length of the record sequence",
		},
	)
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payboard_events_published_total",
			Help: "Record events handed to the message broker by outcome",
		},
		[]string{"outcome"},
	)
	PageRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payboard_renders_total",
			Help: "Total number of dashboard renders by template",
		},
		[]string{"template"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordSubmissionAccepted(total int) {
	SubmissionsAccepted.Inc()
	RecordsHeld.Set(float64(total))
}

// RecordSubmissionRejected counts one rejection per failing field.
func RecordSubmissionRejected(fields []string) {
	for _, f := range fields {
		SubmissionsRejected.WithLabelValues(f).Inc()
	}
}

func UpdateRecordsHeld(total int) {
	RecordsHeld.Set(float64(total))
}

func RecordEventPublished(err error) {
	if err != nil {
		EventsPublished.WithLabelValues("error").Inc()
		return
	}
	EventsPublished.WithLabelValues("ok").Inc()
}

// RecordEventDropped counts an event that never reached the publisher.
func RecordEventDropped() {
	EventsPublished.WithLabelValues("dropped").Inc()
}

func RecordRender(template string) {
	PageRenders.WithLabelValues(template).Inc()
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
