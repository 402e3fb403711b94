// Package metrics exposes Prometheus collectors for the questify service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	questionFetchesTotal       *prometheus.CounterVec
	mailSendsTotal             *prometheus.CounterVec
	broadcastRunsTotal         *prometheus.CounterVec
	subscriptionsTotal         *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		questionFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questify_question_fetches_total",
				Help: "Question fetch attempts, labeled by platform and outcome (ok, empty, error).",
			},
			[]string{"platform", "outcome"},
		)

		mailSendsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questify_mail_sends_total",
				Help: "Outbound mail attempts, labeled by path (welcome, broadcast) and outcome.",
			},
			[]string{"path", "outcome"},
		)

		broadcastRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questify_broadcast_runs_total",
				Help: "Broadcast job runs, labeled by result.",
			},
			[]string{"result"},
		)

		subscriptionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questify_subscriptions_total",
				Help: "Subscription requests, labeled by platform and result.",
			},
			[]string{"platform", "result"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch counts a question fetch outcome.
func ObserveFetch(platform, outcome string) {
	Init()
	questionFetchesTotal.WithLabelValues(platform, outcome).Inc()
}

// ObserveMail counts a mail send outcome.
func ObserveMail(path, outcome string) {
	Init()
	mailSendsTotal.WithLabelValues(path, outcome).Inc()
}

// ObserveBroadcast counts a broadcast run result.
func ObserveBroadcast(result string) {
	Init()
	broadcastRunsTotal.WithLabelValues(result).Inc()
}

// ObserveSubscription counts a subscription request result.
func ObserveSubscription(platform, result string) {
	Init()
	subscriptionsTotal.WithLabelValues(platform, result).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
