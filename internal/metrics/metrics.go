// Package metrics holds the Prometheus collectors for dispatch runs and the
// upstream Gmail and Slack calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	DispatchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productivity_bot_dispatch_runs_total",
			Help: "Total fan-out dispatch runs by interval",
		},
		[]string{"interval"},
	)
	DispatchOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productivity_bot_dispatch_outcomes_total",
			Help: "Per-user dispatch outcomes by status",
		},
		[]string{"status"},
	)
	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "productivity_bot_dispatch_duration_seconds",
			Help:    "Duration of a full fan-out dispatch run",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
	GmailQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productivity_bot_gmail_queries_total",
			Help: "Gmail search queries by result",
		},
		[]string{"result"},
	)
	SlackPosts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productivity_bot_slack_posts_total",
			Help: "Slack webhook posts by result",
		},
		[]string{"result"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productivity_bot_http_requests_total",
			Help: "HTTP requests served by path and status code",
		},
		[]string{"path", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		DispatchRuns,
		DispatchOutcomes,
		DispatchDuration,
		GmailQueries,
		SlackPosts,
		HTTPRequests,
	)
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

func IncDispatchRun(interval string) {
	DispatchRuns.WithLabelValues(interval).Inc()
}

func IncDispatchOutcome(status string) {
	DispatchOutcomes.WithLabelValues(status).Inc()
}

func ObserveDispatchDuration(d time.Duration) {
	DispatchDuration.Observe(d.Seconds())
}

func ObserveGmailQuery(err error) {
	GmailQueries.WithLabelValues(result(err)).Inc()
}

func ObserveSlackPost(err error) {
	SlackPosts.WithLabelValues(result(err)).Inc()
}

func IncHTTPRequest(path string, code int) {
	HTTPRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument counts requests to next under the given path label.
func Instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		IncHTTPRequest(path, rec.code)
	})
}
