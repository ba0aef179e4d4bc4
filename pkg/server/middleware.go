package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/request-responses/pkg/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for server operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "responses_server_requests_total",
		Help: "Total responses endpoint requests by HTTP status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "responses_server_request_duration_seconds",
		Help:    "Responses endpoint latency in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "responses_server_batch_size",
		Help:    "Responses returned per batch",
		Buckets: prometheus.LinearBuckets(0, 20, 10),
	})
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs every request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		if r.URL.Path == api.ResponsesPath {
			requestsTotal.WithLabelValues(strconv.Itoa(rec.status)).Inc()
			requestDuration.Observe(duration.Seconds())
		}

		event := s.logger.Info()
		if r.URL.Path == "/health" || r.URL.Path == "/ready" || r.URL.Path == "/metrics" {
			event = s.logger.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}
