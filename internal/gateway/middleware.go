package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"health-agents/internal/common/metrics"
)

const requestIDHeader = "X-Request-ID"

// statusRecorder captures the written status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID attaches an ID to every request, honoring one supplied
// by the caller.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// withRecovery converts handler panics into structured 500 responses.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", map[string]interface{}{
					"path":  r.URL.Path,
					"panic": rec,
				})
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error":   "INTERNAL_ERROR",
					"message": "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withInstrumentation logs each request and records the request counters
// and latency histograms.
func (s *Server) withInstrumentation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		status := strconv.Itoa(rec.status)

		metrics.GatewayRequests.WithLabelValues(route, status).Inc()
		metrics.GatewayRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		if s.obs != nil {
			s.obs.RecordRequestProcessed(r.Context(), route, status)
			s.obs.RecordRequestDuration(r.Context(), route, elapsed)
		}

		s.logger.Info("request handled", map[string]interface{}{
			"method":      r.Method,
			"path":        route,
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
			"request_id":  w.Header().Get(requestIDHeader),
		})
	})
}
