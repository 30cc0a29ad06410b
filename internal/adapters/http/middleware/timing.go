package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"ringside/internal/adapters/http/perf"
)

// DefaultSlowRequest is the threshold above which a request logs at WARN.
const DefaultSlowRequest = 200 * time.Millisecond

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the underlying ResponseWriter.
func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

var statusWriterPool = sync.Pool{
	New: func() any { return &statusWriter{} },
}

// Timing returns middleware that logs request duration.
// Requests to /static/ are excluded. Requests at or above slow log at WARN,
// the rest at DEBUG. A non-positive slow uses DefaultSlowRequest.
// If collector is non-nil, every timed request is recorded.
func Timing(collector *perf.Collector, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if strings.HasPrefix(path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := statusWriterPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK
			defer func() {
				elapsed := time.Since(start)
				level := slog.LevelDebug
				event := "request"
				if elapsed >= slow {
					level, event = slog.LevelWarn, "slow_request"
				}
				slog.Log(r.Context(), level, event,
					"request_id", chimw.GetReqID(r.Context()),
					"method", r.Method,
					"path", path,
					"status", sw.status,
					"duration_ms", perf.Millis(elapsed),
				)

				if collector != nil {
					collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       r.Method + " " + path,
						StatusCode: sw.status,
						DurationMs: perf.Millis(elapsed),
						Timestamp:  start,
					})
				}

				sw.ResponseWriter = nil
				statusWriterPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
