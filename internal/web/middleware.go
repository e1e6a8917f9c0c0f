package web

import (
	"net/http"
	"time"

	"github.com/vishxl-0001/vipn/pkg/logger"
	"github.com/vishxl-0001/vipn/pkg/telemetry"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// LoggingMiddleware logs HTTP requests with correlation fields.
// In development mode every request is logged; otherwise only non-2xx/3xx
// responses and requests slower than a second.
func LoggingMiddleware(log logger.Logger, devMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			shouldLog := devMode ||
				wrapped.statusCode >= 400 ||
				duration > time.Second
			if !shouldLog || log == nil {
				return
			}

			fields := telemetry.EnrichLogFields(r.Context(), map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": duration.Milliseconds(),
				"remote_addr": r.RemoteAddr,
			})
			if r.URL.RawQuery != "" {
				fields["query"] = r.URL.RawQuery
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error("HTTP request error", fields)
			case wrapped.statusCode >= 400:
				log.Warn("HTTP request client error", fields)
			case duration > time.Second:
				log.Warn("HTTP request slow", fields)
			default:
				log.Info("HTTP request", fields)
			}
		})
	}
}

// RecoverMiddleware turns a handler panic into a 500 and logs it
func RecoverMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("Handler panicked", telemetry.EnrichLogFields(r.Context(), map[string]interface{}{
						"path":  r.URL.Path,
						"panic": rec,
					}))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
