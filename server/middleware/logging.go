package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/flowpipe/logger"
)

// RequestLogger logs one line per finished request. Streamed responses are
// tagged instead of being reported as slow. Probe paths are not logged.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newResponseRecorder(w)
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			fields := map[string]interface{}{
				"method":             r.Method,
				"path":               r.URL.Path,
				logger.FieldStatus:   rec.status,
				logger.FieldDuration: duration.Milliseconds(),
			}
			if rec.size > 0 {
				fields["bytes"] = rec.size
			}
			if r.URL.RawQuery != "" {
				fields["query"] = r.URL.RawQuery
			}
			switch {
			case rec.streamed:
				fields["stream"] = true
			case duration > 500*time.Millisecond:
				fields["slow"] = true
			}

			logByStatus(log.WithContext(r.Context()), fields, rec.status)
		})
	}
}

func isHealthEndpoint(path string) bool {
	switch strings.TrimSuffix(path, "/") {
	case "/health", "/alive", "/version":
		return true
	}
	return false
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
