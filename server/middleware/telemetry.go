package middleware

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kbukum/flowpipe/logger"
	"github.com/kbukum/flowpipe/observability"
)

// Tracing returns middleware that continues any incoming trace context and
// wraps each request in an "http.request" span. Responses with a 5xx status
// mark the span as failed.
func Tracing() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			}
			if id, ok := logger.RequestIDFromContext(ctx); ok {
				attrs = append(attrs, attribute.String(observability.AttrRequestID, id))
			}
			ctx, op := observability.StartOperation(ctx, observability.SpanHTTPRequest, attrs...)

			rec := newResponseRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			op.SetAttributes(attribute.Int("http.status_code", rec.status))
			var err error
			if rec.status >= http.StatusInternalServerError {
				err = fmt.Errorf("http status %d", rec.status)
			}
			op.End(err)
		})
	}
}

// Metrics returns middleware that records request count, duration and the
// number of in-flight requests.
func Metrics(m *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			m.RecordRequestStart(ctx)

			start := time.Now()
			rec := newResponseRecorder(w)
			next.ServeHTTP(rec, r)

			m.RecordRequestEnd(ctx, r.Method+" "+r.URL.Path, rec.status, time.Since(start))
		})
	}
}
