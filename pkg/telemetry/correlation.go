package telemetry

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ContextKey type for context keys
type ContextKey string

const (
	// CorrelationIDKey is the context key for correlation ID
	CorrelationIDKey ContextKey = "correlation_id"
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
	// SessionIDKey is the context key for the visitor session ID
	SessionIDKey ContextKey = "session_id"
)

const (
	// HeaderCorrelationID is the HTTP header for correlation ID
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is the HTTP header for request ID
	HeaderRequestID = "X-Request-ID"
)

// CorrelationMiddleware adds correlation and request IDs to the request
// context and echoes them in the response headers. Incoming IDs are kept.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		correlationID := r.Header.Get(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, CorrelationIDKey, correlationID)
		ctx = context.WithValue(ctx, RequestIDKey, requestID)

		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(
				attribute.String("correlation.id", correlationID),
				attribute.String("request.id", requestID),
			)
		}

		w.Header().Set(HeaderCorrelationID, correlationID)
		w.Header().Set(HeaderRequestID, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithSessionID records the visitor session on ctx and on the active span
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("session.id", sessionID))
	}
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

func stringValue(ctx context.Context, key ContextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// GetCorrelationID retrieves correlation ID from context
func GetCorrelationID(ctx context.Context) string {
	return stringValue(ctx, CorrelationIDKey)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetSessionID retrieves session ID from context
func GetSessionID(ctx context.Context) string {
	return stringValue(ctx, SessionIDKey)
}

// EnrichLogFields adds correlation IDs to log fields
func EnrichLogFields(ctx context.Context, fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}

	if correlationID := GetCorrelationID(ctx); correlationID != "" {
		fields["correlation_id"] = correlationID
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields["request_id"] = requestID
	}
	if sessionID := GetSessionID(ctx); sessionID != "" {
		fields["session_id"] = sessionID
	}

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields["trace_id"] = spanCtx.TraceID().String()
		fields["span_id"] = spanCtx.SpanID().String()
	}

	return fields
}
