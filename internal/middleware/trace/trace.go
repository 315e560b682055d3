// Package trace assigns a request ID to every HTTP request and keeps
// request counters.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type contextKey struct{}

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// Middleware handles request tracing
type Middleware struct {
	metrics *metrics
}

type metrics struct {
	totalRequests int64
	totalMicros   int64
	inFlight      int64
}

// Metrics is a point-in-time copy of the request counters.
type Metrics struct {
	TotalRequests       int64
	InFlight            int64
	AverageResponseTime time.Duration
}

// NewMiddleware creates a new trace middleware
func NewMiddleware() *Middleware {
	return &Middleware{metrics: &metrics{}}
}

// Middleware reuses a well-formed incoming X-Request-ID or generates one,
// stores it in the request context and echoes it in the response.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		atomic.AddInt64(&m.metrics.inFlight, 1)
		defer atomic.AddInt64(&m.metrics.inFlight, -1)

		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))

		atomic.AddInt64(&m.metrics.totalRequests, 1)
		atomic.AddInt64(&m.metrics.totalMicros, time.Since(start).Microseconds())
	})
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID returns the ID the middleware attached to r.
func RequestID(r *http.Request) string { return GetRequestID(r.Context()) }

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	total := atomic.LoadInt64(&m.metrics.totalRequests)
	out := Metrics{
		TotalRequests: total,
		InFlight:      atomic.LoadInt64(&m.metrics.inFlight),
	}
	if total > 0 {
		out.AverageResponseTime = time.Duration(atomic.LoadInt64(&m.metrics.totalMicros)/total) * time.Microsecond
	}
	return out
}
