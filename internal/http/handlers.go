package http

import (
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready while the ledger is loaded and the server is
// not draining.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	if s.shuttingDown.Load() {
		status, code = "shutting_down", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":         status,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"ledger_version": s.ledger.Version(),
		"checks": map[string]any{
			"rate_limiter": map[string]any{"active_clients": s.rateLimiter.ActiveClients()},
		},
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.tracer.GetMetrics()
	rateMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	metric(w, "http_requests_total", "counter", "Total number of completed HTTP requests", float64(traceMetrics.TotalRequests))
	metric(w, "http_requests_in_flight", "gauge", "HTTP requests being served", float64(traceMetrics.InFlight))
	metric(w, "http_request_duration_avg_seconds", "gauge", "Average HTTP request duration", traceMetrics.AverageResponseTime.Seconds())
	metric(w, "rate_limit_hits_total", "counter", "Write requests rejected by the rate limiter", float64(rateMetrics.TotalHits))
	metric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", float64(rateMetrics.ClientCount))
	metric(w, "suspicious_requests_total", "counter", "Requests rejected as suspicious", float64(securityMetrics.SuspiciousRequests))
	metric(w, "ledger_version", "gauge", "Number of committed ledger writes since load", float64(s.ledger.Version()))
	if s.cacheStats != nil {
		hits, misses := s.cacheStats()
		metric(w, "report_cache_hits_total", "counter", "Report cache hits", float64(hits))
		metric(w, "report_cache_misses_total", "counter", "Report cache misses", float64(misses))
	}
	metric(w, "uptime_seconds", "gauge", "Server uptime", time.Since(s.started).Seconds())
}

func metric(w http.ResponseWriter, name, kind, help string, value float64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %g\n\n", name, value)
}
