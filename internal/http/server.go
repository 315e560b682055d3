// Package http exposes the ledger and its reports as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/report"
)

// Ledger is the write side the API needs.
type Ledger interface {
	AddExpense(ctx context.Context, amount core.Money, category string, date core.Date, note string) (int64, error)
	DeleteExpense(ctx context.Context, id int64) error
	SetBudget(ctx context.Context, month core.Month, category string, limit core.Money) (core.Budget, error)
	DeleteBudget(ctx context.Context, month core.Month, category string) error
	CreateGoal(ctx context.Context, name string, target core.Money, deadline core.Date) (int64, error)
	ContributeToGoal(ctx context.Context, id int64, delta core.Money) (core.SavingsGoal, error)
	DeleteGoal(ctx context.Context, id int64) error
	Version() uint64
}

var _ Ledger = (*ledger.Ledger)(nil)

// CacheStats reports report cache hits and misses.
type CacheStats func() (hits, misses uint64)

type Option func(*Server)

// WithRateLimit limits write requests per client per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.writesPerMinute = perMinute }
}

func WithCacheStats(stats CacheStats) Option {
	return func(s *Server) { s.cacheStats = stats }
}

type Server struct {
	http.Server
	ledger  Ledger
	reports *report.Service
	logger  *log.Logger

	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	tracer          *trace.Middleware
	writesPerMinute int
	cacheStats      CacheStats

	started      time.Time
	shuttingDown atomic.Bool
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, l Ledger, reports *report.Service, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		ledger:          l,
		reports:         reports,
		logger:          logger.WithComponent(log.ComponentHTTP),
		detector:        security.NewDetector(),
		tracer:          trace.NewMiddleware(),
		writesPerMinute: ratelimit.DefaultConfig().RequestsPerMinute,
		started:         time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.writesPerMinute})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("PUT /api/budgets/{month}/{category}", s.handleSetBudget)
	mux.HandleFunc("DELETE /api/budgets/{month}/{category}", s.handleDeleteBudget)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.handleContribute)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/reports/totals", s.handleTotals)
	mux.HandleFunc("GET /api/reports/budgets", s.handleBudgets)
	mux.HandleFunc("GET /api/reports/goals", s.handleGoals)
	mux.HandleFunc("GET /api/reports/top", s.handleTop)
	mux.HandleFunc("GET /api/reports/trend", s.handleTrend)
	mux.HandleFunc("GET /api/reports/categories", s.handleCategories)
	mux.HandleFunc("GET /api/reports/series", s.handleSeries)
	mux.HandleFunc("GET /api/reports/recent", s.handleRecent)
	mux.HandleFunc("GET /api/reports/dashboard", s.handleDashboard)

	limitWrites := s.rateLimiter.Middleware(s.detector.ClientIP, isWrite, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded").Write(w)
	})

	// Outermost first.
	chain := []func(http.Handler) http.Handler{
		s.tracer.Middleware,
		log.Middleware(s.logger, trace.RequestID),
		security.APIHeaders().Middleware,
		s.detector.Middleware,
		limitWrites,
	}
	var handler http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func isWrite(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}

// Shutdown marks the server not ready, stops the rate limiter and drains
// connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}
