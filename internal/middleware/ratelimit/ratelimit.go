// Package ratelimit throttles requests per client with token buckets.
//
// Each client gets a bucket holding RequestsPerMinute tokens that refills
// continuously, so a client may burst up to the limit and then proceeds at
// the steady rate.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Idle clients are forgotten after this long. Their bucket is full again
// by then, so dropping it changes nothing.
const staleAfter = 10 * time.Minute

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one bucket per client key.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
	hits    atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a limiter and its idle-client cleanup loop. Call Stop
// to end the loop.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:   cfg.RequestsPerMinute,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop(cfg.CleanupInterval)
	return l
}

func (l *Limiter) bucketFor(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// Reserve takes a token for key. When none is available it returns false
// and how long until one will be.
func (l *Limiter) Reserve(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	r := l.bucketFor(key, now).limiter.ReserveN(now, 1)
	if !r.OK() {
		l.hits.Add(1)
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		l.hits.Add(1)
		return false, delay
	}
	return true, 0
}

func (l *Limiter) Allow(key string) bool {
	ok, _ := l.Reserve(key)
	return ok
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.forgetIdle()
		case <-l.stop:
			return
		}
	}
}

// forgetIdle drops clients not seen for staleAfter and returns how many.
func (l *Limiter) forgetIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-staleAfter)
	n := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the cleanup loop. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   l.hits.Load(),
		ClientCount: int64(l.ActiveClients()),
	}
}

// Middleware throttles the requests for which applies returns true; a nil
// applies throttles everything. Rejected requests carry Retry-After and are
// answered by onLimit, or a plain 429 when onLimit is nil.
func (l *Limiter) Middleware(key func(*http.Request) string, applies func(*http.Request) bool, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applies != nil && !applies(r) {
				next.ServeHTTP(w, r)
				return
			}
			if ok, wait := l.Reserve(key(r)); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				onLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
