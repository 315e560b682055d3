package security

import (
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"fintrack/internal/log"
)

const maxURLLength = 2048

// Reason names the rule that flagged a request.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonProbe    Reason = "probe_pattern"
	ReasonMethod   Reason = "unusual_method"
	ReasonOversize Reason = "url_too_long"
)

// Probes seen from scanners and injection attempts, matched against the
// lowercased path and unescaped query.
var probes = []string{
	"../", "..\\", ".env", ".git", ".ssh",
	"wp-admin", "phpmyadmin", "admin.php", "config.php",
	"<script", "javascript:", "eval(",
	"union select", "etc/passwd", "cmd.exe",
}

var unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}

type DetectionMetrics struct {
	SuspiciousRequests int64
}

// Detector flags hostile-looking requests and resolves client addresses
// behind trusted proxies.
type Detector struct {
	flagged atomic.Int64

	mu      sync.RWMutex
	proxies []netip.Prefix
}

// NewDetector trusts forwarding headers from loopback and private networks.
func NewDetector() *Detector {
	return &Detector{proxies: []netip.Prefix{
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("172.16.0.0/12"),
		netip.MustParsePrefix("192.168.0.0/16"),
		netip.MustParsePrefix("::1/128"),
	}}
}

// TrustProxy adds a network whose forwarding headers are believed.
func (d *Detector) TrustProxy(cidr string) error {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.proxies = append(d.proxies, p.Masked())
	d.mu.Unlock()
	return nil
}

// Inspect returns why r looks hostile, or ReasonNone. Flagged requests are
// counted.
func (d *Detector) Inspect(r *http.Request) Reason {
	reason := inspect(r)
	if reason != ReasonNone {
		d.flagged.Add(1)
	}
	return reason
}

func inspect(r *http.Request) Reason {
	if slices.Contains(unusualMethods, r.Method) {
		return ReasonMethod
	}
	if len(r.URL.String()) > maxURLLength {
		return ReasonOversize
	}
	path := strings.ToLower(r.URL.Path)
	query := r.URL.RawQuery
	if q, err := url.QueryUnescape(query); err == nil {
		query = q
	}
	query = strings.ToLower(query)
	for _, p := range probes {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return ReasonProbe
		}
	}
	return ReasonNone
}

// ClientIP returns the peer address, or the client named by
// X-Forwarded-For / X-Real-IP when the peer is a trusted proxy.
func (d *Detector) ClientIP(r *http.Request) string {
	peer, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	addr := peer.Addr().Unmap()
	if !d.trusted(addr) {
		return addr.String()
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if a, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return a.String()
		}
	}
	if a, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return a.String()
	}
	return addr.String()
}

func (d *Detector) trusted(addr netip.Addr) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{SuspiciousRequests: d.flagged.Load()}
}

// Middleware rejects flagged requests with 400.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := d.Inspect(r); reason != ReasonNone {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"reason", string(reason),
				"client_ip", d.ClientIP(r))
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
