// Package security holds the HTTP hardening middleware of the API: response
// headers, client IP resolution behind trusted proxies and rejection of
// obviously hostile requests.
package security

import (
	"net/http"
	"strconv"
)

// Headers lists the response headers set on every API response. Empty
// values are skipped.
type Headers struct {
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeOptions    string
	ReferrerPolicy        string
	ResourcePolicy        string
	CacheControl          string

	// HSTSMaxAge is sent in seconds, over TLS only. Zero disables HSTS.
	HSTSMaxAge int
}

// APIHeaders is the header set of a JSON-only API that is never framed or
// cached.
func APIHeaders() Headers {
	return Headers{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		FrameOptions:          "DENY",
		ContentTypeOptions:    "nosniff",
		ReferrerPolicy:        "no-referrer",
		ResourcePolicy:        "same-origin",
		CacheControl:          "no-store",
		HSTSMaxAge:            365 * 24 * 60 * 60,
	}
}

func (h Headers) pairs() [][2]string {
	return [][2]string{
		{"Content-Security-Policy", h.ContentSecurityPolicy},
		{"X-Frame-Options", h.FrameOptions},
		{"X-Content-Type-Options", h.ContentTypeOptions},
		{"Referrer-Policy", h.ReferrerPolicy},
		{"Cross-Origin-Resource-Policy", h.ResourcePolicy},
		{"Cache-Control", h.CacheControl},
	}
}

// Middleware sets h on every response before calling next.
func (h Headers) Middleware(next http.Handler) http.Handler {
	static := make(http.Header)
	for _, kv := range h.pairs() {
		if kv[1] != "" {
			static.Set(kv[0], kv[1])
		}
	}
	hsts := ""
	if h.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(h.HSTSMaxAge) + "; includeSubDomains"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for k, v := range static {
			out[k] = v
		}
		if r.TLS != nil && hsts != "" {
			out.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}
