package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ExtractIP returns the client IP address from the request, checking
// X-Forwarded-For (first entry), then X-Real-IP, then RemoteAddr.
// The forwarded headers are only trustworthy behind a reverse proxy
// that sets them; lead records store whatever the proxy reports.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
