package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter is the minimal interface the credential endpoints need to
// throttle abusive callers.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest asks the limiter whether the caller may hit the named
// endpoint. Each endpoint scope gets its own bucket per client address, so
// hammering the login route does not starve legitimate refresh calls.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(scope + "/" + clientIP(r))
}

// clientIP resolves the originating address, trusting the first
// X-Forwarded-For hop when the service runs behind a proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	return remote
}
