package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/leaselens/leaselens/internal/hash"
)

// Caller is the resolved identity of one request. Authenticated callers are
// keyed by a token fingerprint, anonymous ones by client IP; raw tokens are
// never used as keys or logged.
type Caller struct {
	Identity      string
	Authenticated bool
}

func callerFor(r *http.Request) Caller {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != "" {
			return Caller{Identity: "token:" + hash.Token(token), Authenticated: true}
		}
	}
	return Caller{Identity: "ip:" + clientIP(r)}
}

// clientIP prefers the first X-Forwarded-For hop, set by the edge proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
