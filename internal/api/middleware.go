package api

import (
	"net/http"
	"strconv"

	"github.com/leaselens/leaselens/internal/api/respond"
	"github.com/leaselens/leaselens/internal/model"
	"github.com/leaselens/leaselens/internal/usage"
)

// RateLimit throttles per caller identity before the handler runs. The
// limiter fails open, so a counter-store outage degrades to no throttling
// rather than a hard outage.
func RateLimit(limiter *usage.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := callerFor(r)
			res := limiter.Allow(r.Context(), caller.Identity, caller.Authenticated)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))

			if !res.Allowed {
				retryAfter := int(res.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respond.WriteError(w, model.NewRateLimited("too many requests", map[string]interface{}{
					"retryAfterSeconds": retryAfter,
				}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
