package handlers

import (
	"net/http"
	"strconv"

	"github.com/serisow/autbot/apperror"
	"github.com/serisow/autbot/middleware"
	"github.com/serisow/autbot/ratelimit"
)

// admit applies the per-client limit for endpoint. On denial it writes the
// 429 response with Retry-After and returns false.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request, endpoint string) (ratelimit.Stats, bool) {
	key := endpoint + ":" + middleware.ClientIP(r)
	stats, ok := h.opts.Limiter.Admit(key, h.opts.RateLimitRequests, h.opts.RateLimitWindow)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(stats.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(stats.Remaining))
	if ok {
		return stats, true
	}

	w.Header().Set("X-RateLimit-Window", strconv.Itoa(stats.Window))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(stats.ResetTime, 10))
	w.Header().Set("Retry-After", strconv.Itoa(stats.RetryAfter))

	h.writeError(w, r, apperror.New(apperror.KindRateLimitExceeded, "rate limit exceeded, try again later").
		WithDetail("limit", stats.Limit).
		WithDetail("window", stats.Window).
		WithDetail("retry_after", stats.RetryAfter))
	return stats, false
}
