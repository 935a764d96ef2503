package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/ratelimit"
)

// RateLimit returns a middleware that applies the limiter to every
// request, deriving the key with keyFn. The rate limit headers are set
// on every response; a denial additionally carries Retry-After and a
// RATE_LIMITED body.
func RateLimit(limiter ratelimit.Limiter, keyFn ratelimit.KeyFunc, logger observability.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)

			result, err := limiter.Check(r.Context(), key)
			if err != nil {
				logger.Error("rate limit check failed",
					observability.String("key", key),
					observability.Error(err),
				)
				// Admission state is unavailable; failing open keeps the
				// service usable, the denial path is best-effort anyway.
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				logger.Warn("rate limit exceeded",
					observability.String("key", key),
					observability.String("path", r.URL.Path),
				)

				retryAfter := int(result.RetryAfter.Seconds())
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfter))
				w.Header().Set(HeaderContentType, ContentTypeJSON)
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"code":        "RATE_LIMITED",
					"message":     "rate limit exceeded",
					"retry_after": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders exposes the admission state to the caller.
func setRateLimitHeaders(w http.ResponseWriter, result *ratelimit.Result) {
	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(result.Limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
	w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(result.ResetAt.Unix(), 10))
}
