package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	dErrors "membership/pkg/domain-errors"
	"membership/pkg/platform/httputil"
	"membership/pkg/requestcontext"
)

// Middleware limits requests per client IP.
type Middleware struct {
	store  Store
	logger *slog.Logger
}

func NewMiddleware(store Store, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{store: store, logger: logger}
}

// PerIP refuses requests beyond rule for the client IP in scope. Store
// failures let the request through.
func (m *Middleware) PerIP(scope string, rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !rule.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			key := scope + ":ip:" + SanitizeKeySegment(ip)

			result, err := m.store.Allow(ctx, key, rule.Limit, rule.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, result)
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded", "scope", scope)
				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
