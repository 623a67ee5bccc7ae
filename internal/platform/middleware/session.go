package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	dErrors "membership/pkg/domain-errors"
	"membership/pkg/platform/httputil"
	"membership/pkg/requestcontext"
)

// SessionCookieName is the cookie holding the signed wizard session token.
const SessionCookieName = "membership_session"

// SessionTokens signs and validates wizard session tokens.
type SessionTokens interface {
	Issue(sessionID uuid.UUID, expiresIn time.Duration) (string, error)
	Validate(token string) (uuid.UUID, error)
}

// SessionOptions configure the cookie written by Session.
type SessionOptions struct {
	TTL    time.Duration
	Secure bool
	// Issue creates a session when the request carries none. Routes that only
	// make sense for an existing session leave it false.
	Issue bool
}

// Session binds the request to a wizard session id taken from the signed
// cookie. An invalid or missing cookie yields a fresh session when opts.Issue
// is set and a 401 otherwise.
func Session(tokens SessionTokens, opts SessionOptions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if c, err := r.Cookie(SessionCookieName); err == nil {
				id, verr := tokens.Validate(c.Value)
				if verr == nil {
					next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(ctx, id)))
					return
				}
				logger.WarnContext(ctx, "rejected wizard session cookie",
					"error", verr,
					"request_id", requestcontext.RequestID(ctx),
				)
			}

			if !opts.Issue {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no registration session"))
				return
			}
			id := uuid.New()
			token, err := tokens.Issue(id, opts.TTL)
			if err != nil {
				logger.ErrorContext(ctx, "failed to issue session token", "error", err)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "could not start a session"))
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				// Lax keeps the cookie on the top-level navigation back from
				// the payment provider.
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(ctx, id)))
		})
	}
}
