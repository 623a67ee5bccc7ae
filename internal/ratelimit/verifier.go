package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	"membership/internal/registration/ports"
	dErrors "membership/pkg/domain-errors"
)

// Verifier throttles verification code sends per phone number. Checks pass
// straight through.
type Verifier struct {
	next   ports.Verifier
	store  Store
	rule   Rule
	logger *slog.Logger
}

func NewVerifier(next ports.Verifier, store Store, rule Rule, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{next: next, store: store, rule: rule, logger: logger}
}

func (v *Verifier) Send(ctx context.Context, phone string) error {
	if v.rule.Enabled() {
		result, err := v.store.Allow(ctx, "otp:phone:"+SanitizeKeySegment(phone), v.rule.Limit, v.rule.Window)
		switch {
		case err != nil:
			v.logger.ErrorContext(ctx, "otp rate limit check failed", "error", err)
		case !result.Allowed:
			return dErrors.New(dErrors.CodeRateLimited,
				fmt.Sprintf("too many verification codes requested, try again in %s", result.RetryAfter))
		}
	}
	return v.next.Send(ctx, phone)
}

func (v *Verifier) Check(ctx context.Context, phone, code string) (bool, error) {
	return v.next.Check(ctx, phone, code)
}
