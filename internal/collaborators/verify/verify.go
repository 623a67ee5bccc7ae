// Package verify sends and checks phone one-time codes through Twilio Verify.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/verify/v2"

	"membership/internal/registration/models"
)

const (
	approved = "approved"
	// Twilio answers 20404 when no pending verification exists for the number,
	// which happens once a code expired or was used up.
	codeNotFound = 20404
)

// API is the slice of the Twilio Verify service this package uses.
type API interface {
	CreateVerification(serviceSid string, params *openapi.CreateVerificationParams) (*openapi.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *openapi.CreateVerificationCheckParams) (*openapi.VerifyV2VerificationCheck, error)
}

// Verifier implements ports.Verifier.
type Verifier struct {
	api        API
	serviceSID string
	prefix     string
	logger     *slog.Logger
}

type Option func(*Verifier)

// WithCountryPrefix sets the E.164 prefix added to the ten-digit local
// numbers the wizard collects. Defaults to +91.
func WithCountryPrefix(p string) Option {
	return func(v *Verifier) { v.prefix = p }
}

// NewTwilio builds a Verifier on a Twilio REST client.
func NewTwilio(accountSID, authToken, serviceSID string, logger *slog.Logger, opts ...Option) *Verifier {
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return New(rc.VerifyV2, serviceSID, logger, opts...)
}

func New(api API, serviceSID string, logger *slog.Logger, opts ...Option) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Verifier{api: api, serviceSID: serviceSID, prefix: "+91", logger: logger}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Send starts an SMS verification for phone.
func (v *Verifier) Send(ctx context.Context, phone string) error {
	if err := ctx.Err(); err != nil {
		return &models.NetworkFailure{Op: "otp_send", Err: err}
	}
	params := &openapi.CreateVerificationParams{}
	params.SetTo(v.prefix + phone)
	params.SetChannel("sms")

	resp, err := v.api.CreateVerification(v.serviceSID, params)
	if err != nil {
		return &models.NetworkFailure{Op: "otp_send", Err: err}
	}
	v.logger.DebugContext(ctx, "verification code sent", "status", deref(resp.Status))
	return nil
}

// Check reports whether code is the pending code for phone. An expired or
// exhausted verification is a rejection, not a failure.
func (v *Verifier) Check(ctx context.Context, phone, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &models.NetworkFailure{Op: "otp_check", Err: err}
	}
	params := &openapi.CreateVerificationCheckParams{}
	params.SetTo(v.prefix + phone)
	params.SetCode(code)

	resp, err := v.api.CreateVerificationCheck(v.serviceSID, params)
	if err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) && (restErr.Code == codeNotFound || restErr.Status == http.StatusNotFound) {
			return false, nil
		}
		return false, &models.NetworkFailure{Op: "otp_check", Err: err}
	}
	return deref(resp.Status) == approved, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
