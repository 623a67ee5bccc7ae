// Package members talks to the member registry: phone uniqueness, referral
// lookup and direct registration.
package members

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"membership/internal/collaborators/rest"
	"membership/internal/registration/models"
)

// Client implements ports.PhoneRegistry, ports.ReferralRegistry and
// ports.Registrar over the registry's HTTP API.
type Client struct {
	rest   *rest.Client
	logger *slog.Logger
}

func New(rc *rest.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{rest: rc, logger: logger}
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

// PhoneExists reports whether phone already belongs to a member.
func (c *Client) PhoneExists(ctx context.Context, phone string) (bool, error) {
	var resp existsResponse
	err := c.rest.Do(ctx, http.MethodGet, "/members/lookup", url.Values{"phone": {phone}}, nil, &resp)
	if err != nil {
		return false, rest.Normalize("phone_uniqueness", err)
	}
	return resp.Exists, nil
}

// ReferralExists reports whether code is a known referral code. The
// registry answers 404 for unknown codes.
func (c *Client) ReferralExists(ctx context.Context, code string) (bool, error) {
	err := c.rest.Do(ctx, http.MethodGet, "/referrals/"+url.PathEscape(code), nil, nil, nil)
	if rest.IsStatus(err, http.StatusNotFound) {
		return false, nil
	}
	if err != nil {
		return false, rest.Normalize("referral_lookup", err)
	}
	return true, nil
}

type registerResponse struct {
	MemberID string `json:"memberId"`
}

type rejection struct {
	Errors []models.FieldError `json:"errors"`
}

// Register creates the member. A 409 means the phone was registered since
// the wizard checked it; a 422 carries field errors for the final step.
func (c *Client) Register(ctx context.Context, payload models.Payload) (models.Registration, error) {
	var resp registerResponse
	err := c.rest.Do(ctx, http.MethodPost, "/members", nil, payload, &resp)
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "member registered", "member_id", resp.MemberID, "phone", models.MaskPhone(payload.Phone))
		return models.Registration{MemberID: resp.MemberID}, nil
	case rest.IsStatus(err, http.StatusConflict):
		return models.Registration{}, &models.ExistenceCheckFailure{Kind: models.CheckPhoneRegistered}
	case rest.IsStatus(err, http.StatusUnprocessableEntity, http.StatusBadRequest):
		return models.Registration{}, models.NewValidationError(models.StepPlan, fieldErrors(err)...)
	}
	return models.Registration{}, rest.Normalize("register", err)
}

func fieldErrors(err error) []models.FieldError {
	var se *rest.StatusError
	var rej rejection
	if errors.As(err, &se) && json.Unmarshal(se.Body, &rej) == nil && len(rej.Errors) > 0 {
		return rej.Errors
	}
	return []models.FieldError{{Field: "form", Message: "the registration was rejected, please review your details"}}
}
