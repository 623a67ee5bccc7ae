// Package payment starts a payment order and hands back the provider's
// redirect URL.
package payment

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"membership/internal/collaborators/rest"
	"membership/internal/registration/models"
)

// idempotencyNamespace scopes order idempotency keys.
var idempotencyNamespace = uuid.MustParse("6f1c2a8e-3d4b-5c6d-8e9f-0a1b2c3d4e5f")

// Client implements ports.PaymentGateway.
type Client struct {
	rest      *rest.Client
	returnURL string
}

// New builds a client. returnURL is where the provider sends the user back;
// the provider appends its own status query parameter.
func New(rc *rest.Client, returnURL string) *Client {
	return &Client{rest: rc, returnURL: returnURL}
}

type orderRequest struct {
	Registration models.Payload `json:"registration"`
	ReturnURL    string         `json:"returnUrl,omitempty"`
}

// Initiate creates an order for payload. Retries of the same submission
// attempt reuse one idempotency key.
func (c *Client) Initiate(ctx context.Context, payload models.Payload) (models.PaymentHandoff, error) {
	header := http.Header{}
	header.Set("Idempotency-Key", IdempotencyKey(payload))

	var out models.PaymentHandoff
	err := c.rest.DoWithHeader(ctx, http.MethodPost, "/orders", nil, header,
		orderRequest{Registration: payload, ReturnURL: c.returnURL}, &out)
	switch {
	case err == nil:
		return out, nil
	case rest.IsStatus(err, http.StatusConflict):
		return models.PaymentHandoff{}, &models.ExistenceCheckFailure{Kind: models.CheckPhoneRegistered}
	case rest.IsStatus(err, http.StatusBadRequest, http.StatusUnprocessableEntity):
		return models.PaymentHandoff{}, models.NewValidationError(models.StepPlan,
			models.FieldError{Field: "plan", Message: "the payment could not be started for this plan"})
	}
	return models.PaymentHandoff{}, rest.Normalize("payment_initiate", err)
}

// IdempotencyKey derives the order key from the phone, plan and submission
// time stamped into the payload metadata.
func IdempotencyKey(payload models.Payload) string {
	name := payload.Phone + "|" + payload.Plan + "|" + payload.Metadata["submittedAt"]
	return uuid.NewSHA1(idempotencyNamespace, []byte(name)).String()
}
