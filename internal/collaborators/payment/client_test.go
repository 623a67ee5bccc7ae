package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership/internal/collaborators/rest"
	"membership/internal/registration/models"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	rc, err := rest.New(srv.URL, "", time.Second)
	require.NoError(t, err)
	return New(rc, "https://join.example/registration")
}

var payload = models.Payload{
	Phone:    "9998887770",
	Plan:     "annual",
	Metadata: map[string]string{"submittedAt": "2026-01-02T03:04:05Z"},
}

func TestInitiate(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, IdempotencyKey(payload), r.Header.Get("Idempotency-Key"))
		var body orderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://join.example/registration", body.ReturnURL)
		assert.Equal(t, "annual", body.Registration.Plan)
		_, _ = w.Write([]byte(`{"redirectUrl":"https://pay.example/c/1","orderId":"o-1"}`))
	})

	h, err := c.Initiate(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/c/1", h.RedirectURL)
	assert.Equal(t, "o-1", h.OrderID)
}

func TestInitiateFailures(t *testing.T) {
	t.Run("rejected plan", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnprocessableEntity) })
		_, err := c.Initiate(context.Background(), payload)
		var ve *models.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("outage", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) })
		_, err := c.Initiate(context.Background(), payload)
		var nf *models.NetworkFailure
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "payment_initiate", nf.Op)
	})
}

func TestIdempotencyKey(t *testing.T) {
	again := payload
	assert.Equal(t, IdempotencyKey(payload), IdempotencyKey(again))

	later := models.Payload{Phone: payload.Phone, Plan: payload.Plan, Metadata: map[string]string{"submittedAt": "2026-01-02T03:05:00Z"}}
	assert.NotEqual(t, IdempotencyKey(payload), IdempotencyKey(later))
}
