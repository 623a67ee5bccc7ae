package members

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
	rc, err := rest.New(srv.URL, "k", time.Second)
	require.NoError(t, err)
	return New(rc, nil)
}

func TestPhoneExists(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/members/lookup", r.URL.Path)
		exists := r.URL.Query().Get("phone") == "9998887770"
		_ = json.NewEncoder(w).Encode(map[string]bool{"exists": exists})
	})

	exists, err := c.PhoneExists(context.Background(), "9998887770")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.PhoneExists(context.Background(), "9000000000")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPhoneExistsOutage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.PhoneExists(context.Background(), "9998887770")
	var nf *models.NetworkFailure
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "phone_uniqueness", nf.Op)
}

func TestReferralExists(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/referrals/AB-123":
			w.WriteHeader(http.StatusOK)
		case "/referrals/BROKEN":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	ok, err := c.ReferralExists(ctx, "AB-123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ReferralExists(ctx, "ZZ-999")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.ReferralExists(ctx, "BROKEN")
	var nf *models.NetworkFailure
	assert.ErrorAs(t, err, &nf)
}

func TestRegister(t *testing.T) {
	payload := models.Payload{Phone: "9998887770", Plan: "annual"}

	t.Run("created", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			var got models.Payload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, "annual", got.Plan)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"memberId":"M-42"}`))
		})
		reg, err := c.Register(context.Background(), payload)
		require.NoError(t, err)
		assert.Equal(t, "M-42", reg.MemberID)
	})

	t.Run("phone taken meanwhile", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		})
		_, err := c.Register(context.Background(), payload)
		var ecf *models.ExistenceCheckFailure
		require.ErrorAs(t, err, &ecf)
		assert.Equal(t, models.CheckPhoneRegistered, ecf.Kind)
	})

	t.Run("field errors", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"errors":[{"field":"plan","message":"plan retired"}]}`))
		})
		_, err := c.Register(context.Background(), payload)
		var ve *models.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []models.FieldError{{Field: "plan", Message: "plan retired"}}, ve.Fields)
	})

	t.Run("outage", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.Register(context.Background(), payload)
		var nf *models.NetworkFailure
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "register", nf.Op)
	})
}
