package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/verify/v2"

	"membership/internal/registration/models"
)

type fakeAPI struct {
	to, code, channel string
	status            string
	err               error
}

func (f *fakeAPI) CreateVerification(_ string, p *openapi.CreateVerificationParams) (*openapi.VerifyV2Verification, error) {
	f.to, f.channel = *p.To, *p.Channel
	if f.err != nil {
		return nil, f.err
	}
	status := "pending"
	return &openapi.VerifyV2Verification{Status: &status}, nil
}

func (f *fakeAPI) CreateVerificationCheck(_ string, p *openapi.CreateVerificationCheckParams) (*openapi.VerifyV2VerificationCheck, error) {
	f.to, f.code = *p.To, *p.Code
	if f.err != nil {
		return nil, f.err
	}
	return &openapi.VerifyV2VerificationCheck{Status: &f.status}, nil
}

func TestSend(t *testing.T) {
	api := &fakeAPI{}
	v := New(api, "VA123", nil)

	require.NoError(t, v.Send(context.Background(), "9998887770"))
	assert.Equal(t, "+919998887770", api.to)
	assert.Equal(t, "sms", api.channel)

	api.err = errors.New("dial tcp: timeout")
	err := v.Send(context.Background(), "9998887770")
	var nf *models.NetworkFailure
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "otp_send", nf.Op)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("approved", func(t *testing.T) {
		api := &fakeAPI{status: "approved"}
		ok, err := New(api, "VA123", nil, WithCountryPrefix("+1")).Check(ctx, "5550100", "123456")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "+15550100", api.to)
		assert.Equal(t, "123456", api.code)
	})

	t.Run("wrong code", func(t *testing.T) {
		ok, err := New(&fakeAPI{status: "pending"}, "VA123", nil).Check(ctx, "9998887770", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired verification", func(t *testing.T) {
		api := &fakeAPI{err: &twclient.TwilioRestError{Code: 20404, Status: 404}}
		ok, err := New(api, "VA123", nil).Check(ctx, "9998887770", "123456")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("outage", func(t *testing.T) {
		api := &fakeAPI{err: &twclient.TwilioRestError{Code: 20500, Status: 500}}
		_, err := New(api, "VA123", nil).Check(ctx, "9998887770", "123456")
		var nf *models.NetworkFailure
		assert.ErrorAs(t, err, &nf)
	})
}
