package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership/internal/platform/config"
	"membership/internal/platform/metrics"
	"membership/internal/platform/middleware"
)

func testConfig(collaboratorURL string) config.Server {
	return config.Server{
		Environment:       "test",
		SessionSigningKey: "test-signing-key",
		SessionTTL:        time.Hour,
		Registration: config.Registration{
			DraftBackend:   "memory",
			Plans:          []string{"annual"},
			MaxUploadBytes: 1 << 20,
			SessionIdleTTL: time.Minute,
			Language:       "en",
		},
		Collaborators: config.Collaborators{
			MembersURL: collaboratorURL,
			UploadURL:  collaboratorURL,
			Timeout:    time.Second,
		},
		RateLimit: config.RateLimitConfig{SessionLimit: 2, SessionWindow: time.Minute},
	}
}

func newTestApp(t *testing.T, cfg config.Server) (*App, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), reg)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, reg
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := testConfig("")
	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEMBERS_URL")
}

func TestNewRejectsUnusableBackends(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("redis backend without redis", func(t *testing.T) {
		cfg := testConfig("http://registry.invalid")
		cfg.Registration.DraftBackend = draftBackendRedis
		_, err := New(context.Background(), cfg, logger, prometheus.NewRegistry())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_URL")
	})

	t.Run("postgres backend without dsn", func(t *testing.T) {
		cfg := testConfig("http://registry.invalid")
		cfg.Registration.DraftBackend = draftBackendPg
		_, err := New(context.Background(), cfg, logger, prometheus.NewRegistry())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("phone verification without twilio", func(t *testing.T) {
		cfg := testConfig("http://registry.invalid")
		cfg.Registration.PhoneVerification = true
		_, err := New(context.Background(), cfg, logger, prometheus.NewRegistry())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TWILIO")
	})

	t.Run("payment without provider", func(t *testing.T) {
		cfg := testConfig("http://registry.invalid")
		cfg.Registration.Payment = true
		_, err := New(context.Background(), cfg, logger, prometheus.NewRegistry())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PAYMENT_URL")
	})
}

func TestRouter(t *testing.T) {
	svc, reg := newTestApp(t, testConfig("http://registry.invalid"))
	server := httptest.NewServer(svc.Router(reg, metrics.NewWithRegisterer(reg)))
	defer server.Close()

	t.Run("health reports the draft store", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("reference data comes from the seed", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/reference/state")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("admin routes are not mounted without a token", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/admin/registration/events")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("session creation is throttled", func(t *testing.T) {
		var last int
		for i := 0; i < 3; i++ {
			resp, err := http.Post(server.URL+"/registration/session", "application/json", nil)
			require.NoError(t, err)
			resp.Body.Close()
			last = resp.StatusCode
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})
}

func TestRouterAdminEvents(t *testing.T) {
	cfg := testConfig("http://registry.invalid")
	cfg.AdminToken = "operator-token"
	svc, _ := newTestApp(t, cfg)
	server := httptest.NewServer(svc.Router(nil, nil))
	defer server.Close()

	resp, err := http.Get(server.URL + "/admin/registration/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/admin/registration/events", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.AdminTokenHeader, "operator-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunStopsWithContext(t *testing.T) {
	svc, _ := newTestApp(t, testConfig("http://registry.invalid"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, svc.Run(ctx))
}
