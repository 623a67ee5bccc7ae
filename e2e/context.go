//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"membership/internal/app"
	"membership/internal/platform/config"
	"membership/internal/platform/metrics"
	"membership/internal/platform/middleware"
)

const adminToken = "e2e-admin-token"

// TestContext drives one scenario: an in-process service, the fake
// registry behind it and a browser-like client with a cookie jar.
type TestContext struct {
	Registry *Registry

	svc    *app.App
	server *httptest.Server
	client *http.Client
	cancel context.CancelFunc

	lastStatus int
	lastBody   []byte
}

func NewTestContext() *TestContext {
	return &TestContext{Registry: NewRegistry()}
}

// StartService boots the router. Drafts stay in memory and reference data
// comes from the embedded seed. A zero sessionLimit disables throttling.
func (tc *TestContext) StartService(referral bool, sessionLimit int) error {
	if tc.server != nil {
		return fmt.Errorf("service already running")
	}
	cfg := config.Server{
		Environment:       "e2e",
		SessionSigningKey: "e2e-signing-key",
		SessionTTL:        time.Hour,
		AdminToken:        adminToken,
		Registration: config.Registration{
			DraftBackend:   "memory",
			DraftTTL:       time.Hour,
			Referral:       referral,
			Plans:          []string{"annual", "lifetime"},
			MaxUploadBytes: 1 << 20,
			SessionIdleTTL: 30 * time.Minute,
			Language:       "en",
		},
		Collaborators: config.Collaborators{
			MembersURL: tc.Registry.URL(),
			UploadURL:  tc.Registry.URL(),
			Timeout:    5 * time.Second,
		},
		RateLimit: config.RateLimitConfig{
			SessionLimit:  sessionLimit,
			SessionWindow: time.Minute,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	reg := prometheus.NewRegistry()
	svc, err := app.New(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), reg)
	if err != nil {
		cancel()
		return err
	}
	go func() { _ = svc.Run(ctx) }()

	jar, err := cookiejar.New(nil)
	if err != nil {
		cancel()
		svc.Close()
		return err
	}
	tc.svc = svc
	tc.cancel = cancel
	tc.server = httptest.NewServer(svc.Router(reg, metrics.NewWithRegisterer(reg)))
	tc.client = &http.Client{Jar: jar, Timeout: 10 * time.Second}
	return nil
}

func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
	if tc.cancel != nil {
		tc.cancel()
	}
	if tc.svc != nil {
		tc.svc.Close()
	}
	tc.Registry.Close()
}

// ForgetSession drops the session cookie, as a new browser would.
func (tc *TestContext) ForgetSession() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	tc.client.Jar = jar
	return nil
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.send(http.MethodGet, path, nil, "", headers)
}

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.sendJSON(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body interface{}) error {
	return tc.sendJSON(http.MethodPut, path, body)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.send(http.MethodDelete, path, nil, "", nil)
}

// Upload posts data as the "file" part of a multipart form.
func (tc *TestContext) Upload(path, filename string, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return tc.send(http.MethodPost, path, &body, mw.FormDataContentType(), nil)
}

func (tc *TestContext) GetLastResponseStatus() int { return tc.lastStatus }

func (tc *TestContext) GetLastResponseBody() []byte { return tc.lastBody }

// GetResponseField reads a dotted path from the last JSON body. Numeric
// segments index into arrays.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	cur := doc
	for _, seg := range strings.Split(field, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response", field)
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", seg, field)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return cur, nil
}

func (tc *TestContext) ResponseContains(field string) bool {
	_, err := tc.GetResponseField(field)
	return err == nil
}

func (tc *TestContext) AdminHeaders() map[string]string {
	return map[string]string{middleware.AdminTokenHeader: adminToken}
}

func (tc *TestContext) sendJSON(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	return tc.send(method, path, reader, "application/json", nil)
}

func (tc *TestContext) send(method, path string, body io.Reader, contentType string, headers map[string]string) error {
	if tc.server == nil {
		return fmt.Errorf("service is not running")
	}
	req, err := http.NewRequest(method, tc.server.URL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" && body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}
