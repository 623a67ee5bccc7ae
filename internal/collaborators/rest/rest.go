// Package rest is the JSON-over-HTTP plumbing shared by the collaborator
// clients. It knows nothing about the registration domain beyond mapping
// transport failures onto models.NetworkFailure.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"membership/internal/registration/models"
	"membership/pkg/platform/circuit"
	"membership/pkg/requestcontext"
)

// maxResponseBytes bounds what is read from a collaborator.
const maxResponseBytes = 1 << 20

// Client sends requests to one collaborator base URL.
type Client struct {
	base    *url.URL
	apiKey  string
	http    *http.Client
	breaker *circuit.Breaker
}

// ErrCircuitOpen is returned without a network call while the collaborator
// is considered down.
var ErrCircuitOpen = errors.New("collaborator temporarily unavailable")

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithBreaker fails calls fast while b is open. Transport errors, 5xx and
// 429 answers count as failures.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// New builds a client for baseURL. apiKey, when set, is sent as a bearer token.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse collaborator url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("collaborator url %q must be http or https", baseURL)
	}
	c := &Client{base: u, apiKey: apiKey, http: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StatusError is a non-2xx answer.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collaborator answered %d", e.Status)
}

// NewRequest builds a request for path (relative to the base URL) carrying
// the API key and the current request id.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	return req, nil
}

// Do sends in as JSON (nil sends no body) and decodes a 2xx answer into out
// (nil discards it). Non-2xx answers return *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	return c.DoWithHeader(ctx, method, path, query, nil, in, out)
}

// DoWithHeader is Do with extra request headers.
func (c *Client) DoWithHeader(ctx context.Context, method, path string, query url.Values, header http.Header, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	req, err := c.NewRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return c.Send(req, out)
}

// Send executes req and decodes the answer like Do.
func (c *Client) Send(req *http.Request, out any) error {
	if c.breaker != nil && !c.breaker.Allow() {
		return ErrCircuitOpen
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(false)
		return err
	}
	defer resp.Body.Close()
	c.record(resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: data}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) record(ok bool) {
	if c.breaker == nil {
		return
	}
	if ok {
		c.breaker.RecordSuccess()
		return
	}
	c.breaker.RecordFailure()
}

// Normalize maps transport failures and 5xx or 429 statuses onto a
// NetworkFailure for op. Other status errors are
// returned unchanged for the caller to interpret.
func Normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	var nf *models.NetworkFailure
	if errors.As(err, &nf) {
		return err
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Status >= http.StatusInternalServerError || se.Status == http.StatusTooManyRequests {
			return &models.NetworkFailure{Op: op, Err: err}
		}
		return err
	}
	return &models.NetworkFailure{Op: op, Err: err}
}

// IsStatus reports whether err is a StatusError with one of codes.
func IsStatus(err error, codes ...int) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.Status == c {
			return true
		}
	}
	return false
}
