// Package idp is a thin client for the hosted identity provider service.
// It speaks the provider's JSON wire protocol (one POST endpoint, operation
// named in the X-Amz-Target header) and maps provider error bodies onto
// typed errors. Timeouts and retries belong to the supplied http.Client and
// the caller; this package never retries.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wombatcreek/poolauth/pkg/slogx"
)

const (
	targetPrefix = "AWSCognitoIdentityProviderService"
	contentType  = "application/x-amz-json-1.1"
)

// Client talks to one regional provider endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoint points the client at a non-default endpoint, e.g. a local
// fake in tests or a private deployment.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = strings.TrimSuffix(endpoint, "/") }
}

// WithRateLimit applies a client-side request rate cap so a busy process
// doesn't trip the provider's own throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient builds a client for the given region.
func NewClient(region string, opts ...Option) *Client {
	c := &Client{
		endpoint: fmt.Sprintf("https://cognito-idp.%s.amazonaws.com", region),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the endpoint URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// do performs one provider operation: marshal in, POST, map errors,
// unmarshal into out (which may be nil for operations with empty results).
func (c *Client) do(ctx context.Context, op string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("idp: rate limit wait: %w", err)
		}
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("idp: marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("idp: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Amz-Target", targetPrefix+"."+op)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("idp: %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("idp: read %s response: %w", op, err)
	}

	slogx.FromContext(ctx).Debug("provider_call", "op", op, "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(op, resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("idp: decode %s response: %w", op, err)
		}
	}
	return nil
}
