package poolauth

import (
	"context"
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that keeps outbound requests carrying a
// live bearer token. Before each request it checks the access token's expiry
// locally and renews through the shared client when needed, so every
// consumer of the wrapped http.Client rides the same single-flight refresh.
type Transport struct {
	client *Client
	next   http.RoundTripper
}

// NewTransport authenticates eagerly with password so a misconfigured
// credential fails at construction rather than on the first request, then
// returns the ready transport. A nil next means http.DefaultTransport.
func NewTransport(ctx context.Context, client *Client, password string, next http.RoundTripper) (*Transport, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client is required", ErrParameterValidation)
	}
	if err := client.Authenticate(ctx, password); err != nil {
		return nil, err
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{client: client, next: next}, nil
}

// RoundTrip attaches the bearer token and forwards the request. The request
// is cloned before mutation, as the RoundTripper contract requires.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, err := t.client.CheckToken(req.Context(), true); err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+t.client.Tokens().AccessToken)
	return t.next.RoundTrip(out)
}
