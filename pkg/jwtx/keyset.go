package jwtx

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// wellKnownPath is where an issuer publishes its key set.
const wellKnownPath = "/.well-known/jwks.json"

// RemoteKeySet caches the signing keys published by one issuer. Keys are
// fetched lazily: the cache starts empty and is repopulated whenever a
// verification encounters a key id it doesn't know. That keeps key rotation
// working without a remote call on every verification.
type RemoteKeySet struct {
	issuer string
	client *http.Client

	mu  sync.RWMutex
	pub map[string]*rsa.PublicKey // kid -> key
}

// NewRemoteKeySet builds a key set for the given issuer URL
// (e.g. "https://idp.example.com/ap-southeast-2_AbCdEfGh").
// httpClient may be nil, in which case http.DefaultClient is used.
func NewRemoteKeySet(issuer string, httpClient *http.Client) *RemoteKeySet {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteKeySet{
		issuer: issuer,
		client: httpClient,
		pub:    make(map[string]*rsa.PublicKey),
	}
}

// Issuer returns the issuer URL this key set serves.
func (k *RemoteKeySet) Issuer() string { return k.issuer }

// Get returns the cached public key for kid, if present.
func (k *RemoteKeySet) Get(kid string) (*rsa.PublicKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	pub, ok := k.pub[kid]
	return pub, ok
}

// Add primes the cache with a key. Mostly useful in tests.
func (k *RemoteKeySet) Add(j JWK) error {
	pub, err := parseJWKToKey(j)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[j.Kid] = pub
	return nil
}

// Refresh fetches the issuer's published key set and replaces the cache
// contents with it. Callers invoke this at most once per verification.
func (k *RemoteKeySet) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.issuer+wellKnownPath, nil)
	if err != nil {
		return fmt.Errorf("jwtx: build key set request: %w", err)
	}

	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("jwtx: fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwtx: key set endpoint returned %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("jwtx: decode key set: %w", err)
	}

	pub := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, j := range jwks.Keys {
		key, err := parseJWKToKey(j)
		if err != nil {
			return fmt.Errorf("jwtx: key %q: %w", j.Kid, err)
		}
		pub[j.Kid] = key
	}

	k.mu.Lock()
	k.pub = pub
	k.mu.Unlock()
	return nil
}
