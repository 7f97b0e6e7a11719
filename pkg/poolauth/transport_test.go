package poolauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wombatcreek/poolauth/pkg/idp"
)

func srpProvider(t *testing.T, result *idp.AuthenticationResult) *stubProvider {
	t.Helper()
	return &stubProvider{
		initiate: func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
			return &idp.InitiateAuthOutput{
				ChallengeName:       idp.ChallengePasswordVerifier,
				ChallengeParameters: srpChallengeParams(),
			}, nil
		},
		respond: func(in *idp.RespondToAuthChallengeInput) (*idp.RespondToAuthChallengeOutput, error) {
			return &idp.RespondToAuthChallengeOutput{AuthenticationResult: result}, nil
		},
	}
}

func TestTransportAttachesBearer(t *testing.T) {
	result := freshResult(t)
	c := newTestClient(t, srpProvider(t, result), nil)

	tr, err := NewTransport(context.Background(), c, testPassword, nil)
	require.NoError(t, err)
	// Eager authentication happened at construction.
	require.Equal(t, StateAuthenticated, c.State())

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer "+result.AccessToken, got)
	// The caller's request is untouched; RoundTrip works on a clone.
	require.Empty(t, req.Header.Get("Authorization"))
}

func TestTransportRenewsExpiredToken(t *testing.T) {
	expiredResult := &idp.AuthenticationResult{
		AccessToken:  mintToken(t, time.Now().Add(-time.Minute)),
		IDToken:      mintToken(t, time.Now().Add(-time.Minute)),
		RefreshToken: "refresh-token-1",
	}
	provider := srpProvider(t, expiredResult)
	c := newTestClient(t, provider, nil)

	tr, err := NewTransport(context.Background(), c, testPassword, nil)
	require.NoError(t, err)

	renewed := mintToken(t, time.Now().Add(time.Hour))
	provider.mu.Lock()
	provider.initiate = func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
		require.Equal(t, idp.FlowRefreshTokenAuth, in.AuthFlow)
		return &idp.InitiateAuthOutput{AuthenticationResult: &idp.AuthenticationResult{
			AccessToken: renewed,
			IDToken:     renewed,
		}}, nil
	}
	provider.mu.Unlock()

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer "+renewed, got)
}

func TestTransportFailsFastOnBadCredential(t *testing.T) {
	apiErr := &idp.APIError{Op: "InitiateAuth", Type: idp.ErrTypeNotAuthorized, Message: "nope"}
	provider := &stubProvider{
		initiate: func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
			return nil, apiErr
		},
	}
	c := newTestClient(t, provider, nil)

	_, err := NewTransport(context.Background(), c, testPassword, nil)
	require.ErrorIs(t, err, apiErr)
}
