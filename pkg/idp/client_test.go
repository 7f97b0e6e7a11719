package idp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-region-1", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
}

func TestInitiateAuthWireFormat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, contentType, r.Header.Get("Content-Type"))
		require.Equal(t, targetPrefix+".InitiateAuth", r.Header.Get("X-Amz-Target"))

		var in InitiateAuthInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "app-client", in.ClientID)
		require.Equal(t, FlowUserSRPAuth, in.AuthFlow)
		require.Equal(t, "bob", in.AuthParameters["USERNAME"])

		_ = json.NewEncoder(w).Encode(InitiateAuthOutput{
			ChallengeName:       ChallengePasswordVerifier,
			ChallengeParameters: map[string]string{"SALT": "aa"},
		})
	})

	out, err := c.InitiateAuth(t.Context(), &InitiateAuthInput{
		ClientID:       "app-client",
		AuthFlow:       FlowUserSRPAuth,
		AuthParameters: map[string]string{"USERNAME": "bob", "SRP_A": "1234"},
	})
	require.NoError(t, err)
	require.Equal(t, ChallengePasswordVerifier, out.ChallengeName)
	require.Equal(t, "aa", out.ChallengeParameters["SALT"])
}

func TestRespondToAuthChallengeReturnsTokens(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, targetPrefix+".RespondToAuthChallenge", r.Header.Get("X-Amz-Target"))
		_ = json.NewEncoder(w).Encode(RespondToAuthChallengeOutput{
			AuthenticationResult: &AuthenticationResult{
				AccessToken:  "at",
				IDToken:      "it",
				RefreshToken: "rt",
			},
		})
	})

	out, err := c.RespondToAuthChallenge(t.Context(), &RespondToAuthChallengeInput{
		ClientID:      "app-client",
		ChallengeName: ChallengePasswordVerifier,
	})
	require.NoError(t, err)
	require.NotNil(t, out.AuthenticationResult)
	require.Equal(t, "at", out.AuthenticationResult.AccessToken)
}

func TestProviderRejectionSurfacesTypedError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"__type":"NotAuthorizedException","message":"Incorrect username or password."}`))
	})

	_, err := c.InitiateAuth(t.Context(), &InitiateAuthInput{ClientID: "app-client"})
	require.Error(t, err)
	require.True(t, IsNotAuthorized(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Incorrect username or password.", apiErr.Message)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestNamespacedErrorTypeIsTrimmed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"__type":"com.example.service#UserNotFoundException","message":"no such user"}`))
	})

	_, err := c.AdminGetUser(t.Context(), &AdminGetUserInput{UserPoolID: "p", Username: "ghost"})
	require.True(t, IsUserNotFound(err))
}

func TestUnparseableErrorBodyFallsBack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>gateway timeout</html>"))
	})

	_, err := c.InitiateAuth(t.Context(), &InitiateAuthInput{ClientID: "app-client"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UnknownError", apiErr.Type)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestDefaultEndpointFromRegion(t *testing.T) {
	c := NewClient("ap-southeast-2")
	require.Equal(t, "https://cognito-idp.ap-southeast-2.amazonaws.com", c.Endpoint())
}

func TestRateLimiterThrottlesLocally(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(InitiateAuthOutput{})
	})
	WithRateLimit(100, 1)(c)

	for range 3 {
		_, err := c.InitiateAuth(t.Context(), &InitiateAuthInput{ClientID: "app-client"})
		require.NoError(t, err)
	}
	require.Equal(t, 3, calls)
}
