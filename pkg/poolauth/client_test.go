package poolauth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/wombatcreek/poolauth/pkg/idp"
	"github.com/wombatcreek/poolauth/pkg/jwtx"
)

const (
	testPoolID   = "us-east-1_abcdEFGH"
	testClientID = "7a1b2c3d4e5f6g7h8i9j0k1l2m"
	testSecret   = "9h8g7f6e5d4c3b2a1z0y9x8w7v6u5t4s3r2q1p0o9n8m7l6k5j4i"
	testUsername = "bjensen"
	testPassword = "correct horse battery staple"
)

// mintToken builds a structurally valid JWT carrying exp. Signature
// verification is stubbed out in these tests; only the claim matters.
func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("stub-signing-key"))
	require.NoError(t, err)
	return signed
}

func freshResult(t *testing.T) *idp.AuthenticationResult {
	t.Helper()
	return &idp.AuthenticationResult{
		AccessToken:  mintToken(t, time.Now().Add(time.Hour)),
		IDToken:      mintToken(t, time.Now().Add(time.Hour)),
		RefreshToken: "refresh-token-1",
	}
}

// srpChallengeParams is a well-formed PASSWORD_VERIFIER parameter set. The
// values are arbitrary but valid; the handshake only needs them decodable.
func srpChallengeParams() map[string]string {
	return map[string]string{
		"USER_ID_FOR_SRP": "24601aa1-0000-4000-8000-c0ffee000001",
		"SALT":            "aabbccddeeff00112233445566778899",
		"SRP_B":           strings.Repeat("ab", 64),
		"SECRET_BLOCK":    base64.StdEncoding.EncodeToString([]byte("opaque-secret-block")),
	}
}

type stubProvider struct {
	mu sync.Mutex

	initiate func(*idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error)
	respond  func(*idp.RespondToAuthChallengeInput) (*idp.RespondToAuthChallengeOutput, error)
	admin    func(*idp.AdminInitiateAuthInput) (*idp.AdminInitiateAuthOutput, error)

	initiateIn []*idp.InitiateAuthInput
	respondIn  []*idp.RespondToAuthChallengeInput
	adminIn    []*idp.AdminInitiateAuthInput
}

func (p *stubProvider) InitiateAuth(_ context.Context, in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
	p.mu.Lock()
	p.initiateIn = append(p.initiateIn, in)
	p.mu.Unlock()
	return p.initiate(in)
}

func (p *stubProvider) RespondToAuthChallenge(_ context.Context, in *idp.RespondToAuthChallengeInput) (*idp.RespondToAuthChallengeOutput, error) {
	p.mu.Lock()
	p.respondIn = append(p.respondIn, in)
	p.mu.Unlock()
	return p.respond(in)
}

func (p *stubProvider) AdminInitiateAuth(_ context.Context, in *idp.AdminInitiateAuthInput) (*idp.AdminInitiateAuthOutput, error) {
	p.mu.Lock()
	p.adminIn = append(p.adminIn, in)
	p.mu.Unlock()
	return p.admin(in)
}

func (p *stubProvider) initiateCalls() []*idp.InitiateAuthInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*idp.InitiateAuthInput(nil), p.initiateIn...)
}

type stubVerifier struct {
	mu   sync.Mutex
	uses []string
	err  error
}

func (v *stubVerifier) Verify(_ context.Context, _ string, use string) (*jwtx.Claims, error) {
	v.mu.Lock()
	v.uses = append(v.uses, use)
	v.mu.Unlock()
	if v.err != nil {
		return nil, v.err
	}
	return &jwtx.Claims{TokenUse: use}, nil
}

func newTestClient(t *testing.T, provider AuthAPI, verifier jwtx.Verifier) *Client {
	t.Helper()
	if verifier == nil {
		verifier = &stubVerifier{}
	}
	c, err := New(Config{
		UserPoolID:   testPoolID,
		ClientID:     testClientID,
		ClientSecret: testSecret,
		Username:     testUsername,
		Provider:     provider,
		Verifier:     verifier,
	})
	require.NoError(t, err)
	return c
}

func TestAuthenticateSRPFlow(t *testing.T) {
	result := freshResult(t)
	provider := &stubProvider{
		initiate: func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
			return &idp.InitiateAuthOutput{
				ChallengeName:       idp.ChallengePasswordVerifier,
				ChallengeParameters: srpChallengeParams(),
				Session:             "session-1",
			}, nil
		},
		respond: func(in *idp.RespondToAuthChallengeInput) (*idp.RespondToAuthChallengeOutput, error) {
			return &idp.RespondToAuthChallengeOutput{AuthenticationResult: result}, nil
		},
	}
	verifier := &stubVerifier{}
	c := newTestClient(t, provider, verifier)

	require.NoError(t, c.Authenticate(context.Background(), testPassword))
	require.Equal(t, StateAuthenticated, c.State())
	require.Equal(t, result.AccessToken, c.Tokens().AccessToken)
	require.Equal(t, result.RefreshToken, c.Tokens().RefreshToken)
	require.Equal(t, []string{jwtx.UseAccess, jwtx.UseID}, verifier.uses)

	init := provider.initiateIn[0]
	require.Equal(t, idp.FlowUserSRPAuth, init.AuthFlow)
	require.Equal(t, testClientID, init.ClientID)
	require.Equal(t, testUsername, init.AuthParameters["USERNAME"])
	require.NotEmpty(t, init.AuthParameters["SRP_A"])
	require.NotEmpty(t, init.AuthParameters["SECRET_HASH"])

	resp := provider.respondIn[0]
	require.Equal(t, idp.ChallengePasswordVerifier, resp.ChallengeName)
	require.Equal(t, "session-1", resp.Session)
	// The proof answers for the server-assigned identity, not the alias.
	require.Equal(t, "24601aa1-0000-4000-8000-c0ffee000001", resp.ChallengeResponses["USERNAME"])
	require.NotEmpty(t, resp.ChallengeResponses["TIMESTAMP"])
	require.NotEmpty(t, resp.ChallengeResponses["PASSWORD_CLAIM_SIGNATURE"])
	require.Equal(t, srpChallengeParams()["SECRET_BLOCK"], resp.ChallengeResponses["PASSWORD_CLAIM_SECRET_BLOCK"])
}

func TestAuthenticateFreshEphemeralPerAttempt(t *testing.T) {
	provider := &stubProvider{
		initiate: func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
			return &idp.InitiateAuthOutput{
				ChallengeName:       idp.ChallengePasswordVerifier,
				ChallengeParameters: srpChallengeParams(),
			}, nil
		},
		respond: func(in *idp.RespondToAuthChallengeInput) (*idp.RespondToAuthChallengeOutput, error) {
			return &idp.RespondToAuthChallengeOutput{AuthenticationResult: freshResult(t)}, nil
		},
	}
	c := newTestClient(t, provider, nil)

	require.NoError(t, c.Authenticate(context.Background(), testPassword))
	require.NoError(t, c.Authenticate(context.Background(), testPassword))

	calls := provider.initiateCalls()
	require.Len(t, calls, 2)
	require.NotEqual(t, calls[0].AuthParameters["SRP_A"], calls[1].AuthParameters["SRP_A"])
}

func TestAuthenticateSurfacesChainedChallenge(t *testing.T) {
	provider := &stubProvider{
		initiate: func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
			return &idp.InitiateAuthOutput{
				ChallengeName:       idp.ChallengePasswordVerifier,
				ChallengeParameters: srpChallengeParams(),
				Session:             "session-1",
			}, nil
		},
		respond: func(in *idp.RespondToAuthChallengeInput) (*idp.RespondToAuthChallengeOutput, error) {
			return &idp.RespondToAuthChallengeOutput{
				ChallengeName: idp.ChallengeSoftwareTokenMFA,
				Session:       "session-2",
			}, nil
		},
	}
	c := newTestClient(t, provider, nil)

	err := c.Authenticate(context.Background(), testPassword)
	var challenge *ChallengeError
	require.ErrorAs(t, err, &challenge)
	require.Equal(t, idp.ChallengeSoftwareTokenMFA, challenge.Name)
	require.Equal(t, "session-2", challenge.Session)
	require.Equal(t, StateFailed, c.State())
	require.Empty(t, c.Tokens().AccessToken)
}

func TestAuthenticateProviderError(t *testing.T) {
	apiErr := &idp.APIError{Op: "InitiateAuth", Type: idp.ErrTypeNotAuthorized, Message: "bad credentials"}
	provider := &stubProvider{
		initiate: func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
			return nil, apiErr
		},
	}
	c := newTestClient(t, provider, nil)

	err := c.Authenticate(context.Background(), testPassword)
	require.ErrorIs(t, err, apiErr)
	require.Equal(t, StateFailed, c.State())
}

func TestAuthenticateVerifierRejects(t *testing.T) {
	provider := &stubProvider{
		initiate: func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
			return &idp.InitiateAuthOutput{AuthenticationResult: freshResult(t)}, nil
		},
	}
	verifier := &stubVerifier{err: jwtx.ErrSignature}
	c := newTestClient(t, provider, verifier)

	err := c.Authenticate(context.Background(), testPassword)
	var tokenErr *TokenVerificationError
	require.ErrorAs(t, err, &tokenErr)
	require.Equal(t, jwtx.UseAccess, tokenErr.Use)
	require.ErrorIs(t, err, jwtx.ErrSignature)
	require.Equal(t, StateFailed, c.State())
	require.Empty(t, c.Tokens().AccessToken)
}

func TestAuthenticateEmptyPassword(t *testing.T) {
	c := newTestClient(t, &stubProvider{}, nil)
	require.ErrorIs(t, c.Authenticate(context.Background(), ""), ErrParameterValidation)
}

func TestAdminAuthenticate(t *testing.T) {
	result := freshResult(t)
	provider := &stubProvider{
		admin: func(in *idp.AdminInitiateAuthInput) (*idp.AdminInitiateAuthOutput, error) {
			return &idp.AdminInitiateAuthOutput{AuthenticationResult: result}, nil
		},
	}
	c := newTestClient(t, provider, nil)

	require.NoError(t, c.AdminAuthenticate(context.Background(), testPassword))
	require.Equal(t, StateAuthenticated, c.State())

	in := provider.adminIn[0]
	require.Equal(t, idp.FlowAdminNoSRPAuth, in.AuthFlow)
	require.Equal(t, testPoolID, in.UserPoolID)
	require.Equal(t, testUsername, in.AuthParameters[idp.ParamUsername])
	require.Equal(t, testPassword, in.AuthParameters[idp.ParamPassword])
	require.NotEmpty(t, in.AuthParameters[idp.ParamSecretHash])
	// No SRP exchange happens on the admin path.
	require.Empty(t, provider.initiateIn)
	require.Empty(t, provider.respondIn)
}

// authenticatedClient returns a client already holding a token set, with the
// access token minted against exp.
func authenticatedClient(t *testing.T, exp time.Time, refresh func(*idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error)) (*Client, *stubProvider) {
	t.Helper()
	provider := &stubProvider{}
	provider.admin = func(in *idp.AdminInitiateAuthInput) (*idp.AdminInitiateAuthOutput, error) {
		return &idp.AdminInitiateAuthOutput{AuthenticationResult: &idp.AuthenticationResult{
			AccessToken:  mintToken(t, exp),
			IDToken:      mintToken(t, exp),
			RefreshToken: "refresh-token-1",
		}}, nil
	}
	provider.initiate = func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
		return refresh(in)
	}
	c := newTestClient(t, provider, nil)
	require.NoError(t, c.AdminAuthenticate(context.Background(), testPassword))
	return c, provider
}

func TestRenewAccessToken(t *testing.T) {
	renewed := mintToken(t, time.Now().Add(time.Hour))
	c, provider := authenticatedClient(t, time.Now().Add(-time.Minute), func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
		return &idp.InitiateAuthOutput{AuthenticationResult: &idp.AuthenticationResult{
			AccessToken: renewed,
			IDToken:     renewed,
		}}, nil
	})

	require.NoError(t, c.RenewAccessToken(context.Background()))
	require.Equal(t, StateAuthenticated, c.State())
	require.Equal(t, renewed, c.Tokens().AccessToken)
	// Provider did not rotate the refresh token, so the original stays.
	require.Equal(t, "refresh-token-1", c.Tokens().RefreshToken)

	in := provider.initiateCalls()[0]
	require.Equal(t, idp.FlowRefreshTokenAuth, in.AuthFlow)
	require.Equal(t, "refresh-token-1", in.AuthParameters[idp.ParamRefreshToken])
	require.NotEmpty(t, in.AuthParameters[idp.ParamSecretHash])
}

func TestRenewAdoptsRotatedRefreshToken(t *testing.T) {
	c, _ := authenticatedClient(t, time.Now().Add(-time.Minute), func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
		return &idp.InitiateAuthOutput{AuthenticationResult: &idp.AuthenticationResult{
			AccessToken:  mintToken(t, time.Now().Add(time.Hour)),
			IDToken:      mintToken(t, time.Now().Add(time.Hour)),
			RefreshToken: "refresh-token-2",
		}}, nil
	})

	require.NoError(t, c.RenewAccessToken(context.Background()))
	require.Equal(t, "refresh-token-2", c.Tokens().RefreshToken)
}

func TestRenewWithoutTokens(t *testing.T) {
	c := newTestClient(t, &stubProvider{}, nil)
	require.ErrorIs(t, c.RenewAccessToken(context.Background()), ErrNotAuthenticated)
}

func TestRenewSingleFlight(t *testing.T) {
	const workers = 8

	release := make(chan struct{})
	var refreshCalls int
	var callMu sync.Mutex

	renewed := mintToken(t, time.Now().Add(time.Hour))
	c, _ := authenticatedClient(t, time.Now().Add(-time.Minute), func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
		callMu.Lock()
		refreshCalls++
		callMu.Unlock()
		<-release
		return &idp.InitiateAuthOutput{AuthenticationResult: &idp.AuthenticationResult{
			AccessToken: renewed,
			IDToken:     renewed,
		}}, nil
	})

	var wg sync.WaitGroup
	errs := make([]error, workers)
	expired := make([]bool, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			expired[i], errs[i] = c.CheckToken(context.Background(), true)
		}(i)
	}

	close(start)
	// Give every worker time to reach the in-flight refresh before it is
	// allowed to complete.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.True(t, expired[i])
	}
	callMu.Lock()
	require.Equal(t, 1, refreshCalls)
	callMu.Unlock()
	require.Equal(t, renewed, c.Tokens().AccessToken)
}

func TestCheckTokenNotExpired(t *testing.T) {
	c, provider := authenticatedClient(t, time.Now().Add(time.Hour), func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
		t.Fatal("refresh must not run for a live token")
		return nil, nil
	})

	expired, err := c.CheckToken(context.Background(), true)
	require.NoError(t, err)
	require.False(t, expired)
	require.Empty(t, provider.initiateCalls())
}

func TestCheckTokenExpiredWithoutRenew(t *testing.T) {
	c, provider := authenticatedClient(t, time.Now().Add(-time.Minute), func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
		t.Fatal("refresh must not run without autoRenew")
		return nil, nil
	})

	expired, err := c.CheckToken(context.Background(), false)
	require.NoError(t, err)
	require.True(t, expired)
	require.Empty(t, provider.initiateCalls())
}

func TestCheckTokenExpiredReportsTrueAfterRenew(t *testing.T) {
	c, _ := authenticatedClient(t, time.Now().Add(-time.Minute), func(in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error) {
		return &idp.InitiateAuthOutput{AuthenticationResult: &idp.AuthenticationResult{
			AccessToken: mintToken(t, time.Now().Add(time.Hour)),
			IDToken:     mintToken(t, time.Now().Add(time.Hour)),
		}}, nil
	})

	// The bool reports the state at check time: the token HAD expired,
	// even though a fresh one is now installed.
	expired, err := c.CheckToken(context.Background(), true)
	require.NoError(t, err)
	require.True(t, expired)

	expired, err = c.CheckToken(context.Background(), true)
	require.NoError(t, err)
	require.False(t, expired)
}

func TestCheckTokenNotAuthenticated(t *testing.T) {
	c := newTestClient(t, &stubProvider{}, nil)
	_, err := c.CheckToken(context.Background(), false)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRespondToChallengeMergesIdentity(t *testing.T) {
	provider := &stubProvider{
		respond: func(in *idp.RespondToAuthChallengeInput) (*idp.RespondToAuthChallengeOutput, error) {
			return &idp.RespondToAuthChallengeOutput{AuthenticationResult: freshResult(t)}, nil
		},
	}
	c := newTestClient(t, provider, nil)

	challenge := &ChallengeError{Name: idp.ChallengeSoftwareTokenMFA, Session: "session-2"}
	err := c.RespondToChallenge(context.Background(), challenge, map[string]string{
		"SOFTWARE_TOKEN_MFA_CODE": "123456",
	})
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, c.State())

	in := provider.respondIn[0]
	require.Equal(t, "session-2", in.Session)
	require.Equal(t, testUsername, in.ChallengeResponses[idp.ParamUsername])
	require.Equal(t, "123456", in.ChallengeResponses["SOFTWARE_TOKEN_MFA_CODE"])
	require.NotEmpty(t, in.ChallengeResponses[idp.ParamSecretHash])
}

func TestAnswerMFAChallengeCodeKey(t *testing.T) {
	provider := &stubProvider{
		respond: func(in *idp.RespondToAuthChallengeInput) (*idp.RespondToAuthChallengeOutput, error) {
			return &idp.RespondToAuthChallengeOutput{AuthenticationResult: freshResult(t)}, nil
		},
	}
	c := newTestClient(t, provider, nil)

	err := c.AnswerMFAChallenge(context.Background(),
		&ChallengeError{Name: idp.ChallengeSMSMFA, Session: "s"}, "654321")
	require.NoError(t, err)
	require.Equal(t, "654321", provider.respondIn[0].ChallengeResponses["SMS_MFA_CODE"])

	err = c.AnswerMFAChallenge(context.Background(),
		&ChallengeError{Name: idp.ChallengeNewPasswordRequired}, "x")
	require.ErrorIs(t, err, ErrParameterValidation)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing client id", Config{UserPoolID: testPoolID, Username: testUsername}},
		{"missing username", Config{UserPoolID: testPoolID, ClientID: testClientID}},
		{"malformed pool id", Config{UserPoolID: "nopoolhere", ClientID: testClientID, Username: testUsername}},
		{"no region or endpoint", Config{UserPoolID: testPoolID, ClientID: testClientID, Username: testUsername}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			require.ErrorIs(t, err, ErrParameterValidation)
		})
	}
}

func TestChallengeErrorMessage(t *testing.T) {
	err := &ChallengeError{Name: idp.ChallengeSoftwareTokenMFA}
	require.Contains(t, err.Error(), idp.ChallengeSoftwareTokenMFA)
	require.False(t, errors.Is(err, ErrNotAuthenticated))
}
