// Package poolauth owns a client's credential set against a hosted identity
// pool: it sequences the SRP handshake, verifies the tokens the provider
// mints, and keeps the access token fresh for the lifetime of the process.
//
// A Client is safe for concurrent use. The token set and lifecycle state
// live behind one mutex, full handshakes are serialised so two attempts can
// never interleave ephemeral keypairs, and refresh is single-flight: callers
// that observe an expired token while a refresh is underway wait for that
// refresh instead of starting their own.
package poolauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wombatcreek/poolauth/pkg/idp"
	"github.com/wombatcreek/poolauth/pkg/jwtx"
	"github.com/wombatcreek/poolauth/pkg/slogx"
	"github.com/wombatcreek/poolauth/pkg/srp"
)

// AuthAPI is the slice of the identity provider service the authentication
// paths consume. *idp.Client satisfies it; tests stub it.
type AuthAPI interface {
	InitiateAuth(ctx context.Context, in *idp.InitiateAuthInput) (*idp.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, in *idp.RespondToAuthChallengeInput) (*idp.RespondToAuthChallengeOutput, error)
	AdminInitiateAuth(ctx context.Context, in *idp.AdminInitiateAuthInput) (*idp.AdminInitiateAuthOutput, error)
}

// DirectoryAPI is the slice serving the user/group pass-through helpers.
type DirectoryAPI interface {
	SignUp(ctx context.Context, in *idp.SignUpInput) (*idp.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *idp.ConfirmSignUpInput) error
	GetUser(ctx context.Context, in *idp.GetUserInput) (*idp.GetUserOutput, error)
	ChangePassword(ctx context.Context, in *idp.ChangePasswordInput) error
	UpdateUserAttributes(ctx context.Context, in *idp.UpdateUserAttributesInput) error
	GlobalSignOut(ctx context.Context, in *idp.GlobalSignOutInput) error
	AdminGetUser(ctx context.Context, in *idp.AdminGetUserInput) (*idp.AdminGetUserOutput, error)
	AdminUpdateUserAttributes(ctx context.Context, in *idp.AdminUpdateUserAttributesInput) error
	ListUsers(ctx context.Context, in *idp.ListUsersInput) (*idp.ListUsersOutput, error)
	ListGroups(ctx context.Context, in *idp.ListGroupsInput) (*idp.ListGroupsOutput, error)
}

// Config describes one user's binding to one app client of one pool.
type Config struct {
	UserPoolID   string // full pool id, e.g. "ap-southeast-2_AbCdEfGh"
	ClientID     string
	ClientSecret string // empty when the app client has no secret
	Username     string // login alias
	Region       string

	// Endpoint overrides the provider endpoint (tests, private deployments).
	Endpoint string

	// IssuerURL overrides the token issuer / key-set base URL. Defaults to
	// the regional issuer for UserPoolID.
	IssuerURL string

	HTTPClient *http.Client
	Logger     *slog.Logger

	// Provider and Verifier are injectable for tests. When nil they are
	// built from the fields above.
	Provider AuthAPI
	Verifier jwtx.Verifier
}

// Client is the token lifecycle manager. It is the sole owner of the token
// set; nothing else mutates it.
type Client struct {
	cfg      Config
	provider AuthAPI
	dir      DirectoryAPI // nil when the provider lacks directory ops
	verifier jwtx.Verifier
	logger   *slog.Logger

	authMu  sync.Mutex // serialises whole handshake attempts
	refresh singleflight.Group

	mu     sync.Mutex // guards state and tokens
	state  State
	tokens TokenSet
}

// New builds a Client in StateUnauthenticated.
func New(cfg Config) (*Client, error) {
	switch {
	case cfg.ClientID == "":
		return nil, fmt.Errorf("%w: client id is required", ErrParameterValidation)
	case cfg.Username == "":
		return nil, fmt.Errorf("%w: username is required", ErrParameterValidation)
	}
	if _, err := srp.PoolName(cfg.UserPoolID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParameterValidation, err)
	}

	c := &Client{
		cfg:      cfg,
		provider: cfg.Provider,
		verifier: cfg.Verifier,
		logger:   cfg.Logger,
		state:    StateUnauthenticated,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.provider == nil {
		if cfg.Region == "" && cfg.Endpoint == "" {
			return nil, fmt.Errorf("%w: region is required", ErrParameterValidation)
		}
		opts := []idp.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, idp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, idp.WithHTTPClient(cfg.HTTPClient))
		}
		c.provider = idp.NewClient(cfg.Region, opts...)
	}
	if d, ok := c.provider.(DirectoryAPI); ok {
		c.dir = d
	}

	if c.verifier == nil {
		issuer := cfg.IssuerURL
		if issuer == "" {
			if cfg.Region == "" {
				return nil, fmt.Errorf("%w: region or issuer url is required", ErrParameterValidation)
			}
			issuer = fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", cfg.Region, cfg.UserPoolID)
		}
		c.verifier = jwtx.NewVerifier(jwtx.NewRemoteKeySet(issuer, cfg.HTTPClient), cfg.ClientID)
	}

	return c, nil
}

// State returns the lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tokens returns a copy of the current token set.
func (c *Client) Tokens() TokenSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// fail records a failed attempt and passes the cause through unmodified.
func (c *Client) fail(err error) error {
	c.setState(StateFailed)
	return err
}

// Authenticate proves knowledge of password over SRP and stores the
// verified token set. Each call is a clean attempt with a fresh ephemeral
// keypair; attempts never share or reuse one. Non-SRP challenges the
// provider chains (MFA, forced password change) come back as a
// *ChallengeError for the caller to answer.
func (c *Client) Authenticate(ctx context.Context, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrParameterValidation)
	}

	c.authMu.Lock()
	defer c.authMu.Unlock()

	c.setState(StateAuthenticating)

	hs, err := srp.NewHandshake(c.cfg.UserPoolID, c.cfg.ClientID, c.cfg.ClientSecret, c.cfg.Username, password)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %v", ErrParameterValidation, err))
	}
	ctx = slogx.WithAttemptID(slogx.WithContext(ctx, c.logger), hs.ID().String())
	slogx.FromContext(ctx).Debug("srp_attempt_started", "username", c.cfg.Username)

	params, err := hs.AuthParams()
	if err != nil {
		return c.fail(err)
	}

	out, err := c.provider.InitiateAuth(ctx, &idp.InitiateAuthInput{
		ClientID:       c.cfg.ClientID,
		AuthFlow:       idp.FlowUserSRPAuth,
		AuthParameters: params,
	})
	if err != nil {
		hs.Fail()
		return c.fail(err)
	}

	var result *idp.AuthenticationResult
	switch {
	case out.AuthenticationResult != nil:
		hs.Complete()
		result = out.AuthenticationResult

	case out.ChallengeName == idp.ChallengePasswordVerifier:
		responses, err := hs.ChallengeResponses(out.ChallengeParameters, time.Now().UTC())
		if err != nil {
			return c.fail(err)
		}

		rOut, err := c.provider.RespondToAuthChallenge(ctx, &idp.RespondToAuthChallengeInput{
			ClientID:           c.cfg.ClientID,
			ChallengeName:      idp.ChallengePasswordVerifier,
			ChallengeResponses: responses,
			Session:            out.Session,
		})
		if err != nil {
			hs.Fail()
			return c.fail(err)
		}
		if rOut.AuthenticationResult == nil {
			hs.Fail()
			return c.fail(&ChallengeError{
				Name:       rOut.ChallengeName,
				Parameters: rOut.ChallengeParameters,
				Session:    rOut.Session,
			})
		}
		hs.Complete()
		result = rOut.AuthenticationResult

	default:
		hs.Fail()
		return c.fail(&ChallengeError{
			Name:       out.ChallengeName,
			Parameters: out.ChallengeParameters,
			Session:    out.Session,
		})
	}

	return c.acceptTokens(ctx, result)
}

// AdminAuthenticate authenticates with the administrative no-SRP flow:
// username and password go to the provider directly, no ephemeral keypair
// or proof is ever generated.
func (c *Client) AdminAuthenticate(ctx context.Context, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrParameterValidation)
	}

	c.authMu.Lock()
	defer c.authMu.Unlock()

	c.setState(StateAuthenticating)
	ctx = slogx.WithContext(ctx, c.logger)

	params := map[string]string{
		idp.ParamUsername: c.cfg.Username,
		idp.ParamPassword: password,
	}
	if c.cfg.ClientSecret != "" {
		params[idp.ParamSecretHash] = srp.SecretHash(c.cfg.Username, c.cfg.ClientID, c.cfg.ClientSecret)
	}

	out, err := c.provider.AdminInitiateAuth(ctx, &idp.AdminInitiateAuthInput{
		UserPoolID:     c.cfg.UserPoolID,
		ClientID:       c.cfg.ClientID,
		AuthFlow:       idp.FlowAdminNoSRPAuth,
		AuthParameters: params,
	})
	if err != nil {
		return c.fail(err)
	}
	if out.AuthenticationResult == nil {
		return c.fail(&ChallengeError{
			Name:       out.ChallengeName,
			Parameters: out.ChallengeParameters,
			Session:    out.Session,
		})
	}

	return c.acceptTokens(ctx, out.AuthenticationResult)
}

// RespondToChallenge answers a challenge the provider chained after the SRP
// exchange, e.g. an MFA code. On a token result the set is verified and
// stored like any other authenticate.
func (c *Client) RespondToChallenge(ctx context.Context, challenge *ChallengeError, responses map[string]string) error {
	if challenge == nil || challenge.Name == "" {
		return fmt.Errorf("%w: challenge is required", ErrParameterValidation)
	}

	merged := make(map[string]string, len(responses)+2)
	for k, v := range responses {
		merged[k] = v
	}
	if _, ok := merged[idp.ParamUsername]; !ok {
		merged[idp.ParamUsername] = c.cfg.Username
	}
	if c.cfg.ClientSecret != "" {
		merged[idp.ParamSecretHash] = srp.SecretHash(c.cfg.Username, c.cfg.ClientID, c.cfg.ClientSecret)
	}

	out, err := c.provider.RespondToAuthChallenge(ctx, &idp.RespondToAuthChallengeInput{
		ClientID:           c.cfg.ClientID,
		ChallengeName:      challenge.Name,
		ChallengeResponses: merged,
		Session:            challenge.Session,
	})
	if err != nil {
		return c.fail(err)
	}
	if out.AuthenticationResult == nil {
		return c.fail(&ChallengeError{
			Name:       out.ChallengeName,
			Parameters: out.ChallengeParameters,
			Session:    out.Session,
		})
	}

	return c.acceptTokens(ctx, out.AuthenticationResult)
}

// acceptTokens verifies a freshly minted token set and installs it.
func (c *Client) acceptTokens(ctx context.Context, result *idp.AuthenticationResult) error {
	if _, err := c.verifier.Verify(ctx, result.AccessToken, jwtx.UseAccess); err != nil {
		return c.fail(&TokenVerificationError{Use: jwtx.UseAccess, Err: err})
	}
	if _, err := c.verifier.Verify(ctx, result.IDToken, jwtx.UseID); err != nil {
		return c.fail(&TokenVerificationError{Use: jwtx.UseID, Err: err})
	}

	c.mu.Lock()
	c.tokens.AccessToken = result.AccessToken
	c.tokens.IDToken = result.IDToken
	if result.RefreshToken != "" {
		c.tokens.RefreshToken = result.RefreshToken
	}
	c.state = StateAuthenticated
	c.mu.Unlock()

	slogx.FromContext(ctx).Info("authenticated", "username", c.cfg.Username)
	return nil
}

// RenewAccessToken exchanges the stored refresh token for a fresh access
// and identity token. Concurrent callers collapse onto a single provider
// call and all observe its outcome.
func (c *Client) RenewAccessToken(ctx context.Context) error {
	_, err, _ := c.refresh.Do("renew", func() (any, error) {
		return nil, c.renew(ctx)
	})
	return err
}

func (c *Client) renew(ctx context.Context) error {
	ctx = slogx.WithContext(ctx, c.logger)

	c.mu.Lock()
	refreshToken := c.tokens.RefreshToken
	if refreshToken == "" {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	c.state = StateRefreshing
	c.mu.Unlock()

	params := map[string]string{idp.ParamRefreshToken: refreshToken}
	if c.cfg.ClientSecret != "" {
		params[idp.ParamSecretHash] = srp.SecretHash(c.cfg.Username, c.cfg.ClientID, c.cfg.ClientSecret)
	}

	out, err := c.provider.InitiateAuth(ctx, &idp.InitiateAuthInput{
		ClientID:       c.cfg.ClientID,
		AuthFlow:       idp.FlowRefreshTokenAuth,
		AuthParameters: params,
	})
	if err != nil {
		return c.fail(err)
	}
	if out.AuthenticationResult == nil {
		return c.fail(fmt.Errorf("poolauth: refresh returned no authentication result"))
	}

	c.mu.Lock()
	c.tokens.AccessToken = out.AuthenticationResult.AccessToken
	c.tokens.IDToken = out.AuthenticationResult.IDToken
	if out.AuthenticationResult.RefreshToken != "" {
		// Provider rotated the refresh token; adopt the new one.
		c.tokens.RefreshToken = out.AuthenticationResult.RefreshToken
	}
	c.state = StateAuthenticated
	c.mu.Unlock()

	slogx.FromContext(ctx).Debug("access_token_renewed", "username", c.cfg.Username)
	return nil
}

// CheckToken reports whether the held access token had expired, reading the
// exp claim locally with no network call. The returned bool is the expiry
// status at the time of the check: true means the token's exp had passed
// (even if autoRenew then replaced it), false means it was still valid.
// With autoRenew set, an expired token triggers RenewAccessToken before
// returning.
func (c *Client) CheckToken(ctx context.Context, autoRenew bool) (bool, error) {
	c.mu.Lock()
	accessToken := c.tokens.AccessToken
	c.mu.Unlock()

	if accessToken == "" {
		return false, ErrNotAuthenticated
	}

	exp, err := tokenExpiry(accessToken)
	if err != nil {
		return false, err
	}

	// Expired the instant now reaches exp; no leeway.
	expired := !time.Now().UTC().Before(exp)
	if expired && autoRenew {
		if err := c.RenewAccessToken(ctx); err != nil {
			return true, err
		}
	}
	return expired, nil
}
