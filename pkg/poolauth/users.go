package poolauth

import (
	"context"
	"fmt"

	"github.com/wombatcreek/poolauth/pkg/idp"
	"github.com/wombatcreek/poolauth/pkg/srp"
)

// Directory pass-throughs. These ride the same provider client as the auth
// flows; the self-service ones fetch a live access token first so a stale
// token never reaches the wire.

// Profile is a user as the directory reports them.
type Profile struct {
	Username   string
	Status     string
	Enabled    bool
	Attributes Attributes
}

func (c *Client) directory() (DirectoryAPI, error) {
	if c.dir == nil {
		return nil, fmt.Errorf("%w: provider does not support directory operations", ErrParameterValidation)
	}
	return c.dir, nil
}

// accessToken returns a live access token, renewing if the held one expired.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if _, err := c.CheckToken(ctx, true); err != nil {
		return "", err
	}
	return c.Tokens().AccessToken, nil
}

// Register creates the user in the pool. It needs no authentication; the
// configured username and client are used.
func (c *Client) Register(ctx context.Context, password string, attrs Attributes) error {
	dir, err := c.directory()
	if err != nil {
		return err
	}
	in := &idp.SignUpInput{
		ClientID:       c.cfg.ClientID,
		Username:       c.cfg.Username,
		Password:       password,
		UserAttributes: attributeList(attrs),
	}
	if c.cfg.ClientSecret != "" {
		in.SecretHash = srp.SecretHash(c.cfg.Username, c.cfg.ClientID, c.cfg.ClientSecret)
	}
	_, err = dir.SignUp(ctx, in)
	return err
}

// ConfirmRegistration submits the confirmation code sent at registration.
func (c *Client) ConfirmRegistration(ctx context.Context, code string) error {
	dir, err := c.directory()
	if err != nil {
		return err
	}
	in := &idp.ConfirmSignUpInput{
		ClientID:         c.cfg.ClientID,
		Username:         c.cfg.Username,
		ConfirmationCode: code,
	}
	if c.cfg.ClientSecret != "" {
		in.SecretHash = srp.SecretHash(c.cfg.Username, c.cfg.ClientID, c.cfg.ClientSecret)
	}
	return dir.ConfirmSignUp(ctx, in)
}

// GetProfile fetches the authenticated user's own record.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	dir, err := c.directory()
	if err != nil {
		return nil, err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	out, err := dir.GetUser(ctx, &idp.GetUserInput{AccessToken: token})
	if err != nil {
		return nil, err
	}
	return &Profile{
		Username:   out.Username,
		Attributes: attributeMap(out.UserAttributes),
	}, nil
}

// UpdateProfile writes attribute changes on the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, attrs Attributes) error {
	dir, err := c.directory()
	if err != nil {
		return err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	return dir.UpdateUserAttributes(ctx, &idp.UpdateUserAttributesInput{
		AccessToken:    token,
		UserAttributes: attributeList(attrs),
	})
}

// ChangePassword rotates the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, previous, proposed string) error {
	dir, err := c.directory()
	if err != nil {
		return err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	return dir.ChangePassword(ctx, &idp.ChangePasswordInput{
		AccessToken:      token,
		PreviousPassword: previous,
		ProposedPassword: proposed,
	})
}

// SignOut revokes every token issued to the user across devices and drops
// the local set.
func (c *Client) SignOut(ctx context.Context) error {
	dir, err := c.directory()
	if err != nil {
		return err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	if err := dir.GlobalSignOut(ctx, &idp.GlobalSignOutInput{AccessToken: token}); err != nil {
		return err
	}

	c.mu.Lock()
	c.tokens = TokenSet{}
	c.state = StateUnauthenticated
	c.mu.Unlock()
	return nil
}

// AdminGetProfile looks up any user by username with provider-side
// credentials on the transport.
func (c *Client) AdminGetProfile(ctx context.Context, username string) (*Profile, error) {
	dir, err := c.directory()
	if err != nil {
		return nil, err
	}
	out, err := dir.AdminGetUser(ctx, &idp.AdminGetUserInput{
		UserPoolID: c.cfg.UserPoolID,
		Username:   username,
	})
	if err != nil {
		return nil, err
	}
	return &Profile{
		Username:   out.Username,
		Status:     out.UserStatus,
		Enabled:    out.Enabled,
		Attributes: attributeMap(out.UserAttributes),
	}, nil
}

// AdminUpdateProfile writes attribute changes on any user.
func (c *Client) AdminUpdateProfile(ctx context.Context, username string, attrs Attributes) error {
	dir, err := c.directory()
	if err != nil {
		return err
	}
	return dir.AdminUpdateUserAttributes(ctx, &idp.AdminUpdateUserAttributesInput{
		UserPoolID:     c.cfg.UserPoolID,
		Username:       username,
		UserAttributes: attributeList(attrs),
	})
}

// ListProfiles pages through the pool's users. An empty returned token
// means the listing is complete.
func (c *Client) ListProfiles(ctx context.Context, limit int, pageToken string) ([]Profile, string, error) {
	dir, err := c.directory()
	if err != nil {
		return nil, "", err
	}
	out, err := dir.ListUsers(ctx, &idp.ListUsersInput{
		UserPoolID:      c.cfg.UserPoolID,
		Limit:           limit,
		PaginationToken: pageToken,
	})
	if err != nil {
		return nil, "", err
	}
	profiles := make([]Profile, 0, len(out.Users))
	for _, u := range out.Users {
		profiles = append(profiles, Profile{
			Username:   u.Username,
			Status:     u.UserStatus,
			Enabled:    u.Enabled,
			Attributes: attributeMap(u.Attributes),
		})
	}
	return profiles, out.PaginationToken, nil
}

// ListGroups pages through the pool's groups.
func (c *Client) ListGroups(ctx context.Context, limit int, pageToken string) ([]idp.Group, string, error) {
	dir, err := c.directory()
	if err != nil {
		return nil, "", err
	}
	out, err := dir.ListGroups(ctx, &idp.ListGroupsInput{
		UserPoolID: c.cfg.UserPoolID,
		Limit:      limit,
		NextToken:  pageToken,
	})
	if err != nil {
		return nil, "", err
	}
	return out.Groups, out.NextToken, nil
}
