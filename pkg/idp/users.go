package idp

import "context"

// User-facing operations. These are plain pass-throughs: input in, provider
// response out, no local state.

type SignUpInput struct {
	ClientID       string      `json:"ClientId"`
	Username       string      `json:"Username"`
	Password       string      `json:"Password"`
	SecretHash     string      `json:"SecretHash,omitempty"`
	UserAttributes []Attribute `json:"UserAttributes,omitempty"`
}

type SignUpOutput struct {
	UserConfirmed bool   `json:"UserConfirmed"`
	UserSub       string `json:"UserSub"`
}

func (c *Client) SignUp(ctx context.Context, in *SignUpInput) (*SignUpOutput, error) {
	var out SignUpOutput
	if err := c.do(ctx, "SignUp", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type ConfirmSignUpInput struct {
	ClientID         string `json:"ClientId"`
	Username         string `json:"Username"`
	ConfirmationCode string `json:"ConfirmationCode"`
	SecretHash       string `json:"SecretHash,omitempty"`
}

func (c *Client) ConfirmSignUp(ctx context.Context, in *ConfirmSignUpInput) error {
	return c.do(ctx, "ConfirmSignUp", in, nil)
}

type GetUserInput struct {
	AccessToken string `json:"AccessToken"`
}

type GetUserOutput struct {
	Username       string      `json:"Username"`
	UserAttributes []Attribute `json:"UserAttributes"`
}

func (c *Client) GetUser(ctx context.Context, in *GetUserInput) (*GetUserOutput, error) {
	var out GetUserOutput
	if err := c.do(ctx, "GetUser", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type ChangePasswordInput struct {
	AccessToken      string `json:"AccessToken"`
	PreviousPassword string `json:"PreviousPassword"`
	ProposedPassword string `json:"ProposedPassword"`
}

func (c *Client) ChangePassword(ctx context.Context, in *ChangePasswordInput) error {
	return c.do(ctx, "ChangePassword", in, nil)
}

type UpdateUserAttributesInput struct {
	AccessToken    string      `json:"AccessToken"`
	UserAttributes []Attribute `json:"UserAttributes"`
}

func (c *Client) UpdateUserAttributes(ctx context.Context, in *UpdateUserAttributesInput) error {
	return c.do(ctx, "UpdateUserAttributes", in, nil)
}

type VerifyUserAttributeInput struct {
	AccessToken   string `json:"AccessToken"`
	AttributeName string `json:"AttributeName"`
	Code          string `json:"Code"`
}

func (c *Client) VerifyUserAttribute(ctx context.Context, in *VerifyUserAttributeInput) error {
	return c.do(ctx, "VerifyUserAttribute", in, nil)
}

type ForgotPasswordInput struct {
	ClientID   string `json:"ClientId"`
	Username   string `json:"Username"`
	SecretHash string `json:"SecretHash,omitempty"`
}

func (c *Client) ForgotPassword(ctx context.Context, in *ForgotPasswordInput) error {
	return c.do(ctx, "ForgotPassword", in, nil)
}

type ConfirmForgotPasswordInput struct {
	ClientID         string `json:"ClientId"`
	Username         string `json:"Username"`
	ConfirmationCode string `json:"ConfirmationCode"`
	Password         string `json:"Password"`
	SecretHash       string `json:"SecretHash,omitempty"`
}

func (c *Client) ConfirmForgotPassword(ctx context.Context, in *ConfirmForgotPasswordInput) error {
	return c.do(ctx, "ConfirmForgotPassword", in, nil)
}

type GlobalSignOutInput struct {
	AccessToken string `json:"AccessToken"`
}

func (c *Client) GlobalSignOut(ctx context.Context, in *GlobalSignOutInput) error {
	return c.do(ctx, "GlobalSignOut", in, nil)
}
