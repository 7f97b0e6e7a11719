package idp

import "context"

// Administrative pass-throughs. These require provider-side credentials on
// the transport (the deployment's concern, not ours).

type AdminGetUserInput struct {
	UserPoolID string `json:"UserPoolId"`
	Username   string `json:"Username"`
}

type AdminGetUserOutput struct {
	Username       string      `json:"Username"`
	UserStatus     string      `json:"UserStatus"`
	Enabled        bool        `json:"Enabled"`
	UserAttributes []Attribute `json:"UserAttributes"`
}

func (c *Client) AdminGetUser(ctx context.Context, in *AdminGetUserInput) (*AdminGetUserOutput, error) {
	var out AdminGetUserOutput
	if err := c.do(ctx, "AdminGetUser", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type AdminUpdateUserAttributesInput struct {
	UserPoolID     string      `json:"UserPoolId"`
	Username       string      `json:"Username"`
	UserAttributes []Attribute `json:"UserAttributes"`
}

func (c *Client) AdminUpdateUserAttributes(ctx context.Context, in *AdminUpdateUserAttributesInput) error {
	return c.do(ctx, "AdminUpdateUserAttributes", in, nil)
}

type ListUsersInput struct {
	UserPoolID      string `json:"UserPoolId"`
	Limit           int    `json:"Limit,omitempty"`
	PaginationToken string `json:"PaginationToken,omitempty"`
}

type ListUsersUser struct {
	Username   string      `json:"Username"`
	UserStatus string      `json:"UserStatus"`
	Enabled    bool        `json:"Enabled"`
	Attributes []Attribute `json:"Attributes"`
}

type ListUsersOutput struct {
	Users           []ListUsersUser `json:"Users"`
	PaginationToken string          `json:"PaginationToken,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context, in *ListUsersInput) (*ListUsersOutput, error) {
	var out ListUsersOutput
	if err := c.do(ctx, "ListUsers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type ListGroupsInput struct {
	UserPoolID string `json:"UserPoolId"`
	Limit      int    `json:"Limit,omitempty"`
	NextToken  string `json:"NextToken,omitempty"`
}

type Group struct {
	GroupName   string `json:"GroupName"`
	Description string `json:"Description,omitempty"`
	Precedence  int    `json:"Precedence,omitempty"`
	RoleArn     string `json:"RoleArn,omitempty"`
}

type ListGroupsOutput struct {
	Groups    []Group `json:"Groups"`
	NextToken string  `json:"NextToken,omitempty"`
}

func (c *Client) ListGroups(ctx context.Context, in *ListGroupsInput) (*ListGroupsOutput, error) {
	var out ListGroupsOutput
	if err := c.do(ctx, "ListGroups", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type UserPoolClientDescription struct {
	ClientID   string `json:"ClientId"`
	ClientName string `json:"ClientName"`
	UserPoolID string `json:"UserPoolId"`
}

type ListUserPoolClientsInput struct {
	UserPoolID string `json:"UserPoolId"`
	MaxResults int    `json:"MaxResults,omitempty"`
	NextToken  string `json:"NextToken,omitempty"`
}

type ListUserPoolClientsOutput struct {
	UserPoolClients []UserPoolClientDescription `json:"UserPoolClients"`
	NextToken       string                      `json:"NextToken,omitempty"`
}

func (c *Client) ListUserPoolClients(ctx context.Context, in *ListUserPoolClientsInput) (*ListUserPoolClientsOutput, error) {
	var out ListUserPoolClientsOutput
	if err := c.do(ctx, "ListUserPoolClients", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type UserPoolClientType struct {
	ClientID             string `json:"ClientId"`
	ClientName           string `json:"ClientName"`
	UserPoolID           string `json:"UserPoolId"`
	AccessTokenValidity  int    `json:"AccessTokenValidity,omitempty"`
	IDTokenValidity      int    `json:"IdTokenValidity,omitempty"`
	RefreshTokenValidity int    `json:"RefreshTokenValidity,omitempty"`
}

type CreateUserPoolClientInput struct {
	UserPoolID           string            `json:"UserPoolId"`
	ClientName           string            `json:"ClientName"`
	GenerateSecret       bool              `json:"GenerateSecret,omitempty"`
	AccessTokenValidity  int               `json:"AccessTokenValidity,omitempty"`
	IDTokenValidity      int               `json:"IdTokenValidity,omitempty"`
	RefreshTokenValidity int               `json:"RefreshTokenValidity,omitempty"`
	TokenValidityUnits   map[string]string `json:"TokenValidityUnits,omitempty"`
}

type CreateUserPoolClientOutput struct {
	UserPoolClient UserPoolClientType `json:"UserPoolClient"`
}

func (c *Client) CreateUserPoolClient(ctx context.Context, in *CreateUserPoolClientInput) (*CreateUserPoolClientOutput, error) {
	var out CreateUserPoolClientOutput
	if err := c.do(ctx, "CreateUserPoolClient", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type DescribeUserPoolClientInput struct {
	UserPoolID string `json:"UserPoolId"`
	ClientID   string `json:"ClientId"`
}

type DescribeUserPoolClientOutput struct {
	UserPoolClient UserPoolClientType `json:"UserPoolClient"`
}

func (c *Client) DescribeUserPoolClient(ctx context.Context, in *DescribeUserPoolClientInput) (*DescribeUserPoolClientOutput, error) {
	var out DescribeUserPoolClientOutput
	if err := c.do(ctx, "DescribeUserPoolClient", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
