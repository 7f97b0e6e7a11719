package idp

import "context"

// InitiateAuth begins an authentication exchange. Depending on the flow the
// provider answers with a challenge or, for refresh flows, a token set.
func (c *Client) InitiateAuth(ctx context.Context, in *InitiateAuthInput) (*InitiateAuthOutput, error) {
	var out InitiateAuthOutput
	if err := c.do(ctx, "InitiateAuth", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RespondToAuthChallenge answers an outstanding challenge. The provider may
// return a token set or chain another challenge.
func (c *Client) RespondToAuthChallenge(ctx context.Context, in *RespondToAuthChallengeInput) (*RespondToAuthChallengeOutput, error) {
	var out RespondToAuthChallengeOutput
	if err := c.do(ctx, "RespondToAuthChallenge", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminInitiateAuth authenticates with administrative credentials, skipping
// the SRP exchange entirely.
func (c *Client) AdminInitiateAuth(ctx context.Context, in *AdminInitiateAuthInput) (*AdminInitiateAuthOutput, error) {
	var out AdminInitiateAuthOutput
	if err := c.do(ctx, "AdminInitiateAuth", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
