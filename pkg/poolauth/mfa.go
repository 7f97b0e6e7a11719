package poolauth

import (
	"context"
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/wombatcreek/poolauth/pkg/idp"
)

// AnswerTOTPChallenge computes the current TOTP code from secret and
// submits it for a SOFTWARE_TOKEN_MFA challenge. For deployments where the
// code arrives out of band (an operator reading their authenticator app),
// use AnswerMFAChallenge with the code directly.
func (c *Client) AnswerTOTPChallenge(ctx context.Context, challenge *ChallengeError, secret string) error {
	if challenge == nil || challenge.Name != idp.ChallengeSoftwareTokenMFA {
		return fmt.Errorf("%w: expected a %s challenge", ErrParameterValidation, idp.ChallengeSoftwareTokenMFA)
	}
	code, err := totp.GenerateCode(secret, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParameterValidation, err)
	}
	return c.AnswerMFAChallenge(ctx, challenge, code)
}

// AnswerMFAChallenge submits an MFA code for a software-token or SMS
// challenge.
func (c *Client) AnswerMFAChallenge(ctx context.Context, challenge *ChallengeError, code string) error {
	if challenge == nil {
		return fmt.Errorf("%w: challenge is required", ErrParameterValidation)
	}

	var codeKey string
	switch challenge.Name {
	case idp.ChallengeSoftwareTokenMFA:
		codeKey = "SOFTWARE_TOKEN_MFA_CODE"
	case idp.ChallengeSMSMFA:
		codeKey = "SMS_MFA_CODE"
	default:
		return fmt.Errorf("%w: %q is not an MFA challenge", ErrParameterValidation, challenge.Name)
	}

	return c.RespondToChallenge(ctx, challenge, map[string]string{codeKey: code})
}
