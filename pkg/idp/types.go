package idp

// Auth flows the provider accepts on InitiateAuth / AdminInitiateAuth.
const (
	FlowUserSRPAuth           = "USER_SRP_AUTH"
	FlowRefreshTokenAuth      = "REFRESH_TOKEN_AUTH"
	FlowAdminNoSRPAuth        = "ADMIN_NO_SRP_AUTH"
	FlowAdminUserPasswordAuth = "ADMIN_USER_PASSWORD_AUTH"
)

// Challenge names the provider can return. Anything the SRP engine doesn't
// own (MFA, forced password change) is surfaced verbatim to the caller.
const (
	ChallengePasswordVerifier    = "PASSWORD_VERIFIER"
	ChallengeSoftwareTokenMFA    = "SOFTWARE_TOKEN_MFA"
	ChallengeSMSMFA              = "SMS_MFA"
	ChallengeNewPasswordRequired = "NEW_PASSWORD_REQUIRED"
)

// Auth parameter keys shared across flows.
const (
	ParamRefreshToken = "REFRESH_TOKEN"
	ParamPassword     = "PASSWORD"
	ParamUsername     = "USERNAME"
	ParamSecretHash   = "SECRET_HASH"
)

// AuthenticationResult is the token set minted on successful authentication
// or refresh. RefreshToken is absent on refresh responses unless the
// provider decided to rotate it.
type AuthenticationResult struct {
	AccessToken  string `json:"AccessToken,omitempty"`
	IDToken      string `json:"IdToken,omitempty"`
	RefreshToken string `json:"RefreshToken,omitempty"`
	TokenType    string `json:"TokenType,omitempty"`
	ExpiresIn    int    `json:"ExpiresIn,omitempty"`
}

type InitiateAuthInput struct {
	ClientID       string            `json:"ClientId"`
	AuthFlow       string            `json:"AuthFlow"`
	AuthParameters map[string]string `json:"AuthParameters"`
}

type InitiateAuthOutput struct {
	ChallengeName        string                `json:"ChallengeName,omitempty"`
	ChallengeParameters  map[string]string     `json:"ChallengeParameters,omitempty"`
	Session              string                `json:"Session,omitempty"`
	AuthenticationResult *AuthenticationResult `json:"AuthenticationResult,omitempty"`
}

type RespondToAuthChallengeInput struct {
	ClientID           string            `json:"ClientId"`
	ChallengeName      string            `json:"ChallengeName"`
	ChallengeResponses map[string]string `json:"ChallengeResponses"`
	Session            string            `json:"Session,omitempty"`
}

type RespondToAuthChallengeOutput struct {
	ChallengeName        string                `json:"ChallengeName,omitempty"`
	ChallengeParameters  map[string]string     `json:"ChallengeParameters,omitempty"`
	Session              string                `json:"Session,omitempty"`
	AuthenticationResult *AuthenticationResult `json:"AuthenticationResult,omitempty"`
}

type AdminInitiateAuthInput struct {
	UserPoolID     string            `json:"UserPoolId"`
	ClientID       string            `json:"ClientId"`
	AuthFlow       string            `json:"AuthFlow"`
	AuthParameters map[string]string `json:"AuthParameters"`
}

type AdminInitiateAuthOutput struct {
	ChallengeName        string                `json:"ChallengeName,omitempty"`
	ChallengeParameters  map[string]string     `json:"ChallengeParameters,omitempty"`
	Session              string                `json:"Session,omitempty"`
	AuthenticationResult *AuthenticationResult `json:"AuthenticationResult,omitempty"`
}

// Attribute is one name/value pair in the provider's attribute-list shape.
type Attribute struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}
