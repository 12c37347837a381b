package oauthmodel

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// PasswordGrant exchanges a username and password for tokens.
	// Token request includes: username, password, client_id, scope
	// Returns: access_token and, when offline_access is granted, refresh_token
	PasswordGrant GrantType = "password"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// Token request includes: refresh_token, client_id
	// Returns: new access_token and a rotated refresh_token
	RefreshTokenGrant GrantType = "refresh_token"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"
