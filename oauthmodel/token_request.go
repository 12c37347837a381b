package oauthmodel

import (
	"net/url"
	"strings"

	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
)

// TokenRequest holds parameters for the OAuth2 token request.
// This represents the form body sent to the token endpoint.
type TokenRequest struct {
	// GrantType selects the flow: password or refresh_token.
	GrantType GrantType

	// ClientID identifies the OAuth2 client making the request.
	// Required: Yes (for all grant types)
	// Example: "school-app"
	ClientID string

	// ClientSecret is the secret credential for confidential clients.
	// Public clients leave it empty.
	// Security: Never log or expose this value
	ClientSecret string

	// Username and Password are the resource owner credentials.
	// Required: Yes (only for password grant)
	Username string
	Password string

	// RefreshToken is used to obtain new access tokens without re-authentication.
	// Required: Yes (only for refresh_token grant)
	// Behavior: Rotated, the old refresh token is invalidated and a new one issued
	RefreshToken string

	// Scope is the space separated list of requested scopes.
	// Example: "offline_access"
	Scope string
}

// TokenRequestFromForm reads a token request from a parsed form body.
func TokenRequestFromForm(form url.Values) TokenRequest {
	return TokenRequest{
		GrantType:    GrantType(strings.TrimSpace(form.Get("grant_type"))),
		ClientID:     strings.TrimSpace(form.Get("client_id")),
		ClientSecret: form.Get("client_secret"),
		Username:     strings.TrimSpace(form.Get("username")),
		Password:     form.Get("password"),
		RefreshToken: strings.TrimSpace(form.Get("refresh_token")),
		Scope:        strings.TrimSpace(form.Get("scope")),
	}
}

// Validate checks the parameters required by the grant type.
func (r TokenRequest) Validate() error {
	if r.ClientID == "" {
		return schoolerrors.Wrapf(schoolerrors.ErrMissingRequiredParam, "client_id")
	}
	switch r.GrantType {
	case PasswordGrant:
		if r.Username == "" || r.Password == "" {
			return schoolerrors.Wrapf(schoolerrors.ErrMissingRequiredParam, "username and password")
		}
	case RefreshTokenGrant:
		if r.RefreshToken == "" {
			return schoolerrors.Wrapf(schoolerrors.ErrMissingRequiredParam, "refresh_token")
		}
	case "":
		return schoolerrors.Wrapf(schoolerrors.ErrMissingRequiredParam, "grant_type")
	default:
		return schoolerrors.Wrapf(schoolerrors.ErrUnsupportedGrantType, "grant_type %q", r.GrantType)
	}
	return nil
}
