package oauthmodel

import (
	"net/http"

	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
)

// OAuth 2.0 error codes from RFC 6749 section 5.2.
const (
	ErrorInvalidRequest       = "invalid_request"
	ErrorInvalidClient        = "invalid_client"
	ErrorInvalidGrant         = "invalid_grant"
	ErrorUnauthorizedClient   = "unauthorized_client"
	ErrorUnsupportedGrantType = "unsupported_grant_type"
	ErrorInvalidScope         = "invalid_scope"
	ErrorInvalidToken         = "invalid_token"
	ErrorServerError          = "server_error"
)

// ErrorCode maps a service error onto an OAuth error code and HTTP status.
func ErrorCode(err error) (string, int) {
	switch {
	case schoolerrors.Is(err, schoolerrors.ErrInvalidClient):
		return ErrorInvalidClient, http.StatusUnauthorized
	case schoolerrors.Is(err, schoolerrors.ErrUnsupportedGrantType):
		return ErrorUnsupportedGrantType, http.StatusBadRequest
	case schoolerrors.Is(err, schoolerrors.ErrInvalidScope):
		return ErrorInvalidScope, http.StatusBadRequest
	case schoolerrors.Is(err, schoolerrors.ErrMissingRequiredParam),
		schoolerrors.Is(err, schoolerrors.ErrInvalidRequest):
		return ErrorInvalidRequest, http.StatusBadRequest
	case schoolerrors.Is(err, schoolerrors.ErrInvalidCredentials),
		schoolerrors.Is(err, schoolerrors.ErrUserNotFound),
		schoolerrors.Is(err, schoolerrors.ErrUserBlocked),
		schoolerrors.Is(err, schoolerrors.ErrUserNotVerified),
		schoolerrors.Is(err, schoolerrors.ErrInvalidRefreshToken),
		schoolerrors.Is(err, schoolerrors.ErrRefreshTokenExpired),
		schoolerrors.Is(err, schoolerrors.ErrInvalidGrant):
		return ErrorInvalidGrant, http.StatusBadRequest
	case schoolerrors.Is(err, schoolerrors.ErrInvalidToken),
		schoolerrors.Is(err, schoolerrors.ErrTokenExpired):
		return ErrorInvalidToken, http.StatusUnauthorized
	default:
		return ErrorServerError, http.StatusInternalServerError
	}
}
