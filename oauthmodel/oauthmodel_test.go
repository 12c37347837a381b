package oauthmodel_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/jrsteele09/go-school-client/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestTokenRequestFromForm(t *testing.T) {
	req := oauthmodel.TokenRequestFromForm(url.Values{
		"grant_type": {" password "},
		"client_id":  {"school-app"},
		"username":   {" T001 "},
		"password":   {" spaced pass "},
		"scope":      {"offline_access"},
	})
	require.Equal(t, oauthmodel.PasswordGrant, req.GrantType)
	require.Equal(t, "T001", req.Username)
	require.Equal(t, " spaced pass ", req.Password, "passwords are taken verbatim")
	require.NoError(t, req.Validate())
}

func TestTokenRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  oauthmodel.TokenRequest
		want error
	}{
		{"missing client", oauthmodel.TokenRequest{GrantType: oauthmodel.PasswordGrant}, schoolerrors.ErrMissingRequiredParam},
		{"missing grant type", oauthmodel.TokenRequest{ClientID: "c"}, schoolerrors.ErrMissingRequiredParam},
		{"password without secret", oauthmodel.TokenRequest{ClientID: "c", GrantType: oauthmodel.PasswordGrant, Username: "T001"}, schoolerrors.ErrMissingRequiredParam},
		{"refresh without token", oauthmodel.TokenRequest{ClientID: "c", GrantType: oauthmodel.RefreshTokenGrant}, schoolerrors.ErrMissingRequiredParam},
		{"authorization code", oauthmodel.TokenRequest{ClientID: "c", GrantType: "authorization_code"}, schoolerrors.ErrUnsupportedGrantType},
		{"refresh ok", oauthmodel.TokenRequest{ClientID: "c", GrantType: oauthmodel.RefreshTokenGrant, RefreshToken: "r"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{schoolerrors.ErrInvalidClient, oauthmodel.ErrorInvalidClient, http.StatusUnauthorized},
		{schoolerrors.Wrapf(schoolerrors.ErrMissingRequiredParam, "username"), oauthmodel.ErrorInvalidRequest, http.StatusBadRequest},
		{schoolerrors.ErrUnsupportedGrantType, oauthmodel.ErrorUnsupportedGrantType, http.StatusBadRequest},
		{schoolerrors.ErrInvalidScope, oauthmodel.ErrorInvalidScope, http.StatusBadRequest},
		{schoolerrors.ErrInvalidCredentials, oauthmodel.ErrorInvalidGrant, http.StatusBadRequest},
		{schoolerrors.ErrRefreshTokenExpired, oauthmodel.ErrorInvalidGrant, http.StatusBadRequest},
		{schoolerrors.ErrTokenExpired, oauthmodel.ErrorInvalidToken, http.StatusUnauthorized},
		{errors.New("disk on fire"), oauthmodel.ErrorServerError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, status := oauthmodel.ErrorCode(tt.err)
		require.Equal(t, tt.code, code, tt.err.Error())
		require.Equal(t, tt.status, status, tt.err.Error())
	}
}
