package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-school-client/oauthmodel"
)

const contentTypeJSON = "application/json; charset=utf-8"

// WellKnownOpenIDConfig serves the OIDC discovery document
func (s *Server) WellKnownOpenIDConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL := s.issuerFor(r)

		resp := map[string]any{
			"issuer":               baseURL,
			"token_endpoint":       baseURL + RouteOAuth2Token,
			"userinfo_endpoint":    baseURL + RouteUserInfo,
			"end_session_endpoint": baseURL + RouteOAuth2Logout,
			"revocation_endpoint":  baseURL + RouteOAuth2Logout,

			"response_types_supported":              []string{"token"},
			"subject_types_supported":               []string{"public"},
			"id_token_signing_alg_values_supported": []string{"HS256"},

			// Scopes
			"scopes_supported": []string{
				"openid",         // Identity claims
				"profile",        // Returns name, given_name, family_name
				"offline_access", // Returns refresh token
			},

			// Token endpoint auth methods
			"token_endpoint_auth_methods_supported": []string{
				"client_secret_post", // Credentials in POST body
				"none",               // Public clients
			},

			// Grant types
			"grant_types_supported": []string{
				string(oauthmodel.PasswordGrant),
				string(oauthmodel.RefreshTokenGrant),
			},

			// Claims returned by the userinfo endpoint
			"claims_supported": []string{
				"sub",                // User ID
				"userId",             // Backend user ID
				"email",              // User email
				"given_name",         // First name
				"family_name",        // Last name
				"preferred_username", // Username
				"roles",              // School roles
			},
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Token exchanges credentials or a refresh token for tokens
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauthmodel.ErrorInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
			return
		}

		tokenReq := oauthmodel.TokenRequestFromForm(r.PostForm)
		tokenResponse, err := s.auth.Token(tokenReq, s.issuerFor(r))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(tokenResponse)
	}
}

// Logout revokes the refresh token in the form body
func (s *Server) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauthmodel.ErrorInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
			return
		}

		err := s.auth.Logout(
			strings.TrimSpace(r.PostForm.Get("client_id")),
			r.PostForm.Get("client_secret"),
			strings.TrimSpace(r.PostForm.Get("refresh_token")),
		)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// UserInfo returns information about the bearer of the access token
func (s *Server) UserInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			writeJSONError(w, oauthmodel.ErrorInvalidToken, "Missing or malformed Authorization header", http.StatusUnauthorized)
			return
		}

		userInfo, err := s.auth.UserInfo(accessToken)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			s.writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(userInfo)
	}
}

func (s *Server) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// Helper functions

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := oauthmodel.ErrorCode(err)
	description := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		description = "internal error"
	}
	writeJSONError(w, code, description, status)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
