package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-school-client/clients"
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/jrsteele09/go-school-client/internal/utils"
	"github.com/jrsteele09/go-school-client/oauthmodel"
	"github.com/jrsteele09/go-school-client/token"
	"github.com/jrsteele09/go-school-client/token/refresh"
	"github.com/jrsteele09/go-school-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users   users.UserRepo // Repository for user data
	Clients clients.Repo   // Repository for OAuth2 client data
}

// Service implements the password and refresh_token grants, refresh token
// revocation and userinfo.
type Service struct {
	repos         Repos            // All repository dependencies
	tokens        *token.Manager   // Access token issuing and verification
	refreshTokens *refresh.Manager // Refresh token storage and rotation
	nowTime       func() time.Time // nowTime function (injectable for testing)
	logger        zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(
	repos Repos,
	tokens *token.Manager,
	refreshTokens *refresh.Manager,
	options ...ServiceOption,
) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Clients == nil {
		return nil, errors.New("[NewService] Clients repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}
	if refreshTokens == nil {
		return nil, errors.New("[NewService] refresh token manager is required")
	}

	s := &Service{
		repos:         repos,
		tokens:        tokens,
		refreshTokens: refreshTokens,
		nowTime:       time.Now,
		logger:        log.With().Str("component", "auth").Logger(),
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Token handles a token endpoint request. issuer is stamped into the access
// token unless the token manager has a fixed issuer.
func (s *Service) Token(req oauthmodel.TokenRequest, issuer string) (*oauthmodel.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	client, err := s.client(req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}

	switch req.GrantType {
	case oauthmodel.PasswordGrant:
		return s.passwordGrant(client, req, issuer)
	case oauthmodel.RefreshTokenGrant:
		return s.refreshTokenGrant(client, req, issuer)
	}
	return nil, schoolerrors.ErrUnsupportedGrantType
}

func (s *Service) passwordGrant(client *clients.Client, req oauthmodel.TokenRequest, issuer string) (*oauthmodel.TokenResponse, error) {
	if err := client.ValidateScopes(req.Scope); err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByUsername(req.Username)
	if err != nil || !user.CheckPassword(req.Password) {
		s.logger.Info().Str("client_id", client.ID).Msg("password grant rejected")
		return nil, schoolerrors.ErrInvalidCredentials
	}
	if err := checkUserState(user); err != nil {
		return nil, err
	}

	resp, err := s.issue(user, client.ID, req.Scope, issuer)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Users.SetLastLogin(user.ID, s.nowTime()); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}
	s.logger.Info().Str("user_id", user.ID).Str("client_id", client.ID).Msg("password grant issued")
	return resp, nil
}

func (s *Service) refreshTokenGrant(client *clients.Client, req oauthmodel.TokenRequest, issuer string) (*oauthmodel.TokenResponse, error) {
	rt, err := s.refreshTokens.Get(req.RefreshToken)
	if err != nil {
		return nil, schoolerrors.ErrInvalidRefreshToken
	}
	if rt.ClientID != client.ID {
		return nil, schoolerrors.Wrapf(schoolerrors.ErrInvalidGrant, "refresh token was issued to another client")
	}

	if s.refreshTokens.IsExpired(rt) {
		_ = s.refreshTokens.Delete(rt.Token)
		return nil, schoolerrors.ErrRefreshTokenExpired
	}

	user, err := s.repos.Users.GetByID(rt.UserID)
	if err != nil {
		_ = s.refreshTokens.Delete(rt.Token)
		return nil, schoolerrors.ErrInvalidRefreshToken
	}
	if err := checkUserState(user); err != nil {
		_ = s.refreshTokens.Delete(rt.Token)
		return nil, err
	}

	// The stored scope is reused so a rotated token stays offline capable.
	resp, err := s.issue(user, client.ID, rt.Scope, issuer)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("user_id", user.ID).Msg("refresh token rotated")
	return resp, nil
}

// issue creates the access token and, when offline_access was granted, a new
// refresh token that replaces any the user already held.
func (s *Service) issue(user *users.User, clientID, scope, issuer string) (*oauthmodel.TokenResponse, error) {
	accessToken, err := s.tokens.CreateAccessToken(user, clientID, scope, issuer)
	if err != nil {
		return nil, fmt.Errorf("[Service.issue] CreateAccessToken: %w", err)
	}

	resp := &oauthmodel.TokenResponse{
		AccessToken: accessToken,
		TokenType:   oauthmodel.TokenTypeBearer,
		ExpiresIn:   s.tokens.ExpiresIn(),
		Scope:       scope,
	}

	if utils.Contains(utils.SplitScopes(scope), clients.ScopeOfflineAccess) {
		refreshToken, err := s.refreshTokens.Create(clientID, user.ID, scope)
		if err != nil {
			return nil, fmt.Errorf("[Service.issue] create refresh token: %w", err)
		}
		resp.RefreshToken = refreshToken
	}
	return resp, nil
}

// Logout revokes a refresh token. Unknown tokens are not an error, so
// repeated logouts succeed.
func (s *Service) Logout(clientID, clientSecret, refreshToken string) error {
	if _, err := s.client(clientID, clientSecret); err != nil {
		return err
	}
	if refreshToken == "" {
		return schoolerrors.Wrapf(schoolerrors.ErrMissingRequiredParam, "refresh_token")
	}

	rt, err := s.refreshTokens.Get(refreshToken)
	if err != nil {
		return nil
	}
	if rt.ClientID != clientID {
		return schoolerrors.Wrapf(schoolerrors.ErrInvalidGrant, "refresh token was issued to another client")
	}
	if err := s.refreshTokens.Delete(rt.Token); err != nil {
		return fmt.Errorf("[Service.Logout] delete refresh token: %w", err)
	}
	s.logger.Info().Str("user_id", rt.UserID).Msg("refresh token revoked")
	return nil
}

// UserInfo returns the standard OIDC claims plus the school claims for the
// bearer of a valid access token.
func (s *Service) UserInfo(rawToken string) (map[string]any, error) {
	introspection, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}
	if introspection.Sub == "" {
		return nil, schoolerrors.Wrapf(schoolerrors.ErrInvalidToken, "token does not contain user information")
	}

	user, err := s.repos.Users.GetByID(introspection.Sub)
	if err != nil {
		return nil, schoolerrors.Wrapf(schoolerrors.ErrInvalidToken, "user not found")
	}
	if err := checkUserState(user); err != nil {
		return nil, schoolerrors.Wrapf(schoolerrors.ErrInvalidToken, "%v", err)
	}

	return map[string]any{
		"sub":                user.ID,
		"userId":             user.ID,
		"email":              user.Email,
		"email_verified":     user.Verified,
		"name":               user.FullName(),
		"given_name":         user.FirstName,
		"family_name":        user.LastName,
		"preferred_username": user.Username,
		"roles":              user.RoleNames(),
	}, nil
}

func (s *Service) client(clientID, clientSecret string) (*clients.Client, error) {
	client, err := s.repos.Clients.Get(clientID)
	if err != nil {
		return nil, schoolerrors.Wrapf(schoolerrors.ErrInvalidClient, "client %q", clientID)
	}
	if err := client.Authenticate(clientSecret); err != nil {
		return nil, err
	}
	return client, nil
}

func checkUserState(user *users.User) error {
	if user.Blocked {
		return schoolerrors.ErrUserBlocked
	}
	if !user.Verified {
		return schoolerrors.ErrUserNotVerified
	}
	return nil
}
