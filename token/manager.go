package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/jrsteele09/go-school-client/internal/utils"
	"github.com/jrsteele09/go-school-client/users"
)

const DefaultAccessTokenExpiry = 15 * time.Minute

// Introspection is the verified view of an access token, served from userinfo.
type Introspection struct {
	Active            bool     `json:"active"`
	Sub               string   `json:"sub,omitempty"`
	UserID            string   `json:"userId,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Name              string   `json:"name,omitempty"`
	Roles             []string `json:"roles,omitempty"`
	Scope             string   `json:"scope,omitempty"`
	Iss               string   `json:"iss,omitempty"`
	Aud               string   `json:"aud,omitempty"`
	Exp               int64    `json:"exp,omitempty"`
	Iat               int64    `json:"iat,omitempty"`
}

// Manager issues and verifies signed access tokens.
type Manager struct {
	signer            Signer
	issuer            string
	audience          string
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithAudience(audience string) ManagerOption {
	return func(m *Manager) {
		m.audience = audience
	}
}

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer: signer,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry <= 0 {
		m.accessTokenExpiry = DefaultAccessTokenExpiry
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// Issuer returns the configured issuer, which may be empty.
func (m *Manager) Issuer() string {
	return m.issuer
}

// ExpiresIn is the lifetime of new access tokens in seconds.
func (m *Manager) ExpiresIn() int64 {
	return int64(m.accessTokenExpiry.Seconds())
}

// CreateAccessToken signs an access token for the user. The issuer argument
// overrides the configured one when the latter is empty.
func (m *Manager) CreateAccessToken(user *users.User, clientID, scope, issuer string) (string, error) {
	if user == nil {
		return "", schoolerrors.ErrUserNotFound
	}
	if m.issuer != "" {
		issuer = m.issuer
	}
	audience := m.audience
	if audience == "" {
		audience = clientID
	}

	now := m.nowFunc()
	claims := jwt.MapClaims{
		"iss":                issuer,                              // The issuer of the token
		"sub":                user.ID,                             // The subject, the user's unique ID
		"aud":                audience,                            // The audience for which the token is intended
		"azp":                clientID,                            // The client the token was issued to
		"userId":             user.ID,                             // Backend user identifier
		"preferred_username": user.Username,                       // Login name
		"name":               user.FullName(),                     // Display name
		"roles":              user.RoleNames(),                    // School roles
		"iat":                now.Unix(),                          // Issued At
		"exp":                now.Add(m.accessTokenExpiry).Unix(), // Expiry
		"jti":                uuid.New().String(),                 // Unique token ID
	}
	if scope != "" {
		claims["scope"] = scope
	}

	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("Manager.CreateAccessToken: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of an access token.
func (m *Manager) Verify(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return &Introspection{Active: false}, schoolerrors.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.signer.Method().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.Parse(rawToken, m.signer.Keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return &Introspection{Active: false}, schoolerrors.ErrTokenExpired
		}
		return &Introspection{Active: false}, fmt.Errorf("%w: %v", schoolerrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return &Introspection{Active: false}, schoolerrors.ErrInvalidToken
	}

	result := &Introspection{Active: true}
	result.Sub, _ = claims["sub"].(string)
	result.UserID, _ = claims["userId"].(string)
	result.PreferredUsername, _ = claims["preferred_username"].(string)
	result.Name, _ = claims["name"].(string)
	result.Scope, _ = claims["scope"].(string)
	result.Iss, _ = claims["iss"].(string)
	result.Aud, _ = claims["aud"].(string)
	if exp, ok := claims["exp"].(float64); ok {
		result.Exp = int64(exp)
	}
	if iat, ok := claims["iat"].(float64); ok {
		result.Iat = int64(iat)
	}
	if roles, ok := claims["roles"].([]any); ok {
		result.Roles = utils.ToStringSlice(roles)
	}
	return result, nil
}
