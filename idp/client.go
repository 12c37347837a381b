// Package idp talks to the OAuth2 identity provider: password grant, refresh
// grant and refresh token revocation.
package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultHTTPTimeout applies when Config.HTTPClient is nil.
const DefaultHTTPTimeout = 30 * time.Second

// ScopeOfflineAccess asks the provider for a refresh token.
const ScopeOfflineAccess = "offline_access"

const maxErrorBody = 64 << 10

type Config struct {
	ClientID string
	// TokenURL receives the password and refresh_token grants.
	TokenURL string
	// LogoutURL receives revocation requests. Revoke is a no-op when empty.
	LogoutURL  string
	Scopes     []string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// TokenSet is what the provider returned for a grant.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Expiry       time.Time
}

type Client struct {
	oauth      *oauth2.Config
	logoutURL  string
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{ScopeOfflineAccess}
	}
	logger := log.With().Str("component", "idp").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID: cfg.ClientID,
			Scopes:   scopes,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		logoutURL:  cfg.LogoutURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// providerMetadata holds the discovery fields go-oidc does not expose directly.
type providerMetadata struct {
	EndSessionEndpoint string `json:"end_session_endpoint"`
	RevocationEndpoint string `json:"revocation_endpoint"`
}

// Discover fills TokenURL and LogoutURL from the issuer's OIDC discovery
// document. Values already set in cfg are kept.
func Discover(ctx context.Context, issuer string, cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
		cfg.HTTPClient = httpClient
	}
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover identity provider %s: %w", issuer, err)
	}
	var meta providerMetadata
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("failed to read provider metadata: %w", err)
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = provider.Endpoint().TokenURL
	}
	if cfg.LogoutURL == "" {
		cfg.LogoutURL = meta.EndSessionEndpoint
	}
	if cfg.LogoutURL == "" {
		cfg.LogoutURL = meta.RevocationEndpoint
	}
	return New(cfg), nil
}

// TokenURL is the endpoint grants are sent to.
func (c *Client) TokenURL() string {
	return c.oauth.Endpoint.TokenURL
}

// LogoutURL is the endpoint revocations are sent to.
func (c *Client) LogoutURL() string {
	return c.logoutURL
}

// PasswordGrant exchanges a username and password for a token pair.
func (c *Client) PasswordGrant(ctx context.Context, username, password string) (*TokenSet, error) {
	tok, err := c.oauth.PasswordCredentialsToken(c.withHTTPClient(ctx), username, password)
	if err != nil {
		return nil, newError("password grant", err)
	}
	c.logger.Debug().Str("username", username).Msg("password grant succeeded")
	return toTokenSet(tok, ""), nil
}

// RefreshGrant exchanges a refresh token for a new pair. When the provider
// does not rotate the refresh token the old one is returned.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*TokenSet, error) {
	ts := c.oauth.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, newError("refresh grant", err)
	}
	c.logger.Debug().Bool("rotated", tok.RefreshToken != "" && tok.RefreshToken != refreshToken).Msg("refresh grant succeeded")
	return toTokenSet(tok, refreshToken), nil
}

// Revoke ends the provider session tied to refreshToken. Any 2xx is success.
func (c *Client) Revoke(ctx context.Context, refreshToken string) error {
	if c.logoutURL == "" {
		c.logger.Debug().Msg("no logout endpoint configured, skipping revoke")
		return nil
	}
	form := url.Values{
		"client_id":     {c.oauth.ClientID},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.logoutURL, strings.NewReader(form.Encode()))
	if err != nil {
		return newError("revoke", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError("revoke", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{Op: "revoke", StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
		var oauthErr struct {
			Code        string `json:"error"`
			Description string `json:"error_description"`
		}
		if json.Unmarshal(body, &oauthErr) == nil {
			e.Code = oauthErr.Code
			e.Description = oauthErr.Description
		}
		return e
	}
	return nil
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func toTokenSet(tok *oauth2.Token, previousRefresh string) *TokenSet {
	set := &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		Expiry:       tok.Expiry,
	}
	if set.RefreshToken == "" {
		set.RefreshToken = previousRefresh
	}
	return set
}

// Error is a failed identity provider call.
type Error struct {
	Op          string
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *Error {
	e := &Error{Op: op, Err: err}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil {
			e.StatusCode = retrieveErr.Response.StatusCode
		}
		e.Code = retrieveErr.ErrorCode
		e.Description = retrieveErr.ErrorDescription
	}
	return e
}

// IsCredentialError reports whether the provider rejected the credentials
// (bad password, revoked or expired refresh token) rather than the call
// failing in transit.
func IsCredentialError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}
