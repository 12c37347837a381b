// Package dispatch attaches the session's bearer token to backend requests
// and recovers once from a stale token.
package dispatch

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Authenticator is the part of the session manager the dispatcher relies on.
type Authenticator interface {
	AccessToken() string
	IsAuthenticated() bool
	Refresh(ctx context.Context) (string, error)
}

const maxDrain = 4 << 10

// Transport sets "Authorization: Bearer <token>" on every request that has a
// token. A 401 received while the session is authenticated triggers one
// Refresh and one retry; the retry's response is returned as is.
type Transport struct {
	auth   Authenticator
	base   http.RoundTripper
	logger zerolog.Logger
}

type TransportOption func(*Transport)

// WithBase sets the RoundTripper requests are sent through.
func WithBase(base http.RoundTripper) TransportOption {
	return func(t *Transport) {
		t.base = base
	}
}

func WithTransportLogger(logger zerolog.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

func NewTransport(auth Authenticator, options ...TransportOption) *Transport {
	t := &Transport{
		auth:   auth,
		base:   http.DefaultTransport,
		logger: log.With().Str("component", "dispatch").Logger(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(withBearer(req, t.auth.AccessToken()))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !t.auth.IsAuthenticated() {
		return resp, nil
	}

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		t.logger.Debug().Str("path", req.URL.Path).Msg("401 on a request that cannot be replayed")
		return resp, nil
	}

	token, err := t.auth.Refresh(req.Context())
	if err != nil {
		t.logger.Info().Err(err).Str("path", req.URL.Path).Msg("refresh after 401 failed")
		return resp, nil
	}

	retry := withBearer(req, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}
	drainAndClose(resp.Body)

	t.logger.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("retrying with refreshed token")
	return t.base.RoundTrip(retry)
}

func withBearer(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	if token == "" {
		clone.Header.Del("Authorization")
		return clone
	}
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrain))
	_ = body.Close()
}
