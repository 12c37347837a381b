package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-school-client/credentials"
	"github.com/jrsteele09/go-school-client/credentials/filestore"
	"github.com/jrsteele09/go-school-client/dispatch"
	"github.com/jrsteele09/go-school-client/idp"
	"github.com/jrsteele09/go-school-client/internal/config"
	"github.com/jrsteele09/go-school-client/school"
	"github.com/jrsteele09/go-school-client/session"
)

// app is everything a command needs once the session has been restored.
type app struct {
	session *session.Manager
	school  *school.Client
}

type appBuilder func(ctx context.Context, cfg config.Config) (*app, error)

// buildApp wires the identity provider, the encrypted credential store, the
// session and the backend client from the environment.
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	httpClient := &http.Client{Timeout: cfg.GetHTTPTimeout()}

	provider, err := newProvider(ctx, cfg, httpClient)
	if err != nil {
		return nil, err
	}

	key, err := filestore.LoadOrCreateKey(cfg.GetCredentialsKeyFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials key: %w", err)
	}
	kv, err := filestore.New(cfg.GetCredentialsDir(), key)
	if err != nil {
		return nil, err
	}

	return newApp(provider, credentials.NewStore(kv), cfg.GetAPIBaseURL(), dispatch.WithTimeout(cfg.GetHTTPTimeout()))
}

func newProvider(ctx context.Context, cfg config.Config, httpClient *http.Client) (*idp.Client, error) {
	idpConfig := idp.Config{
		ClientID:   cfg.GetClientID(),
		TokenURL:   cfg.GetTokenURL(),
		LogoutURL:  cfg.GetLogoutURL(),
		HTTPClient: httpClient,
	}
	if idpConfig.TokenURL != "" {
		return idp.New(idpConfig), nil
	}
	return idp.Discover(ctx, cfg.GetIssuerURL(), idpConfig)
}

func newApp(provider session.IdentityProvider, store session.CredentialStore, apiBaseURL string, options ...dispatch.ClientOption) (*app, error) {
	manager := session.NewManager(provider, store)
	api, err := dispatch.NewClient(apiBaseURL, manager, options...)
	if err != nil {
		return nil, err
	}
	return &app{session: manager, school: school.New(api)}, nil
}
