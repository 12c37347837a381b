package idp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/jrsteele09/go-school-client/idp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "school-app"

// fakeProvider records every form it receives and answers with canned bodies.
type fakeProvider struct {
	lock   sync.Mutex
	forms  []url.Values
	status int
	body   any
}

func (f *fakeProvider) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())

		f.lock.Lock()
		f.forms = append(f.forms, r.PostForm)
		status, body := f.status, f.body
		f.lock.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
}

func (f *fakeProvider) lastForm() url.Values {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.forms[len(f.forms)-1]
}

func setup(t *testing.T) (*fakeProvider, *idp.Client) {
	t.Helper()
	fake := &fakeProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", fake.handler(t))
	mux.HandleFunc("/logout", fake.handler(t))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := idp.New(idp.Config{
		ClientID:   testClientID,
		TokenURL:   srv.URL + "/token",
		LogoutURL:  srv.URL + "/logout",
		HTTPClient: srv.Client(),
	})
	return fake, client
}

func TestPasswordGrant(t *testing.T) {
	fake, client := setup(t)
	fake.body = map[string]any{"access_token": "J1", "refresh_token": "R1", "token_type": "bearer", "expires_in": 3600}

	set, err := client.PasswordGrant(context.Background(), "T001", "correctpass")
	require.NoError(t, err)
	require.Equal(t, "J1", set.AccessToken)
	require.Equal(t, "R1", set.RefreshToken)
	require.EqualValues(t, 3600, set.ExpiresIn)

	form := fake.lastForm()
	require.Equal(t, "password", form.Get("grant_type"))
	require.Equal(t, testClientID, form.Get("client_id"))
	require.Equal(t, "T001", form.Get("username"))
	require.Equal(t, "correctpass", form.Get("password"))
	require.Equal(t, "offline_access", form.Get("scope"))
	require.Empty(t, form.Get("client_secret"))
}

func TestPasswordGrantRejected(t *testing.T) {
	fake, client := setup(t)
	fake.status = http.StatusUnauthorized
	fake.body = map[string]string{"error": "invalid_grant", "error_description": "Invalid user credentials"}

	_, err := client.PasswordGrant(context.Background(), "T001", "wrong")
	require.Error(t, err)

	var idpErr *idp.Error
	require.ErrorAs(t, err, &idpErr)
	require.Equal(t, http.StatusUnauthorized, idpErr.StatusCode)
	require.Equal(t, "invalid_grant", idpErr.Code)
	require.Equal(t, "Invalid user credentials", idpErr.Description)
	require.True(t, idp.IsCredentialError(err))
}

func TestRefreshGrant(t *testing.T) {
	t.Run("rotated", func(t *testing.T) {
		fake, client := setup(t)
		fake.body = map[string]any{"access_token": "J2", "refresh_token": "R2", "token_type": "bearer"}

		set, err := client.RefreshGrant(context.Background(), "R0")
		require.NoError(t, err)
		require.Equal(t, "J2", set.AccessToken)
		require.Equal(t, "R2", set.RefreshToken)

		form := fake.lastForm()
		require.Equal(t, "refresh_token", form.Get("grant_type"))
		require.Equal(t, testClientID, form.Get("client_id"))
		require.Equal(t, "R0", form.Get("refresh_token"))
	})

	t.Run("not rotated keeps the old refresh token", func(t *testing.T) {
		fake, client := setup(t)
		fake.body = map[string]any{"access_token": "J2", "token_type": "bearer"}

		set, err := client.RefreshGrant(context.Background(), "R0")
		require.NoError(t, err)
		require.Equal(t, "R0", set.RefreshToken)
	})

	t.Run("rejected", func(t *testing.T) {
		fake, client := setup(t)
		fake.status = http.StatusBadRequest
		fake.body = map[string]string{"error": "invalid_grant", "error_description": "Token is not active"}

		_, err := client.RefreshGrant(context.Background(), "R0")
		require.True(t, idp.IsCredentialError(err))
	})
}

func TestRevoke(t *testing.T) {
	t.Run("posts client id and refresh token", func(t *testing.T) {
		fake, client := setup(t)
		fake.status = http.StatusNoContent

		require.NoError(t, client.Revoke(context.Background(), "R1"))
		form := fake.lastForm()
		require.Equal(t, testClientID, form.Get("client_id"))
		require.Equal(t, "R1", form.Get("refresh_token"))
	})

	t.Run("error status", func(t *testing.T) {
		fake, client := setup(t)
		fake.status = http.StatusBadRequest
		fake.body = map[string]string{"error": "invalid_grant"}

		err := client.Revoke(context.Background(), "R1")
		var idpErr *idp.Error
		require.ErrorAs(t, err, &idpErr)
		require.Equal(t, "revoke", idpErr.Op)
		require.Equal(t, "invalid_grant", idpErr.Code)
	})

	t.Run("no endpoint is a no-op", func(t *testing.T) {
		client := idp.New(idp.Config{ClientID: testClientID, TokenURL: "http://127.0.0.1:1/token"})
		require.NoError(t, client.Revoke(context.Background(), "R1"))
	})
}

func TestTransportErrorIsNotCredentialError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := idp.New(idp.Config{ClientID: testClientID, TokenURL: srv.URL + "/token"})
	_, err := client.PasswordGrant(context.Background(), "T001", "pw")
	require.Error(t, err)
	require.False(t, idp.IsCredentialError(err))
}

func TestDiscover(t *testing.T) {
	var issuer string
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 issuer,
			"authorization_endpoint": issuer + "/auth",
			"token_endpoint":         issuer + "/token",
			"jwks_uri":               issuer + "/certs",
			"end_session_endpoint":   issuer + "/logout",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	issuer = srv.URL

	client, err := idp.Discover(context.Background(), issuer, idp.Config{ClientID: testClientID, HTTPClient: srv.Client()})
	require.NoError(t, err)
	require.Equal(t, issuer+"/token", client.TokenURL())
	require.Equal(t, issuer+"/logout", client.LogoutURL())
}
