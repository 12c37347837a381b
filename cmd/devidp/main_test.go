package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-school-client/auth"
	"github.com/jrsteele09/go-school-client/internal/config"
	"github.com/jrsteele09/go-school-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-school-client/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

func TestNewHandler(t *testing.T) {
	t.Setenv("BASE_URL", "https://idp.school.example")
	t.Setenv("CLIENT_ID", "school-app")
	t.Setenv("TOKEN_SECRET", "test-secret")

	handler, refreshTokens, err := newHandler(config.New())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/openid-configuration", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, "https://idp.school.example", doc["issuer"])

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {"school-app"},
		"username":   {"T001"},
		"password":   {auth.DemoPassword},
		"scope":      {"offline_access"},
	}
	req := httptest.NewRequest(http.MethodPost, "/protocol/openid-connect/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "refresh_token")

	n, err := refreshTokens.PurgeExpired()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestPurgeExpiredTokens_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		purgeExpiredTokens(ctx, refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), nil), time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purge loop did not stop")
	}
}
