package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-school-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("CLIENT_ID", "")
	t.Setenv("PORT", "")
	t.Setenv("HTTP_TIMEOUT", "")

	c := config.New()
	require.Equal(t, "school-app", c.GetClientID())
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, 30*time.Second, c.GetHTTPTimeout())
	require.Equal(t, 32, c.GetRefreshTokenLength())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("CLIENT_ID", "mobile")
	t.Setenv("PORT", "9191")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "120")

	c := config.New()
	require.Equal(t, "mobile", c.GetClientID())
	require.Equal(t, ":9191", c.GetPort())
	require.Equal(t, 5*time.Second, c.GetHTTPTimeout())
	require.Equal(t, 2*time.Minute, c.GetAccessTokenExpiry())
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REFRESH_TOKEN_EXPIRY", "soon")
	require.Equal(t, 7*24*time.Hour, config.New().GetRefreshTokenExpiry())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("API_BASE_URL=https://school.example/api\n"), 0o600))

	t.Setenv("API_BASE_URL", "")
	os.Unsetenv("API_BASE_URL")

	require.NoError(t, config.LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "https://school.example/api", config.New().GetAPIBaseURL())
}

func TestCredentialsKeyFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CREDENTIALS_DIR", dir)

	t.Run("defaults inside the credentials directory", func(t *testing.T) {
		t.Setenv("CREDENTIALS_KEY_FILE", "")
		require.Equal(t, filepath.Join(dir, "key"), config.New().GetCredentialsKeyFile())
	})

	t.Run("can live apart from the sealed records", func(t *testing.T) {
		keyPath := filepath.Join(t.TempDir(), "schoolctl.key")
		t.Setenv("CREDENTIALS_KEY_FILE", keyPath)

		c := config.New()
		require.Equal(t, keyPath, c.GetCredentialsKeyFile())
		require.Equal(t, dir, c.GetCredentialsDir())
	})
}
