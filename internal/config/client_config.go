package config

import (
	"os"
	"path/filepath"
	"time"
)

type ClientConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetTokenURL() string
	GetLogoutURL() string
	GetAPIBaseURL() string
	GetCredentialsDir() string
	GetCredentialsKeyFile() string
	GetHTTPTimeout() time.Duration
}

type Client struct{}

var _ ClientConfig = Client{}

// GetIssuerURL is used for OIDC discovery when TOKEN_URL is not set.
func (Client) GetIssuerURL() string {
	return GetEnv("ISSUER_URL", "http://localhost:8080")
}

func (Client) GetClientID() string {
	return GetEnv("CLIENT_ID", "school-app")
}

func (Client) GetTokenURL() string {
	return GetEnv("TOKEN_URL", "")
}

func (Client) GetLogoutURL() string {
	return GetEnv("LOGOUT_URL", "")
}

func (Client) GetAPIBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:9000/api")
}

func (Client) GetCredentialsDir() string {
	if dir := os.Getenv("CREDENTIALS_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ".schoolctl"
	}
	return filepath.Join(base, "schoolctl")
}

// GetCredentialsKeyFile is the sealing key for the credentials directory.
// Point it outside CREDENTIALS_DIR so a copy of the sealed records alone
// cannot be opened.
func (c Client) GetCredentialsKeyFile() string {
	return GetEnv("CREDENTIALS_KEY_FILE", filepath.Join(c.GetCredentialsDir(), "key"))
}

func (Client) GetHTTPTimeout() time.Duration {
	return GetDuration("HTTP_TIMEOUT", 30*time.Second)
}
