package config

import (
	"fmt"
	"time"
)

type IdPConfig interface {
	GetPort() string
	GetBaseURL() string
	GetTokenSecret() string
	GetRefreshTokenLength() int
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type IdP struct{}

var _ IdPConfig = IdP{}

func (IdP) GetPort() string {
	port := GetEnv("PORT", "8080")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// GetBaseURL is the issuer and the prefix of every advertised endpoint.
func (IdP) GetBaseURL() string {
	return GetEnv("BASE_URL", "http://localhost:8080")
}

func (IdP) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "dev-secret-change-me")
}

func (IdP) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (IdP) GetAccessTokenExpiry() time.Duration {
	return GetDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute)
}

func (IdP) GetRefreshTokenExpiry() time.Duration {
	return GetDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)
}
