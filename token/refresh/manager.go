package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	DefaultTokenLength = 32 // 32 bytes = 256 bits
	DefaultExpiry      = 7 * 24 * time.Hour
)

// Config is the part of the server configuration the manager reads.
type Config interface {
	GetRefreshTokenLength() int
	GetRefreshTokenExpiry() time.Duration
}

// Manager issues and validates opaque, rotating refresh tokens.
type Manager struct {
	repo        Repo
	tokenLength int
	expiry      time.Duration
	nowFunc     func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a new refresh token manager. A nil cfg uses the defaults.
func NewManager(repo Repo, cfg Config, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:        repo,
		tokenLength: DefaultTokenLength,
		expiry:      DefaultExpiry,
		nowFunc:     time.Now,
	}
	if cfg != nil {
		if n := cfg.GetRefreshTokenLength(); n > 0 {
			m.tokenLength = n
		}
		if d := cfg.GetRefreshTokenExpiry(); d > 0 {
			m.expiry = d
		}
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Create issues a new opaque refresh token for the user. Whatever token the
// user held before stops working.
func (m *Manager) Create(clientID, userID, scope string) (string, error) {
	if _, err := m.repo.DeleteForUser(userID); err != nil {
		return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
	}

	raw := make([]byte, m.tokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	tok := hex.EncodeToString(raw)
	if err := m.repo.Save(&StoredRefreshToken{
		Token:    tok,
		UserID:   userID,
		ClientID: clientID,
		Scope:    scope,
		IssuedAt: m.nowFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tok, nil
}

func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired reports whether rt has outlived the configured expiry.
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return m.nowFunc().Sub(rt.IssuedAt) > m.expiry
}

// PurgeExpired drops every token past its expiry and returns how many went.
func (m *Manager) PurgeExpired() (int, error) {
	return m.repo.DeleteIssuedBefore(m.nowFunc().Add(-m.expiry))
}
