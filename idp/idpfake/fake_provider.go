package idpfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-school-client/idp"
)

// FakeProvider answers grants from the configured functions and counts calls.
// A nil function makes the matching call succeed with an empty result.
type FakeProvider struct {
	PasswordFunc func(ctx context.Context, username, password string) (*idp.TokenSet, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (*idp.TokenSet, error)
	RevokeFunc   func(ctx context.Context, refreshToken string) error

	lock          sync.Mutex
	passwordCalls int
	refreshCalls  int
	revoked       []string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

func (f *FakeProvider) PasswordGrant(ctx context.Context, username, password string) (*idp.TokenSet, error) {
	f.lock.Lock()
	f.passwordCalls++
	fn := f.PasswordFunc
	f.lock.Unlock()
	if fn == nil {
		return &idp.TokenSet{}, nil
	}
	return fn(ctx, username, password)
}

func (f *FakeProvider) RefreshGrant(ctx context.Context, refreshToken string) (*idp.TokenSet, error) {
	f.lock.Lock()
	f.refreshCalls++
	fn := f.RefreshFunc
	f.lock.Unlock()
	if fn == nil {
		return &idp.TokenSet{}, nil
	}
	return fn(ctx, refreshToken)
}

func (f *FakeProvider) Revoke(ctx context.Context, refreshToken string) error {
	f.lock.Lock()
	f.revoked = append(f.revoked, refreshToken)
	fn := f.RevokeFunc
	f.lock.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, refreshToken)
}

func (f *FakeProvider) PasswordCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.passwordCalls
}

func (f *FakeProvider) RefreshCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshCalls
}

// Revoked lists the refresh tokens passed to Revoke, in order.
func (f *FakeProvider) Revoked() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.revoked...)
}
