// Package session owns the process-wide authentication state: the access and
// refresh token pair, and the login, refresh, restore and logout transitions.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-school-client/claims"
	"github.com/jrsteele09/go-school-client/credentials"
	"github.com/jrsteele09/go-school-client/idp"
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrNoStoredCredentials is returned by Refresh when there is no refresh token to use.
var ErrNoStoredCredentials = schoolerrors.ErrNoStoredCredentials

// IdentityProvider performs the three OAuth operations the manager needs.
type IdentityProvider interface {
	PasswordGrant(ctx context.Context, username, password string) (*idp.TokenSet, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*idp.TokenSet, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// CredentialStore persists the token pair. Load returns (nil, nil) when empty.
type CredentialStore interface {
	Load(ctx context.Context) (*credentials.Record, error)
	Save(ctx context.Context, rec *credentials.Record) error
	Delete(ctx context.Context) error
}

const refreshKey = "refresh"

type subscriber struct {
	id int
	fn func(Session)
}

// DefaultRefreshTimeout bounds a shared refresh grant, which outlives the
// context of the caller that started it.
const DefaultRefreshTimeout = 30 * time.Second

// Manager is the only writer of the Session. All methods are safe for
// concurrent use; concurrent Refresh calls share one provider round trip.
type Manager struct {
	provider       IdentityProvider
	store          CredentialStore
	nowFunc        func() time.Time
	logger         zerolog.Logger
	refreshTimeout time.Duration

	lock          sync.RWMutex
	state         State
	accessToken   string
	claims        claims.Claims
	authenticated bool

	// commitLock guards generation. Login and Logout bump it; a grant only
	// commits its token pair if the generation it started under still holds.
	commitLock sync.Mutex
	generation uint64

	refreshGroup singleflight.Group

	// notifyLock keeps snapshot and delivery in one order across transitions.
	notifyLock  sync.Mutex
	subsLock    sync.Mutex
	subscribers []subscriber
	nextSubID   int
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRefreshTimeout bounds each identity provider refresh round trip.
func WithRefreshTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshTimeout = timeout
	}
}

func NewManager(provider IdentityProvider, store CredentialStore, options ...ManagerOption) *Manager {
	m := &Manager{
		provider:       provider,
		store:          store,
		state:          StateUninitialized,
		logger:         log.With().Str("component", "session").Logger(),
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// Restore adopts the persisted token pair, refreshing it when the access token
// has expired or cannot be decoded. It never fails: every error is logged and
// the session ends UNAUTHENTICATED.
func (m *Manager) Restore(ctx context.Context) State {
	m.setState(StateRestoring)

	rec, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("restore: failed to load credentials")
		m.clear(StateUnauthenticated)
		return StateUnauthenticated
	}
	if rec == nil || (rec.AccessToken == "" && rec.RefreshToken == "") {
		m.logger.Debug().Msg("restore: no stored credentials")
		m.clear(StateUnauthenticated)
		return StateUnauthenticated
	}

	if c := claims.Decode(rec.AccessToken); c != nil && !c.ExpiredAt(m.nowFunc()) {
		m.adopt(rec.AccessToken, c)
		m.logger.Info().Str("user", c.UserID()).Msg("restore: session restored")
		return StateAuthenticated
	}

	m.logger.Debug().Msg("restore: access token expired, refreshing")
	if _, err := m.Refresh(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("restore: refresh failed")
	}
	return m.State()
}

// Login runs the password grant. Failures are returned unchanged and leave
// the session UNAUTHENTICATED. Input validation is the caller's job.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	gen := m.bumpGeneration()
	m.setState(StateLoggingIn)

	set, err := m.provider.PasswordGrant(ctx, identifier, secret)
	if err != nil {
		m.logger.Info().Err(err).Msg("login failed")
		m.clear(StateUnauthenticated)
		return err
	}

	c, ok := m.validate(set)
	if !ok {
		m.clear(StateUnauthenticated)
		return fmt.Errorf("login: %w", schoolerrors.ErrTokenExpired)
	}
	if !m.commit(ctx, gen, set, c) {
		m.logger.Info().Msg("login superseded by logout, discarding tokens")
		m.discard(ctx, set.RefreshToken)
		return fmt.Errorf("login: %w", schoolerrors.ErrNotAuthenticated)
	}
	m.logger.Info().Str("user", c.UserID()).Msg("logged in")
	return nil
}

// Refresh exchanges the stored refresh token for a new pair and returns the
// new access token. Any failure logs the user out before the error is
// returned. Callers arriving while a refresh is running wait for its result.
//
// The shared round trip is detached from ctx and bounded by the refresh
// timeout instead, so one caller giving up does not fail the others. A caller
// whose ctx ends first gets ctx.Err() and the session is left alone.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	ch := m.refreshGroup.DoChan(refreshKey, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.refreshTimeout)
		defer cancel()
		return m.refresh(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			m.logger.Debug().Msg("joined in-flight refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	gen := m.enter(StateRefreshing)

	rec, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("refresh: failed to load credentials")
		rec = nil
	}
	if rec == nil || rec.RefreshToken == "" {
		m.logoutIfCurrent(ctx, gen)
		return "", ErrNoStoredCredentials
	}

	set, err := m.provider.RefreshGrant(ctx, rec.RefreshToken)
	if err != nil {
		m.logger.Info().Err(err).Msg("refresh rejected, logging out")
		m.logoutIfCurrent(ctx, gen)
		return "", err
	}
	if set.RefreshToken == "" {
		set.RefreshToken = rec.RefreshToken
	}

	c, ok := m.validate(set)
	if !ok {
		m.logoutIfCurrent(ctx, gen)
		return "", fmt.Errorf("refresh: %w", schoolerrors.ErrTokenExpired)
	}
	if !m.commit(ctx, gen, set, c) {
		m.logger.Info().Msg("refresh superseded by logout, discarding tokens")
		if set.RefreshToken != rec.RefreshToken {
			m.discard(ctx, set.RefreshToken)
		}
		return "", ErrNoStoredCredentials
	}
	m.logger.Debug().Str("user", c.UserID()).Msg("session refreshed")
	return set.AccessToken, nil
}

// Logout revokes the refresh token on a best effort basis, then wipes the
// stored record and the in-memory session whatever the outcome. Safe to call
// in any state and any number of times. A grant still in flight when Logout
// starts is discarded when it returns.
func (m *Manager) Logout(ctx context.Context) {
	m.bumpGeneration()
	m.setState(StateLoggingOut)

	rec, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("logout: failed to load credentials")
	}
	if rec != nil && rec.RefreshToken != "" {
		if err := m.provider.Revoke(ctx, rec.RefreshToken); err != nil {
			m.logger.Warn().Err(err).Msg("logout: revoke failed, continuing")
		}
	}
	if err := m.store.Delete(ctx); err != nil {
		m.logger.Error().Err(err).Msg("logout: failed to delete credentials")
	}
	m.clear(StateUnauthenticated)
	m.logger.Debug().Msg("logged out")
}

func (m *Manager) bumpGeneration() uint64 {
	m.commitLock.Lock()
	defer m.commitLock.Unlock()
	m.generation++
	return m.generation
}

// enter moves to state and returns the generation it happened under, as one
// step so a Logout cannot land between the two.
func (m *Manager) enter(state State) uint64 {
	m.commitLock.Lock()
	defer m.commitLock.Unlock()
	m.setState(state)
	return m.generation
}

func (m *Manager) currentGeneration() uint64 {
	m.commitLock.Lock()
	defer m.commitLock.Unlock()
	return m.generation
}

// commit persists and adopts set unless a Login or Logout started after gen.
func (m *Manager) commit(ctx context.Context, gen uint64, set *idp.TokenSet, c claims.Claims) bool {
	m.commitLock.Lock()
	defer m.commitLock.Unlock()
	if m.generation != gen {
		return false
	}
	m.persist(ctx, set)
	m.adopt(set.AccessToken, c)
	return true
}

// logoutIfCurrent runs the fail-closed logout only when no newer Login or
// Logout has taken over the session.
func (m *Manager) logoutIfCurrent(ctx context.Context, gen uint64) {
	if m.currentGeneration() != gen {
		m.logger.Debug().Msg("refresh failed after session changed, leaving it alone")
		return
	}
	m.Logout(ctx)
}

// discard revokes a refresh token nobody will store.
func (m *Manager) discard(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := m.provider.Revoke(ctx, refreshToken); err != nil {
		m.logger.Warn().Err(err).Msg("failed to revoke discarded refresh token")
	}
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() Session {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.snapshot()
}

func (m *Manager) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

func (m *Manager) AccessToken() string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.accessToken
}

func (m *Manager) IsAuthenticated() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.authenticated
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs synchronously on the goroutine that made the change and must not
// block. Snapshots arrive in the order the changes were applied. fn may read
// the manager but must not call Login, Refresh, Restore or Logout itself.
// The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Session)) (unsubscribe func()) {
	m.subsLock.Lock()
	defer m.subsLock.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subsLock.Lock()
			defer m.subsLock.Unlock()
			for i, s := range m.subscribers {
				if s.id == id {
					m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// validate decodes the new access token and checks it is not already expired.
// Opaque tokens fall back to the expiry the provider reported.
func (m *Manager) validate(set *idp.TokenSet) (claims.Claims, bool) {
	if set.AccessToken == "" {
		return nil, false
	}
	c := claims.Decode(set.AccessToken)
	now := m.nowFunc()
	if _, ok := c.Expiry(); ok {
		return c, !c.ExpiredAt(now)
	}
	if set.Expiry.IsZero() {
		return c, true
	}
	return c, now.Before(set.Expiry)
}

// persist writes the pair. A failed write is logged and the in-memory
// session carries on; the next launch simply starts logged out.
func (m *Manager) persist(ctx context.Context, set *idp.TokenSet) {
	rec := &credentials.Record{AccessToken: set.AccessToken, RefreshToken: set.RefreshToken}
	if err := m.store.Save(ctx, rec); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist credentials")
	}
}

func (m *Manager) setState(state State) {
	m.update(func() {
		m.state = state
	})
}

func (m *Manager) adopt(token string, c claims.Claims) {
	m.update(func() {
		m.state = StateAuthenticated
		m.accessToken = token
		m.claims = c
		m.authenticated = true
	})
}

func (m *Manager) clear(state State) {
	m.update(func() {
		m.state = state
		m.accessToken = ""
		m.claims = nil
		m.authenticated = false
	})
}

// update applies fn under the lock, then notifies subscribers outside it.
// notifyLock spans both steps so subscribers see transitions in the order
// they were applied. Subscribers may read the manager but must not start a
// transition synchronously.
func (m *Manager) update(fn func()) {
	m.notifyLock.Lock()
	defer m.notifyLock.Unlock()

	m.lock.Lock()
	fn()
	snap := m.snapshot()
	m.lock.Unlock()

	m.subsLock.Lock()
	subs := make([]subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.subsLock.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
}

func (m *Manager) snapshot() Session {
	return Session{
		State:           m.state,
		AccessToken:     m.accessToken,
		Claims:          m.claims,
		IsAuthenticated: m.authenticated,
		IsLoading:       m.state.InFlight(),
	}
}

var (
	_ IdentityProvider = (*idp.Client)(nil)
	_ CredentialStore  = (*credentials.Store)(nil)
)
