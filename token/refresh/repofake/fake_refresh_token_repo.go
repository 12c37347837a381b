// Package refreshrepofake is an in-memory refresh.Repo for the dev identity
// provider and tests.
package refreshrepofake

import (
	"sync"
	"time"

	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/jrsteele09/go-school-client/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	lock   sync.RWMutex
	byTok  map[string]*refresh.StoredRefreshToken
	byUser map[string]string
}

func NewFakeRefreshTokenRepo() refresh.Repo {
	return &FakeRefreshTokenRepo{
		byTok:  make(map[string]*refresh.StoredRefreshToken),
		byUser: make(map[string]string),
	}
}

func (r *FakeRefreshTokenRepo) Save(rt *refresh.StoredRefreshToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if prev, ok := r.byUser[rt.UserID]; ok && prev != rt.Token {
		delete(r.byTok, prev)
	}
	stored := *rt
	r.byTok[rt.Token] = &stored
	r.byUser[rt.UserID] = rt.Token
	return nil
}

func (r *FakeRefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	rt, ok := r.byTok[token]
	if !ok {
		return nil, schoolerrors.ErrNotFound
	}
	out := *rt
	return &out, nil
}

func (r *FakeRefreshTokenRepo) Delete(token string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	rt, ok := r.byTok[token]
	if !ok {
		return schoolerrors.ErrNotFound
	}
	r.remove(rt)
	return nil
}

func (r *FakeRefreshTokenRepo) DeleteForUser(userID string) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	token, ok := r.byUser[userID]
	if !ok {
		return false, nil
	}
	r.remove(r.byTok[token])
	return true, nil
}

func (r *FakeRefreshTokenRepo) DeleteIssuedBefore(cutoff time.Time) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var n int
	for _, rt := range r.byTok {
		if rt.IssuedAt.Before(cutoff) {
			r.remove(rt)
			n++
		}
	}
	return n, nil
}

// remove expects the write lock to be held.
func (r *FakeRefreshTokenRepo) remove(rt *refresh.StoredRefreshToken) {
	delete(r.byTok, rt.Token)
	if r.byUser[rt.UserID] == rt.Token {
		delete(r.byUser, rt.UserID)
	}
}
