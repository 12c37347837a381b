// Package fakeclientrepo keeps registered OAuth clients in memory.
package fakeclientrepo

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-school-client/clients"
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
)

var _ clients.Repo = (*FakeClientRepo)(nil)

type FakeClientRepo struct {
	lock    sync.RWMutex
	clients map[string]clients.Client
}

func NewFakeClientRepo() clients.Repo {
	return &FakeClientRepo{clients: map[string]clients.Client{}}
}

// Upsert stores a copy of c, assigning an id when it has none.
func (r *FakeClientRepo) Upsert(c *clients.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	stored := *c
	stored.Scopes = slices.Clone(c.Scopes)

	r.lock.Lock()
	r.clients[c.ID] = stored
	r.lock.Unlock()
	return nil
}

func (r *FakeClientRepo) Delete(clientID string) error {
	r.lock.Lock()
	delete(r.clients, clientID)
	r.lock.Unlock()
	return nil
}

// Get returns ErrInvalidClient for unknown ids so the token endpoint can
// surface it unchanged.
func (r *FakeClientRepo) Get(clientID string) (*clients.Client, error) {
	r.lock.RLock()
	c, ok := r.clients[clientID]
	r.lock.RUnlock()
	if !ok {
		return nil, schoolerrors.ErrInvalidClient
	}
	c.Scopes = slices.Clone(c.Scopes)
	return &c, nil
}

func (r *FakeClientRepo) List(offset, limit int) ([]*clients.Client, error) {
	offset = max(offset, 0)

	r.lock.RLock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, strings.Compare)

	var page []*clients.Client
	for i := offset; i < len(ids) && (limit <= 0 || len(page) < limit); i++ {
		c := r.clients[ids[i]]
		page = append(page, &c)
	}
	r.lock.RUnlock()
	return page, nil
}
