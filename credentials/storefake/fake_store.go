package storefake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-school-client/credentials"
)

var _ credentials.KeyValue = (*FakeKeyValue)(nil)

// FakeKeyValue is an in-memory KeyValue. The Err fields, when set, are
// returned by the matching operation instead of touching the map.
type FakeKeyValue struct {
	GetErr    error
	SetErr    error
	DeleteErr error

	Sets    int
	Deletes int

	values map[string][]byte
	lock   sync.RWMutex
}

func NewFakeKeyValue() *FakeKeyValue {
	return &FakeKeyValue{values: make(map[string][]byte)}
}

func (f *FakeKeyValue) Get(_ context.Context, key string) ([]byte, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	v, ok := f.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (f *FakeKeyValue) Set(_ context.Context, key string, value []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Sets++
	if f.SetErr != nil {
		return f.SetErr
	}
	f.values[key] = append([]byte(nil), value...)
	return nil
}

func (f *FakeKeyValue) Delete(_ context.Context, key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Deletes++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.values, key)
	return nil
}

// Has reports whether key is present, bypassing injected errors.
func (f *FakeKeyValue) Has(key string) bool {
	f.lock.RLock()
	defer f.lock.RUnlock()
	_, ok := f.values[key]
	return ok
}

// Put stores value directly, bypassing injected errors and counters.
func (f *FakeKeyValue) Put(key string, value []byte) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.values[key] = append([]byte(nil), value...)
}
