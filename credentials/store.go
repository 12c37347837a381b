// Package credentials persists the current token pair between process launches.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
)

// Key is the storage key the token pair lives under.
const Key = "auth"

// Record is the persisted credential record.
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// KeyValue is secure key/value storage. Get returns (nil, nil) for a missing
// key and Delete of a missing key is not an error.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// StoreError reports a failed credential store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("credential store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store reads and writes the Record under Key.
type Store struct {
	kv KeyValue
}

func NewStore(kv KeyValue) *Store {
	return &Store{kv: kv}
}

// Load returns the stored record, or nil when nothing is stored.
func (s *Store) Load(ctx context.Context) (*Record, error) {
	data, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, &StoreError{Op: "load", Err: err}
	}
	if data == nil {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &StoreError{Op: "load", Err: fmt.Errorf("%w: %v", schoolerrors.ErrCorruptRecord, err)}
	}
	return &rec, nil
}

func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return s.Delete(ctx)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	if err := s.kv.Delete(ctx, Key); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}
