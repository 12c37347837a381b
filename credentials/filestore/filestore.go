// Package filestore is on-device secure storage: one sealed file per key in a
// directory only the owner can read.
//
// Records are sealed with a key loaded by LoadOrCreateKey. Confidentiality
// holds only while that key file lives apart from the directory; kept side by
// side, the 0700 directory and 0600 file permissions are the real protection
// and sealing adds tamper detection.
package filestore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-school-client/credentials"
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
	fileExt  = ".cred"
)

var _ credentials.KeyValue = (*Store)(nil)

// Store seals values with XChaCha20-Poly1305. The storage key is bound to the
// ciphertext as additional data so files cannot be swapped between keys.
type Store struct {
	dir    string
	key    []byte
	logger zerolog.Logger
	lock   sync.Mutex
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates dir if needed. key must be chacha20poly1305.KeySize bytes.
func New(dir string, key []byte, options ...Option) (*Store, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, schoolerrors.ErrInvalidKeySize
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}
	s := &Store{
		dir:    dir,
		key:    append([]byte(nil), key...),
		logger: log.With().Str("component", "filestore").Logger(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// LoadOrCreateKey reads a raw key file, generating a random key on first use.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, schoolerrors.ErrInvalidKeySize
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := writeAtomic(path, key); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	sealed, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("failed to open %s: %w", key, schoolerrors.ErrCorruptRecord)
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, schoolerrors.ErrCorruptRecord)
	}
	return plain, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, value, []byte(key))

	if err := writeAtomic(s.path(key), sealed); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("credential write failed")
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Msg("credential stored")
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Msg("credential deleted")
	return nil
}

func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:8])+fileExt)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
