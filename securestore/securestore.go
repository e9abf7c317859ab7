// Package securestore keeps the bearer token encrypted at rest, standing in
// for the platform keychain. The token is sealed with ChaCha20-Poly1305
// under a device-local key; the backing storage only ever sees ciphertext.
package securestore

import (
	"crypto/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/vmedis/go-mobile-shell/storage"
	"golang.org/x/crypto/chacha20poly1305"
)

const tokenKey = "userToken"

var (
	ErrNotFound   = errors.New("token not found")
	ErrInvalidKey = errors.New("key must be 32 bytes")
	ErrCorrupt    = errors.New("stored token is corrupt")
)

// Store seals and unseals the bearer token over a storage.KV.
type Store struct {
	kv  storage.KV
	key []byte
	log zerolog.Logger
}

// New creates a Store with the given 32-byte device key.
func New(kv storage.KV, key []byte, log zerolog.Logger) (*Store, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	return &Store{
		kv:  kv,
		key: key,
		log: log.With().Str("component", "securestore").Logger(),
	}, nil
}

// SaveToken seals and stores the bearer token, replacing any previous one.
func (s *Store) SaveToken(token string) error {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return errors.Wrap(err, "[SaveToken] cipher")
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, "[SaveToken] nonce")
	}
	sealed := aead.Seal(nonce, nonce, []byte(token), nil)

	if err := s.kv.Set(tokenKey, sealed); err != nil {
		return errors.Wrap(err, "[SaveToken] persist")
	}
	return nil
}

// LoadToken returns the stored bearer token, or ErrNotFound.
func (s *Store) LoadToken() (string, error) {
	sealed, ok, err := s.kv.Get(tokenKey)
	if err != nil {
		return "", errors.Wrap(err, "[LoadToken] read")
	}
	if !ok {
		return "", ErrNotFound
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", errors.Wrap(err, "[LoadToken] cipher")
	}
	if len(sealed) < aead.NonceSize() {
		return "", ErrCorrupt
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrCorrupt
	}
	return string(plain), nil
}

// DeleteToken removes the stored token. Missing tokens are not an error.
func (s *Store) DeleteToken() error {
	return errors.Wrap(s.kv.Delete(tokenKey), "[DeleteToken] delete")
}

// TokenExpired is a best-effort staleness probe used when restoring a login
// at startup. Backend tokens are usually JWTs; when one parses and carries
// an exp claim in the past, the restored session needs a fresh login. Tokens
// that are not JWTs, or carry no exp claim, are never treated as expired -
// the backend remains the authority.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(now)
}
