package securestore_test

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmedis/go-mobile-shell/securestore"
	"github.com/vmedis/go-mobile-shell/storage/storagefakes"
)

func testKey(seed string) []byte {
	sum := sha256.Sum256([]byte(seed))
	return sum[:]
}

func newSecureStore(t *testing.T, kv *storagefakes.FakeKV, seed string) *securestore.Store {
	t.Helper()

	store, err := securestore.New(kv, testKey(seed), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := securestore.New(storagefakes.NewFakeKV(), []byte("short"), zerolog.Nop())
	assert.ErrorIs(t, err, securestore.ErrInvalidKey)
}

func TestSaveAndLoadToken(t *testing.T) {
	kv := storagefakes.NewFakeKV()
	store := newSecureStore(t, kv, "key-a")

	require.NoError(t, store.SaveToken("bearer-token"))

	token, err := store.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", token)

	// The backing storage must only ever hold ciphertext.
	raw, ok, err := kv.Get("userToken")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(raw), "bearer-token")
}

func TestLoadTokenMissing(t *testing.T) {
	store := newSecureStore(t, storagefakes.NewFakeKV(), "key-a")

	_, err := store.LoadToken()
	assert.ErrorIs(t, err, securestore.ErrNotFound)
}

func TestLoadTokenWrongKey(t *testing.T) {
	kv := storagefakes.NewFakeKV()
	require.NoError(t, newSecureStore(t, kv, "key-a").SaveToken("bearer-token"))

	_, err := newSecureStore(t, kv, "key-b").LoadToken()
	assert.ErrorIs(t, err, securestore.ErrCorrupt)
}

func TestLoadTokenTruncatedCiphertext(t *testing.T) {
	kv := storagefakes.NewFakeKV()
	require.NoError(t, kv.Set("userToken", []byte("tiny")))

	_, err := newSecureStore(t, kv, "key-a").LoadToken()
	assert.ErrorIs(t, err, securestore.ErrCorrupt)
}

func TestDeleteToken(t *testing.T) {
	kv := storagefakes.NewFakeKV()
	store := newSecureStore(t, kv, "key-a")

	require.NoError(t, store.SaveToken("bearer-token"))
	require.NoError(t, store.DeleteToken())

	_, err := store.LoadToken()
	assert.ErrorIs(t, err, securestore.ErrNotFound)
	require.NoError(t, store.DeleteToken(), "deleting a missing token is not an error")
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	signedWithExp := func(exp time.Time) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": exp.Unix(),
			"sub": "42",
		}).SignedString([]byte("irrelevant"))
		require.NoError(t, err)
		return token
	}

	t.Run("expired jwt", func(t *testing.T) {
		assert.True(t, securestore.TokenExpired(signedWithExp(now.Add(-time.Minute)), now))
	})

	t.Run("live jwt", func(t *testing.T) {
		assert.False(t, securestore.TokenExpired(signedWithExp(now.Add(time.Hour)), now))
	})

	t.Run("jwt without exp claim", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "42",
		}).SignedString([]byte("irrelevant"))
		require.NoError(t, err)
		assert.False(t, securestore.TokenExpired(token, now))
	})

	t.Run("opaque token is never expired", func(t *testing.T) {
		assert.False(t, securestore.TokenExpired("not-a-jwt", now))
	})
}
