package bridge_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmedis/go-mobile-shell/bridge"
	"github.com/vmedis/go-mobile-shell/internal/config"
	"github.com/vmedis/go-mobile-shell/users"
)

type issuerFixture struct {
	issuer *bridge.Issuer
	server *httptest.Server

	calls      int32
	failFirstN int32
	status     int
	response   map[string]any
}

func newIssuerFixture(t *testing.T) *issuerFixture {
	t.Helper()

	f := &issuerFixture{
		status:   http.StatusOK,
		response: map[string]any{"status": "success", "data": "bridging-token"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/get-token", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.calls, 1)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload, "user")
		assert.Contains(t, payload, "identity")
		assert.Contains(t, payload, "accessToken")
		assert.Contains(t, payload, "expiredToken")

		if n <= f.failFirstN || f.status != http.StatusOK {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.response)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	t.Setenv("BRIDGE_BASE_URL", f.server.URL)
	t.Setenv("FALLBACK_BASE_URL", "https://v3.vmedis.com/")

	f.issuer = bridge.NewIssuer(config.New(), zerolog.Nop(),
		bridge.WithRetryInterval(time.Millisecond),
	)
	return f
}

func issuerUser() *users.UserRecord {
	return &users.UserRecord{
		ID:       "42",
		Username: "budi",
		Domain:   "klinik-sehat",
		Level:    5,
		Token:    "bearer-token",
	}
}

func TestBuildEntryURL(t *testing.T) {
	f := newIssuerFixture(t)

	entry, err := f.issuer.BuildEntryURL(context.Background(), issuerUser(), "mobile")
	require.NoError(t, err)

	assert.Equal(t, "/klinik-sehat/auth", entry.Path)
	assert.Equal(t, "bridging-token", entry.Query().Get("token"))
	assert.Equal(t, "mobile", entry.Query().Get("menu"))
	assert.EqualValues(t, 1, f.calls)
}

func TestBuildEntryURLRejectedExchange(t *testing.T) {
	f := newIssuerFixture(t)
	f.response = map[string]any{"status": "failed", "message": "nope"}

	_, err := f.issuer.BuildEntryURL(context.Background(), issuerUser(), "mobile")
	require.ErrorIs(t, err, bridge.TokenExchangeErr)
}

func TestEntryURLWithFallbackRecoversWithinRetryBudget(t *testing.T) {
	f := newIssuerFixture(t)
	f.failFirstN = 2 // first attempt plus one retry fail, the second retry lands

	entry := f.issuer.EntryURLWithFallback(context.Background(), issuerUser(), "mobile")
	assert.Equal(t, "bridging-token", entry.Query().Get("token"))
	assert.EqualValues(t, 3, f.calls)
}

func TestEntryURLWithFallbackExhaustsRetries(t *testing.T) {
	f := newIssuerFixture(t)
	f.status = http.StatusServiceUnavailable

	entry := f.issuer.EntryURLWithFallback(context.Background(), issuerUser(), "mobile")

	require.NotNil(t, entry)
	assert.Equal(t, "v3.vmedis.com", entry.Host)
	assert.Equal(t, "/klinik-sehat/mobile", entry.Path)
	assert.Empty(t, entry.Query().Get("token"))
	assert.EqualValues(t, 3, f.calls, "one attempt plus two retries")
}

func TestFallbackURLUsesDefaultDomainWithoutUser(t *testing.T) {
	f := newIssuerFixture(t)

	fallback := f.issuer.FallbackURL(nil, "mobile")
	assert.Equal(t, "/vmedis/mobile", fallback.Path)
}

func TestAccessCode(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	code := bridge.AccessCode("42", at)

	decoded, err := base64.StdEncoding.DecodeString(code)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("42--SED--%d", at.UnixMilli()), string(decoded))
}
