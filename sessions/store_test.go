package sessions_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmedis/go-mobile-shell/sessions"
	"github.com/vmedis/go-mobile-shell/storage"
	"github.com/vmedis/go-mobile-shell/storage/storagefakes"
	"github.com/vmedis/go-mobile-shell/users"
)

type storeFixture struct {
	kv    *storagefakes.FakeKV
	store *sessions.Store
	now   time.Time
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	f := &storeFixture{
		kv:  storagefakes.NewFakeKV(),
		now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	nextID := 0
	f.store = sessions.NewStore(f.kv, zerolog.Nop(),
		sessions.WithNowTime(func() time.Time { return f.now }),
		sessions.WithIDGenerator(func() string {
			nextID++
			return fmt.Sprintf("session-%d", nextID)
		}),
	)
	return f
}

func (f *storeFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func testUser(username, domain string) users.UserRecord {
	return users.UserRecord{
		ID:       "id-" + username,
		Username: username,
		Domain:   domain,
		Level:    5,
	}
}

// requireSingleActive asserts the exactly-one-active invariant and that the
// persisted active id resolves to that session.
func requireSingleActive(t *testing.T, f *storeFixture) {
	t.Helper()

	active := 0
	activeID := ""
	for _, s := range f.store.All() {
		if s.Active {
			active++
			activeID = s.ID
		}
	}
	require.LessOrEqual(t, active, 1, "more than one active session")

	raw, ok, err := f.kv.Get(storage.KeyActiveSessionID)
	require.NoError(t, err)
	if active == 0 {
		assert.False(t, ok, "active pointer persisted with no active session")
		return
	}
	require.True(t, ok, "no persisted active pointer")
	assert.Equal(t, activeID, string(raw))
}

func TestAddOrUpdateDeduplicatesByIdentity(t *testing.T) {
	f := newStoreFixture(t)

	first := testUser("budi", "klinik-a")
	first.GrantedMenuURLs = []string{"/obathabis"}
	f.store.AddOrUpdate(first)

	f.advance(time.Minute)
	second := testUser("budi", "klinik-a")
	second.GrantedMenuURLs = []string{"/laporan-penjualan-obat", "/janji"}
	f.store.AddOrUpdate(second)

	require.Equal(t, 1, f.store.Len())
	active := f.store.Active()
	require.NotNil(t, active)
	assert.Equal(t, second.GrantedMenuURLs, active.User.GrantedMenuURLs)
	requireSingleActive(t, f)
}

func TestAddOrUpdateDistinctDomainsAreDistinctSessions(t *testing.T) {
	f := newStoreFixture(t)

	f.store.AddOrUpdate(testUser("budi", "klinik-a"))
	f.store.AddOrUpdate(testUser("budi", "klinik-b"))

	assert.Equal(t, 2, f.store.Len())
	requireSingleActive(t, f)
}

func TestSingleActiveInvariant(t *testing.T) {
	f := newStoreFixture(t)

	a := f.store.AddOrUpdate(testUser("a", "d"))
	f.advance(time.Minute)
	b := f.store.AddOrUpdate(testUser("b", "d"))
	f.advance(time.Minute)
	f.store.AddOrUpdate(testUser("c", "d"))
	requireSingleActive(t, f)

	require.True(t, f.store.SwitchTo(a.ID))
	requireSingleActive(t, f)
	assert.Equal(t, a.ID, f.store.Active().ID)

	f.store.Remove(b.ID)
	requireSingleActive(t, f)
	assert.Equal(t, a.ID, f.store.Active().ID)

	f.store.Remove(a.ID)
	requireSingleActive(t, f)
	require.NotNil(t, f.store.Active())
}

func TestSwitchToUnknownIsNoOp(t *testing.T) {
	f := newStoreFixture(t)

	active := f.store.AddOrUpdate(testUser("a", "d"))
	assert.False(t, f.store.SwitchTo("nope"))
	require.NotNil(t, f.store.Active())
	assert.Equal(t, active.ID, f.store.Active().ID)
	requireSingleActive(t, f)
}

func TestSwitchRefreshesLastAccessTime(t *testing.T) {
	f := newStoreFixture(t)

	a := f.store.AddOrUpdate(testUser("a", "d"))
	f.advance(time.Minute)
	f.store.AddOrUpdate(testUser("b", "d"))

	f.advance(time.Hour)
	require.True(t, f.store.SwitchTo(a.ID))

	got, ok := f.store.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, f.now, got.LastAccessTime)
}

func TestEvictionAtCapacity(t *testing.T) {
	f := newStoreFixture(t)

	// Five sessions with strictly increasing last-access times. The first
	// becomes the oldest inactive; the last added is active.
	var ids []string
	for i := 0; i < sessions.MaxSessions; i++ {
		s := f.store.AddOrUpdate(testUser(fmt.Sprintf("user-%d", i), "d"))
		ids = append(ids, s.ID)
		f.advance(time.Minute)
	}
	require.Equal(t, sessions.MaxSessions, f.store.Len())
	require.Equal(t, 0, f.store.RemainingSlots())

	f.store.AddOrUpdate(testUser("newcomer", "d"))

	require.Equal(t, sessions.MaxSessions, f.store.Len())
	_, evicted := f.store.Get(ids[0])
	assert.False(t, evicted, "oldest inactive session should be evicted")
	for _, id := range ids[1:] {
		_, ok := f.store.Get(id)
		assert.True(t, ok, "session %s should survive", id)
	}
	requireSingleActive(t, f)
}

func TestEvictionNeverTakesTheActiveSession(t *testing.T) {
	f := newStoreFixture(t)

	var first sessions.AccountSession
	var second sessions.AccountSession
	for i := 0; i < sessions.MaxSessions; i++ {
		s := f.store.AddOrUpdate(testUser(fmt.Sprintf("user-%d", i), "d"))
		switch i {
		case 0:
			first = s
		case 1:
			second = s
		}
		f.advance(time.Minute)
	}

	// Make the session with the oldest access time the active one: wind the
	// clock back before every stored timestamp, then switch to it.
	f.advance(-2 * time.Hour)
	require.True(t, f.store.SwitchTo(first.ID))
	f.advance(3 * time.Hour)

	f.store.AddOrUpdate(testUser("newcomer", "d"))

	_, ok := f.store.Get(first.ID)
	assert.True(t, ok, "active session must never be evicted")
	_, ok = f.store.Get(second.ID)
	assert.False(t, ok, "oldest inactive session should be the one evicted")
	requireSingleActive(t, f)
}

func TestRemoveCascading(t *testing.T) {
	f := newStoreFixture(t)

	a := f.store.AddOrUpdate(testUser("a", "d"))
	f.advance(time.Minute)
	b := f.store.AddOrUpdate(testUser("b", "d"))

	t.Run("removing the active session promotes the first remaining", func(t *testing.T) {
		f.store.Remove(b.ID)
		require.Equal(t, 1, f.store.Len())
		active := f.store.Active()
		require.NotNil(t, active)
		assert.Equal(t, a.ID, active.ID)
		requireSingleActive(t, f)
	})

	t.Run("removing the only session clears the active pointer", func(t *testing.T) {
		f.store.Remove(a.ID)
		assert.Equal(t, 0, f.store.Len())
		assert.Nil(t, f.store.Active())
		requireSingleActive(t, f)
	})
}

func TestRemoveByIdentity(t *testing.T) {
	f := newStoreFixture(t)

	f.store.AddOrUpdate(testUser("a", "d"))
	assert.True(t, f.store.RemoveByIdentity("a", "d"))
	assert.False(t, f.store.RemoveByIdentity("a", "d"))
	assert.Equal(t, 0, f.store.Len())
}

func TestClearAllDeletesStorageKeys(t *testing.T) {
	f := newStoreFixture(t)

	f.store.AddOrUpdate(testUser("a", "d"))
	f.store.ClearAll()

	assert.Equal(t, 0, f.store.Len())
	assert.Nil(t, f.store.Active())
	assert.False(t, f.kv.Has(storage.KeySessions))
	assert.False(t, f.kv.Has(storage.KeyActiveSessionID))
}

func TestPersistenceSurvivesReload(t *testing.T) {
	f := newStoreFixture(t)

	f.store.AddOrUpdate(testUser("a", "d"))
	f.advance(time.Minute)
	b := f.store.AddOrUpdate(testUser("b", "d"))
	assert.Equal(t, 4, f.kv.SetCalls, "every mutation persists the collection and the active pointer")

	reloaded := sessions.NewStore(f.kv, zerolog.Nop())
	require.Equal(t, 2, reloaded.Len())
	active := reloaded.Active()
	require.NotNil(t, active)
	assert.Equal(t, b.ID, active.ID)
}

func TestReloadFallsBackToFlaggedActive(t *testing.T) {
	f := newStoreFixture(t)

	f.store.AddOrUpdate(testUser("a", "d"))
	f.advance(time.Minute)
	b := f.store.AddOrUpdate(testUser("b", "d"))

	// Simulate a lost active pointer.
	require.NoError(t, f.kv.Delete(storage.KeyActiveSessionID))

	reloaded := sessions.NewStore(f.kv, zerolog.Nop())
	active := reloaded.Active()
	require.NotNil(t, active)
	assert.Equal(t, b.ID, active.ID)
}

func TestPersistenceFailureDoesNotBlockMutation(t *testing.T) {
	f := newStoreFixture(t)
	f.kv.FailWrites = true

	f.store.AddOrUpdate(testUser("a", "d"))
	require.Equal(t, 1, f.store.Len())
	require.NotNil(t, f.store.Active())
	assert.Equal(t, 2, f.kv.SetCalls, "collection and active pointer writes both attempted")
}

func TestCapacityQueries(t *testing.T) {
	f := newStoreFixture(t)

	assert.Equal(t, sessions.MaxSessions, f.store.Capacity())
	assert.Equal(t, sessions.MaxSessions, f.store.RemainingSlots())
	f.store.AddOrUpdate(testUser("a", "d"))
	assert.Equal(t, sessions.MaxSessions-1, f.store.RemainingSlots())
}
