package sessions

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmedis/go-mobile-shell/storage"
	"github.com/vmedis/go-mobile-shell/users"
)

// MaxSessions caps how many accounts may be stored concurrently.
const MaxSessions = 5

// Store owns the session collection. All mutating operations run under one
// lock and complete their persistence side-effect before returning, so no
// other consumer ever observes zero or two active sessions mid-mutation.
// Persistence failures are logged and never surfaced to mutating callers;
// the in-memory state stays authoritative and the next successful write
// reconciles.
type Store struct {
	mu       sync.Mutex
	sessions []AccountSession
	activeID string

	kv      storage.KV
	log     zerolog.Logger
	nowTime func() time.Time
	newID   func() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithIDGenerator sets the session id generator (primarily for testing).
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) {
		s.newID = gen
	}
}

// NewStore creates a Store over the given storage and loads any persisted
// collection.
func NewStore(kv storage.KV, log zerolog.Logger, options ...StoreOption) *Store {
	s := &Store{
		kv:      kv,
		log:     log.With().Str("component", "sessions").Logger(),
		nowTime: time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(s)
	}
	s.load()
	return s
}

// AddOrUpdate records a successful login. If a session already exists for
// the user's (username, domain) identity it is refreshed in place - the
// embedded record is replaced wholesale so new grants take effect - and made
// active. Otherwise a new active session is appended, evicting the
// least-recently-accessed inactive session when the cap is reached.
func (s *Store) AddOrUpdate(user users.UserRecord) AccountSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowTime()

	if idx := s.indexOfIdentityLocked(user.Username, user.Domain); idx >= 0 {
		s.deactivateAllLocked()
		s.sessions[idx].User = user
		s.sessions[idx].LastAccessTime = now
		s.sessions[idx].Active = true
		s.activeID = s.sessions[idx].ID
		s.persistLocked()
		s.log.Debug().Str("username", user.Username).Str("domain", user.Domain).Msg("refreshed existing session")
		return s.sessions[idx]
	}

	// Evict while the previous activity flags still stand, so the session
	// that was active going into this call is never the one removed.
	if len(s.sessions) >= MaxSessions {
		s.evictOldestInactiveLocked()
	}
	s.deactivateAllLocked()

	session := AccountSession{
		ID:             s.newID(),
		User:           user,
		LoginTime:      now,
		LastAccessTime: now,
		Active:         true,
	}
	s.sessions = append(s.sessions, session)
	s.activeID = session.ID
	s.persistLocked()
	s.log.Debug().Str("username", user.Username).Str("domain", user.Domain).Msg("added new session")
	return session
}

// SwitchTo makes the session with the given id active and refreshes its
// last-access timestamp. Returns false, changing nothing durable, when the
// id is unknown.
func (s *Store) SwitchTo(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfIDLocked(sessionID)
	if idx < 0 {
		s.log.Warn().Str("session_id", sessionID).Msg("switch to unknown session ignored")
		return false
	}

	s.deactivateAllLocked()
	s.sessions[idx].Active = true
	s.sessions[idx].LastAccessTime = s.nowTime()
	s.activeID = sessionID
	s.persistLocked()
	s.log.Debug().Str("session_id", sessionID).Msg("switched active session")
	return true
}

// Remove deletes the session with the given id. If it was active, the first
// remaining session (in collection order) is promoted; with none remaining
// the active pointer is cleared.
func (s *Store) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfIDLocked(sessionID)
	if idx < 0 {
		return
	}
	wasActive := s.sessions[idx].Active
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if wasActive || s.activeID == sessionID {
		s.activeID = ""
		if len(s.sessions) > 0 {
			s.sessions[0].Active = true
			s.sessions[0].LastAccessTime = s.nowTime()
			s.activeID = s.sessions[0].ID
		}
	}
	s.persistLocked()
	s.log.Debug().Str("session_id", sessionID).Msg("removed session")
}

// RemoveByIdentity removes the session matching a (username, domain) pair.
// Returns false if no such session exists.
func (s *Store) RemoveByIdentity(username, domain string) bool {
	s.mu.Lock()
	idx := s.indexOfIdentityLocked(username, domain)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	id := s.sessions[idx].ID
	s.mu.Unlock()

	s.Remove(id)
	return true
}

// ClearAll empties the collection and deletes the underlying storage keys.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	s.activeID = ""
	if err := s.kv.Delete(storage.KeySessions); err != nil {
		s.log.Error().Err(err).Msg("failed to delete sessions key")
	}
	if err := s.kv.Delete(storage.KeyActiveSessionID); err != nil {
		s.log.Error().Err(err).Msg("failed to delete active session key")
	}
	s.log.Debug().Msg("cleared all sessions")
}

// Active returns a copy of the active session, or nil when none is active.
func (s *Store) Active() *AccountSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].Active {
			cp := s.sessions[i]
			return &cp
		}
	}
	return nil
}

// All returns a copy of the session collection in storage order.
func (s *Store) All() []AccountSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AccountSession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(sessionID string) (AccountSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfIDLocked(sessionID)
	if idx < 0 {
		return AccountSession{}, false
	}
	return s.sessions[idx], true
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Capacity returns the session cap.
func (s *Store) Capacity() int {
	return MaxSessions
}

// RemainingSlots returns how many more accounts can be stored.
func (s *Store) RemainingSlots() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := MaxSessions - len(s.sessions)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Store) deactivateAllLocked() {
	for i := range s.sessions {
		s.sessions[i].Active = false
	}
}

func (s *Store) indexOfIDLocked(sessionID string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfIdentityLocked(username, domain string) int {
	for i := range s.sessions {
		if s.sessions[i].Matches(username, domain) {
			return i
		}
	}
	return -1
}

// evictOldestInactiveLocked drops the least-recently-accessed session among
// those not currently active. Ties resolve to the earliest in collection
// order. The active session is never evicted.
func (s *Store) evictOldestInactiveLocked() {
	oldest := -1
	for i := range s.sessions {
		if s.sessions[i].Active {
			continue
		}
		if oldest < 0 || s.sessions[i].LastAccessTime.Before(s.sessions[oldest].LastAccessTime) {
			oldest = i
		}
	}
	if oldest < 0 {
		return
	}
	evicted := s.sessions[oldest]
	s.sessions = append(s.sessions[:oldest], s.sessions[oldest+1:]...)
	s.log.Debug().Str("username", evicted.User.Username).Msg("evicted oldest inactive session")
}

func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.sessions)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal sessions")
		return
	}
	if err := s.kv.Set(storage.KeySessions, raw); err != nil {
		s.log.Error().Err(err).Msg("failed to persist sessions")
	}
	if s.activeID == "" {
		if err := s.kv.Delete(storage.KeyActiveSessionID); err != nil {
			s.log.Error().Err(err).Msg("failed to clear active session id")
		}
		return
	}
	if err := s.kv.Set(storage.KeyActiveSessionID, []byte(s.activeID)); err != nil {
		s.log.Error().Err(err).Msg("failed to persist active session id")
	}
}

// load restores the collection from storage. The persisted active-session id
// wins when it resolves to a member; otherwise any session still flagged
// active is adopted; otherwise no session is active.
func (s *Store) load() {
	raw, ok, err := s.kv.Get(storage.KeySessions)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read sessions")
		return
	}
	if !ok {
		return
	}
	var loaded []AccountSession
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.log.Error().Err(err).Msg("failed to decode sessions, starting empty")
		return
	}
	s.sessions = loaded

	activeID := ""
	if raw, ok, err := s.kv.Get(storage.KeyActiveSessionID); err == nil && ok {
		activeID = string(raw)
	}

	resolved := -1
	if activeID != "" {
		resolved = s.indexOfIDLocked(activeID)
	}
	if resolved < 0 {
		for i := range s.sessions {
			if s.sessions[i].Active {
				resolved = i
				break
			}
		}
	}

	s.deactivateAllLocked()
	s.activeID = ""
	if resolved >= 0 {
		s.sessions[resolved].Active = true
		s.activeID = s.sessions[resolved].ID
	}
	s.log.Debug().Int("count", len(s.sessions)).Str("active_id", s.activeID).Msg("loaded sessions")
}
