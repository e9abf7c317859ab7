// Package appstate is the single source of truth for "is anyone logged in
// and as whom". It bridges login, logout, and switch-account intents into
// session store mutations, decides the startup screen, and recomputes the
// menu and tab authorisation whenever the current identity changes.
//
// The controller is an explicitly constructed, injected service owned by the
// application root. UI layers observe it through Subscribe; they never reach
// into ambient shared state.
package appstate

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmedis/go-mobile-shell/menuaccess"
	"github.com/vmedis/go-mobile-shell/securestore"
	"github.com/vmedis/go-mobile-shell/sessions"
	"github.com/vmedis/go-mobile-shell/storage"
	"github.com/vmedis/go-mobile-shell/users"
)

// State names what the shell should present.
type State string

const (
	StateLoggedOut     State = "logged_out"
	StateAccountPicker State = "account_picker"
	StateLoggedIn      State = "logged_in"
)

// EventKind classifies controller notifications.
type EventKind string

const (
	// EventStateChanged fires on any state transition.
	EventStateChanged EventKind = "state_changed"
	// EventIdentityChanged fires when the current user changes identity.
	// Consumers must treat it as a full reload: menu filter, tabs, and the
	// embedded web surface are all stale.
	EventIdentityChanged EventKind = "identity_changed"
	// EventNavigate delivers a validated inbound navigation request.
	EventNavigate EventKind = "navigate"
)

// Event is delivered to subscribers after the triggering mutation has fully
// completed, persistence included.
type Event struct {
	Kind    EventKind
	State   State
	User    *users.UserRecord
	Route   string
	Filters map[string]string
}

// Controller is the application session controller. All mutations are
// serialized; observers never see a half-applied transition.
type Controller struct {
	mu          sync.Mutex
	state       State
	currentUser *users.UserRecord
	tabs        menuaccess.GrantSet
	menu        []menuaccess.MenuNode

	store     *sessions.Store
	kv        storage.KV
	secure    *securestore.Store
	log       zerolog.Logger
	nowTime   func() time.Time
	observers []func(Event)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

// NewController builds the controller and resolves the startup state: a
// persisted login resumes directly, multiple stored sessions without one
// show the account picker, anything else shows the login prompt.
func NewController(store *sessions.Store, kv storage.KV, secure *securestore.Store, log zerolog.Logger, options ...ControllerOption) *Controller {
	c := &Controller{
		state:   StateLoggedOut,
		store:   store,
		kv:      kv,
		secure:  secure,
		log:     log.With().Str("component", "appstate").Logger(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	c.restore()
	return c
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns a copy of the active user record, or nil.
func (c *Controller) CurrentUser() *users.UserRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentUser == nil {
		return nil
	}
	cp := *c.currentUser
	return &cp
}

// AccessibleTabs returns the tab ids the current user may see. Empty when
// nobody is logged in.
func (c *Controller) AccessibleTabs() menuaccess.GrantSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(menuaccess.GrantSet, len(c.tabs))
	for tab := range c.tabs {
		out[tab] = struct{}{}
	}
	return out
}

// FilteredMenu returns the menu tree filtered for the current user.
func (c *Controller) FilteredMenu() []menuaccess.MenuNode {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]menuaccess.MenuNode, len(c.menu))
	copy(out, c.menu)
	return out
}

// Subscribe registers an observer. Observers are invoked synchronously after
// each completed mutation, outside the controller lock.
func (c *Controller) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Login records a successful authentication: the user becomes current, the
// login state is persisted (token mirrored into the secure store), and the
// session store is updated.
func (c *Controller) Login(user users.UserRecord) {
	c.mu.Lock()
	c.currentUser = &user
	c.state = StateLoggedIn
	c.persistLoginStateLocked()
	c.recomputeAccessLocked()
	events := c.identityEventsLocked()
	c.mu.Unlock()

	c.store.AddOrUpdate(user)
	c.notify(events)
	c.log.Info().Str("username", user.Username).Str("domain", user.Domain).Msg("logged in")
}

// SwitchAccount activates another stored session. Downstream consumers must
// treat a successful switch as a full identity change. Returns false when
// the session id is unknown.
func (c *Controller) SwitchAccount(sessionID string) bool {
	session, ok := c.store.Get(sessionID)
	if !ok {
		c.log.Warn().Str("session_id", sessionID).Msg("switch to unknown session refused")
		return false
	}
	c.store.SwitchTo(sessionID)

	c.mu.Lock()
	user := session.User
	c.currentUser = &user
	c.state = StateLoggedIn
	c.persistLoginStateLocked()
	c.recomputeAccessLocked()
	events := c.identityEventsLocked()
	c.mu.Unlock()

	c.notify(events)
	c.log.Info().Str("username", user.Username).Str("domain", user.Domain).Msg("switched account")
	return true
}

// Logout ends only the current account's session. When another stored
// session becomes active it is adopted and the shell stays logged in;
// otherwise all persisted login state is cleared.
func (c *Controller) Logout() {
	c.mu.Lock()
	current := c.currentUser
	c.mu.Unlock()

	if current != nil {
		c.store.RemoveByIdentity(current.Username, current.Domain)
	}

	if next := c.store.Active(); next != nil {
		c.mu.Lock()
		user := next.User
		c.currentUser = &user
		c.state = StateLoggedIn
		c.persistLoginStateLocked()
		c.recomputeAccessLocked()
		events := c.identityEventsLocked()
		c.mu.Unlock()

		c.notify(events)
		c.log.Info().Str("username", user.Username).Msg("logged out, adopted next session")
		return
	}

	c.mu.Lock()
	c.currentUser = nil
	c.state = StateLoggedOut
	c.clearLoginStateLocked()
	c.recomputeAccessLocked()
	events := []Event{{Kind: EventStateChanged, State: StateLoggedOut}}
	c.mu.Unlock()

	c.notify(events)
	c.log.Info().Msg("logged out, no sessions remaining")
}

// LogoutAll removes every stored session and all persisted login state.
func (c *Controller) LogoutAll() {
	c.store.ClearAll()

	c.mu.Lock()
	c.currentUser = nil
	c.state = StateLoggedOut
	c.clearLoginStateLocked()
	c.recomputeAccessLocked()
	events := []Event{{Kind: EventStateChanged, State: StateLoggedOut}}
	c.mu.Unlock()

	c.notify(events)
	c.log.Info().Msg("logged out of all accounts")
}

// restore resolves the startup state from persisted storage.
func (c *Controller) restore() {
	raw, ok, err := c.kv.Get(storage.KeyLoginFlag)
	loggedIn := err == nil && ok && string(raw) == "true"

	if loggedIn {
		if user := c.loadPersistedUser(); user != nil {
			c.currentUser = user
			c.state = StateLoggedIn
			c.recomputeAccessLocked()
			c.log.Info().Str("username", user.Username).Msg("restored login from storage")
			return
		}
		// Flag without a readable record is stale state.
		c.clearLoginStateLocked()
	}

	if c.store.Len() > 1 {
		c.state = StateAccountPicker
		c.log.Info().Int("sessions", c.store.Len()).Msg("multiple stored sessions, showing account picker")
		return
	}
	c.state = StateLoggedOut
}

func (c *Controller) loadPersistedUser() *users.UserRecord {
	raw, ok, err := c.kv.Get(storage.KeyCurrentUser)
	if err != nil || !ok {
		return nil
	}
	var user users.UserRecord
	if err := json.Unmarshal(raw, &user); err != nil {
		c.log.Error().Err(err).Msg("persisted user record undecodable")
		return nil
	}

	token, err := c.secure.LoadToken()
	if err == nil {
		if securestore.TokenExpired(token, c.nowTime()) {
			c.log.Warn().Str("username", user.Username).Msg("restored bearer token is expired")
		}
		user.Token = token
	}
	return &user
}

// persistLoginStateLocked writes the login flag, the current record, and the
// bearer token. Failures are logged and do not block the in-memory
// transition; the next successful write reconciles.
func (c *Controller) persistLoginStateLocked() {
	if c.currentUser == nil {
		return
	}
	if err := c.kv.Set(storage.KeyLoginFlag, []byte("true")); err != nil {
		c.log.Error().Err(err).Msg("failed to persist login flag")
	}
	raw, err := json.Marshal(c.currentUser)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to marshal user record")
	} else if err := c.kv.Set(storage.KeyCurrentUser, raw); err != nil {
		c.log.Error().Err(err).Msg("failed to persist user record")
	}
	if c.currentUser.Token != "" {
		if err := c.secure.SaveToken(c.currentUser.Token); err != nil {
			c.log.Error().Err(err).Msg("failed to store bearer token")
		}
	}
}

// clearLoginStateLocked removes the persisted login group: flag, record, and
// secure token.
func (c *Controller) clearLoginStateLocked() {
	if err := c.kv.Delete(storage.KeyLoginFlag); err != nil {
		c.log.Error().Err(err).Msg("failed to clear login flag")
	}
	if err := c.kv.Delete(storage.KeyCurrentUser); err != nil {
		c.log.Error().Err(err).Msg("failed to clear user record")
	}
	if err := c.secure.DeleteToken(); err != nil {
		c.log.Error().Err(err).Msg("failed to clear bearer token")
	}
}

func (c *Controller) recomputeAccessLocked() {
	if c.currentUser == nil {
		c.tabs = menuaccess.GrantSet{}
		c.menu = nil
		return
	}
	grants := menuaccess.NewGrantSet(c.currentUser.GrantedMenuURLs)
	superadmin := c.currentUser.IsSuperadmin()
	c.tabs = menuaccess.ComputeAccessibleTabs(menuaccess.FixedTabs(), grants, superadmin)
	c.menu = menuaccess.FilterMenuTree(menuaccess.DefaultMenuTree(), grants, superadmin)
}

func (c *Controller) identityEventsLocked() []Event {
	var user *users.UserRecord
	if c.currentUser != nil {
		cp := *c.currentUser
		user = &cp
	}
	return []Event{
		{Kind: EventStateChanged, State: c.state, User: user},
		{Kind: EventIdentityChanged, State: c.state, User: user},
	}
}

func (c *Controller) notify(events []Event) {
	c.mu.Lock()
	observers := make([]func(Event), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		for _, ev := range events {
			fn(ev)
		}
	}
}
