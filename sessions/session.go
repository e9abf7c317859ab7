// Package sessions manages the ordered collection of resumable account
// logins and the pointer to whichever one is active. At most one session is
// active at a time; the collection and the active pointer survive process
// restarts through the storage layer.
package sessions

import (
	"time"

	"github.com/vmedis/go-mobile-shell/users"
)

// AccountSession is one persisted, resumable login. The session id is stable
// for the session's lifetime and independent of the backend user id;
// deduplication is by the (username, domain) pair of the embedded user.
type AccountSession struct {
	ID             string           `json:"id"`
	User           users.UserRecord `json:"userData"`
	LoginTime      time.Time        `json:"loginTime"`
	LastAccessTime time.Time        `json:"lastAccessTime"`
	Active         bool             `json:"isActive"`
}

// DisplayName returns a human-readable label for account pickers.
func (s *AccountSession) DisplayName() string {
	return s.User.DisplayName()
}

// DomainInfo returns the clinic or domain label for account pickers.
func (s *AccountSession) DomainInfo() string {
	return s.User.DomainInfo()
}

// Matches reports whether this session belongs to the given login identity.
func (s *AccountSession) Matches(username, domain string) bool {
	return s.User.Username == username && s.User.Domain == domain
}
