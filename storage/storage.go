// Package storage defines the durable key/value contract the session and
// application state layers persist through. The store stands in for the
// platform's local preference storage: single process, single device, no
// cross-process locking.
package storage

// Well-known keys. Everything under these keys must be clearable as a group
// on full logout.
const (
	KeyLoginFlag       = "isUserLoggedIn"
	KeyCurrentUser     = "userData"
	KeySessions        = "accountSessions"
	KeyActiveSessionID = "activeSessionId"
)

// KV is a minimal durable key/value store. Implementations must make Set
// durable before returning; readers in the same process observe writes
// immediately.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)

	// Set stores the value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key string) error
}
