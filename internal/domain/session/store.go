package session

import "errors"

// Storage keys. Both entries are always written and cleared together;
// a partially-present pair is treated as no session at all.
const (
	// KeyToken holds the opaque credential string.
	KeyToken = "auth_token"
	// KeyUser holds the JSON-serialized identity record.
	KeyUser = "auth_user"
)

// StateStore is the key/value blob store the session manager persists to.
// This interface is defined in the domain to avoid circular imports.
// Implementations: file-backed (durable), in-memory (tests).
type StateStore interface {
	// Get retrieves a value. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)

	// Set stores a value.
	Set(key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error
}

// ErrOperationInFlight is returned when a login or registration call is
// issued while another one is still running. The session manager rejects
// rather than racing: last-write-wins between two concurrent logins is a
// bug, not a feature.
var ErrOperationInFlight = errors.New("authentication operation already in flight")
