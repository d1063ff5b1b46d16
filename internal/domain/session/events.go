package session

import "time"

// EventKind classifies an auth lifecycle event.
type EventKind string

// Auth lifecycle event kinds.
const (
	EventRestore        EventKind = "restore"
	EventRestoreFailed  EventKind = "restore_failed"
	EventLogin          EventKind = "login"
	EventLoginFailed    EventKind = "login_failed"
	EventRegister       EventKind = "register"
	EventRegisterFailed EventKind = "register_failed"
	EventLogout         EventKind = "logout"
	EventRefresh        EventKind = "refresh"
	EventRefreshFailed  EventKind = "refresh_failed"
	EventUserUpdated    EventKind = "user_updated"
)

// Event is an auth lifecycle record handed to the configured sink.
type Event struct {
	// Time is when the event occurred (UTC).
	Time time.Time `json:"time"`
	// Kind classifies the event.
	Kind EventKind `json:"kind"`
	// Email is the sign-in address involved, when known.
	Email string `json:"email,omitempty"`
	// IdentityID is the identity involved, when known.
	IdentityID string `json:"identity_id,omitempty"`
	// Error carries the failure message for *_failed kinds.
	Error string `json:"error,omitempty"`
}

// EventSink receives auth lifecycle events for audit and metrics purposes.
// Implementations must not block: Record is called on the auth path.
type EventSink interface {
	Record(event Event)
}

// MultiSink fans one event out to several sinks (audit log plus metrics).
type MultiSink []EventSink

// Record forwards the event to every sink.
func (m MultiSink) Record(ev Event) {
	for _, s := range m {
		s.Record(ev)
	}
}

var _ EventSink = (MultiSink)(nil)
