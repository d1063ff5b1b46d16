package session

import (
	"context"

	"github.com/xetiic/busdesk/internal/ctxkey"
)

// NewContext returns a context carrying the session manager. Establish this
// once at process start; the manager's lifetime is the process lifetime.
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ctxkey.SessionManagerKey{}, m)
}

// FromContext returns the session manager carried by ctx. It panics when no
// manager is in scope: reading the session outside its provider's lifetime
// is a programming error, and a silent default would hide it.
func FromContext(ctx context.Context) *Manager {
	m, ok := ctx.Value(ctxkey.SessionManagerKey{}).(*Manager)
	if !ok {
		panic("session: FromContext called outside a NewContext scope")
	}
	return m
}
