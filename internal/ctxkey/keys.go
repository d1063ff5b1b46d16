// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

// SessionManagerKey is the context key type for the process-wide session manager.
// Used to hand the manager down to commands and guarded views.
type SessionManagerKey struct{}
