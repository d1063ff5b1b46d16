// Package session owns the process-wide authentication state: who is signed
// in, the opaque token attached to their requests, and the derived flags
// every protected view reads.
package session

import (
	"github.com/xetiic/busdesk/internal/domain/auth"
)

// Session is an immutable snapshot of the authentication state.
// User and Token are either both set or both empty; IsAuthenticated is
// always equal to that conjunction.
type Session struct {
	// User is the authenticated identity, or nil when unauthenticated.
	User *auth.Identity
	// Token is the opaque credential other layers attach to API calls.
	Token string
	// IsAuthenticated is true iff both User and Token are present.
	IsAuthenticated bool
	// IsLoading is true during the initial restore from storage and while
	// a login/registration call is in flight.
	IsLoading bool
}

// clone returns a snapshot whose identity the caller may mutate freely.
func (s Session) clone() Session {
	cp := s
	cp.User = s.User.Clone()
	return cp
}

// IdentityPatch is a partial identity update; nil fields are left unchanged.
// Permissions replaces the whole list when non-nil.
type IdentityPatch struct {
	Email       *string
	FirstName   *string
	LastName    *string
	Role        *auth.Role
	Permissions []auth.Permission
	CompanyID   *string
	IsActive    *bool
}

// apply merges the patch into the identity (shallow field overwrite).
func (p IdentityPatch) apply(id *auth.Identity) {
	if p.Email != nil {
		id.Email = *p.Email
	}
	if p.FirstName != nil {
		id.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		id.LastName = *p.LastName
	}
	if p.Role != nil {
		id.Role = *p.Role
	}
	if p.Permissions != nil {
		id.Permissions = make([]auth.Permission, len(p.Permissions))
		copy(id.Permissions, p.Permissions)
	}
	if p.CompanyID != nil {
		id.CompanyID = *p.CompanyID
	}
	if p.IsActive != nil {
		id.IsActive = *p.IsActive
	}
}
