// Package auth contains the domain types and logic for authentication.
package auth

import (
	"strings"
	"time"
)

// Role represents the coarse-grained capability tier of an identity.
// Every identity carries exactly one role; admin is a universal override.
type Role string

const (
	// RoleAdmin has full access to every operation regardless of permissions.
	RoleAdmin Role = "admin"
	// RoleManager administers a single company's fleet, routes, and staff.
	RoleManager Role = "manager"
	// RoleStaff handles day-to-day ticketing for a company.
	RoleStaff Role = "staff"
	// RoleCustomer is the lowest-privilege role assigned on self-registration.
	RoleCustomer Role = "customer"
	// RoleDriver is assigned to bus drivers checking in trips.
	RoleDriver Role = "driver"
	// RoleSeller is assigned to third-party ticket sellers.
	RoleSeller Role = "seller"
)

// IsValid returns true if the role is a known valid role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleCustomer, RoleDriver, RoleSeller:
		return true
	default:
		return false
	}
}

// Permission names a fine-grained capability, checked independently of role.
// Valid permission names have the form "<resource>.<verb>", e.g. "routes.write".
type Permission string

// IsValid reports whether the permission name is well-formed.
// Check this where permission catalogs are defined (config, seed files),
// not on every membership lookup.
func (p Permission) IsValid() bool {
	resource, verb, ok := strings.Cut(string(p), ".")
	return ok && resource != "" && verb != "" && !strings.Contains(verb, ".")
}

// Identity represents an authenticated dashboard user.
type Identity struct {
	// ID is the unique, stable identifier for this identity.
	ID string `json:"id"`
	// Email is the sign-in address.
	Email string `json:"email"`
	// FirstName and LastName are display fields.
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// Role is the single role assigned to this identity.
	Role Role `json:"role"`
	// Permissions are the fine-grained capabilities granted to this identity.
	// Admin identities hold every permission regardless of this list.
	Permissions []Permission `json:"permissions"`
	// CompanyID scopes a non-admin identity to one company's data.
	// Empty for system-wide roles.
	CompanyID string `json:"company_id,omitempty"`
	// IsActive indicates whether the account may sign in.
	IsActive bool `json:"is_active"`
	// CreatedAt and UpdatedAt are lifecycle metadata (UTC).
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PermissionSet is the resolved set of permissions an identity holds.
// The universal set (admin) contains every permission.
type PermissionSet struct {
	universal bool
	names     map[Permission]struct{}
}

// Has reports whether the set contains the permission.
func (s PermissionSet) Has(p Permission) bool {
	if s.universal {
		return true
	}
	_, ok := s.names[p]
	return ok
}

// Universal reports whether the set contains every permission.
func (s PermissionSet) Universal() bool {
	return s.universal
}

// EffectivePermissions resolves the permissions an identity actually holds.
// The admin role expands to the universal set regardless of the stored
// permission list. Every permission check must go through here rather than
// re-deriving the admin bypass at the call site.
func EffectivePermissions(id *Identity) PermissionSet {
	if id == nil {
		return PermissionSet{}
	}
	if id.Role == RoleAdmin {
		return PermissionSet{universal: true}
	}
	names := make(map[Permission]struct{}, len(id.Permissions))
	for _, p := range id.Permissions {
		names[p] = struct{}{}
	}
	return PermissionSet{names: names}
}

// HasPermission reports whether the identity holds the permission.
func (i *Identity) HasPermission(p Permission) bool {
	return EffectivePermissions(i).Has(p)
}

// IsAdmin reports whether the identity has the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// IsManager reports whether the identity has manager authority.
// Admin counts: it is an authority superset of every role.
func (i *Identity) IsManager() bool {
	return i != nil && (i.Role == RoleManager || i.Role == RoleAdmin)
}

// CanAccessCompany reports whether the identity may act on the given
// company's data. Admins may act on any company; other roles only on
// their own.
func (i *Identity) CanAccessCompany(companyID string) bool {
	if i == nil {
		return false
	}
	if i.Role == RoleAdmin {
		return true
	}
	return i.CompanyID != "" && i.CompanyID == companyID
}

// FullName returns the display name for the identity.
func (i *Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// Clone returns a deep copy of the identity.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	cp.Permissions = make([]Permission, len(i.Permissions))
	copy(cp.Permissions, i.Permissions)
	return &cp
}
