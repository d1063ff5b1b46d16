// Package guard decides what a protected view renders for a given session.
package guard

import (
	"context"
	"fmt"

	"github.com/xetiic/busdesk/internal/domain/auth"
	"github.com/xetiic/busdesk/internal/domain/session"
)

// Outcome is the render decision for one guarded pass.
type Outcome int

const (
	// ShowContent renders the protected subtree.
	ShowContent Outcome = iota
	// ShowLoading renders a spinner while the session is restoring or an
	// auth call is in flight. Checked first; all other rules are skipped.
	ShowLoading
	// RedirectToSignIn sends the user to the sign-in view, remembering
	// where they came from.
	RedirectToSignIn
	// ShowForbidden renders the access-denied view naming the missing
	// role, permission, or scope.
	ShowForbidden
)

// String returns the outcome name for logs and CLI output.
func (o Outcome) String() string {
	switch o {
	case ShowContent:
		return "content"
	case ShowLoading:
		return "loading"
	case RedirectToSignIn:
		return "redirect_to_sign_in"
	case ShowForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// ForbiddenKind says which requirement produced a forbidden decision.
type ForbiddenKind string

const (
	// ForbiddenRole means the identity's role did not match the required one.
	ForbiddenRole ForbiddenKind = "role"
	// ForbiddenPermission means the identity lacks the required permission.
	ForbiddenPermission ForbiddenKind = "permission"
	// ForbiddenScope means the scope expression evaluated to false.
	ForbiddenScope ForbiddenKind = "scope"
)

// Requirement is what a protected view demands beyond authentication.
// The zero value demands authentication only.
type Requirement struct {
	// Role, when set, requires exactly this role (admin always passes).
	Role auth.Role
	// Permission, when set, requires the identity to hold it.
	Permission auth.Permission
	// Expr is an optional CEL scope expression over the identity,
	// e.g. `identity.company_id == "co-7"`.
	Expr string
}

// Decision is the outcome of one guarded render pass.
type Decision struct {
	Outcome Outcome
	// RedirectPath is where sign-in should return the user afterward.
	// Set on RedirectToSignIn.
	RedirectPath string
	// Kind and Required describe the failed requirement. Set on ShowForbidden.
	Kind     ForbiddenKind
	Required string
}

// ExprEvaluator evaluates scope expressions against an identity.
type ExprEvaluator interface {
	Evaluate(ctx context.Context, expr string, identity *auth.Identity) (bool, error)
}

// Guard gates protected views. It owns no state: every decision is a pure
// function of the session snapshot and the requirement.
type Guard struct {
	expr ExprEvaluator
}

// New creates a guard. expr may be nil when no view uses scope expressions.
func New(expr ExprEvaluator) *Guard {
	return &Guard{expr: expr}
}

// Decide maps (session, requirement) to a render decision. Rules, in order:
// loading wins over everything; an unauthenticated session redirects to
// sign-in carrying fromPath; the role requirement is checked before the
// permission requirement; the admin role satisfies every requirement.
//
// The error return concerns scope expression evaluation only; role and
// permission checks never error.
func (g *Guard) Decide(ctx context.Context, snap session.Session, req Requirement, fromPath string) (Decision, error) {
	if snap.IsLoading {
		return Decision{Outcome: ShowLoading}, nil
	}
	if !snap.IsAuthenticated || snap.User == nil {
		return Decision{Outcome: RedirectToSignIn, RedirectPath: fromPath}, nil
	}

	user := snap.User
	if req.Role != "" && user.Role != req.Role && user.Role != auth.RoleAdmin {
		return Decision{Outcome: ShowForbidden, Kind: ForbiddenRole, Required: string(req.Role)}, nil
	}
	if req.Permission != "" && !user.HasPermission(req.Permission) {
		return Decision{Outcome: ShowForbidden, Kind: ForbiddenPermission, Required: string(req.Permission)}, nil
	}
	if req.Expr != "" && !user.IsAdmin() {
		if g.expr == nil {
			return Decision{}, fmt.Errorf("scope expression given but no evaluator configured")
		}
		ok, err := g.expr.Evaluate(ctx, req.Expr, user)
		if err != nil {
			return Decision{}, fmt.Errorf("evaluate scope expression: %w", err)
		}
		if !ok {
			return Decision{Outcome: ShowForbidden, Kind: ForbiddenScope, Required: req.Expr}, nil
		}
	}

	return Decision{Outcome: ShowContent}, nil
}
