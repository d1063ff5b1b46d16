package guard

import (
	"context"
	"fmt"
	"testing"

	"github.com/xetiic/busdesk/internal/domain/auth"
	"github.com/xetiic/busdesk/internal/domain/session"
)

// stubEvaluator returns a scripted result per expression.
type stubEvaluator struct {
	results map[string]bool
	err     error
}

func (s *stubEvaluator) Evaluate(_ context.Context, expr string, _ *auth.Identity) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.results[expr], nil
}

func managerSession() session.Session {
	return session.Session{
		User: &auth.Identity{
			ID:          "usr-manager",
			Email:       "manager@xetiic.com",
			Role:        auth.RoleManager,
			Permissions: []auth.Permission{"routes.read", "routes.write"},
			CompanyID:   "co-xetiic-lines",
			IsActive:    true,
		},
		Token:           "tok-1",
		IsAuthenticated: true,
	}
}

func adminSession() session.Session {
	return session.Session{
		User:            &auth.Identity{ID: "usr-admin", Role: auth.RoleAdmin, IsActive: true},
		Token:           "tok-2",
		IsAuthenticated: true,
	}
}

func TestDecideOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		snap         session.Session
		req          Requirement
		fromPath     string
		wantOutcome  Outcome
		wantKind     ForbiddenKind
		wantRequired string
		wantRedirect string
	}{
		{
			name:        "loading wins over everything",
			snap:        session.Session{IsLoading: true},
			req:         Requirement{Role: auth.RoleAdmin, Permission: "users.write"},
			wantOutcome: ShowLoading,
		},
		{
			name:         "unauthenticated redirects with return path",
			snap:         session.Session{},
			fromPath:     "/admin/routes",
			wantOutcome:  RedirectToSignIn,
			wantRedirect: "/admin/routes",
		},
		{
			name:        "authenticated with no requirement renders",
			snap:        managerSession(),
			wantOutcome: ShowContent,
		},
		{
			name:         "wrong role forbidden",
			snap:         managerSession(),
			req:          Requirement{Role: auth.RoleStaff},
			wantOutcome:  ShowForbidden,
			wantKind:     ForbiddenRole,
			wantRequired: "staff",
		},
		{
			name:        "matching role renders",
			snap:        managerSession(),
			req:         Requirement{Role: auth.RoleManager},
			wantOutcome: ShowContent,
		},
		{
			name:        "admin passes any role requirement",
			snap:        adminSession(),
			req:         Requirement{Role: auth.RoleDriver},
			wantOutcome: ShowContent,
		},
		{
			name:         "missing permission forbidden",
			snap:         managerSession(),
			req:          Requirement{Permission: "users.write"},
			wantOutcome:  ShowForbidden,
			wantKind:     ForbiddenPermission,
			wantRequired: "users.write",
		},
		{
			name:        "granted permission renders",
			snap:        managerSession(),
			req:         Requirement{Permission: "routes.write"},
			wantOutcome: ShowContent,
		},
		{
			name:        "admin passes any permission requirement",
			snap:        adminSession(),
			req:         Requirement{Permission: "users.write"},
			wantOutcome: ShowContent,
		},
		{
			name: "role checked before permission",
			snap: managerSession(),
			// Both fail; the forbidden decision must name the role.
			req:          Requirement{Role: auth.RoleStaff, Permission: "users.write"},
			wantOutcome:  ShowForbidden,
			wantKind:     ForbiddenRole,
			wantRequired: "staff",
		},
	}

	g := New(nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := g.Decide(context.Background(), tt.snap, tt.req, tt.fromPath)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if got.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", got.Outcome, tt.wantOutcome)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Required != tt.wantRequired {
				t.Errorf("Required = %q, want %q", got.Required, tt.wantRequired)
			}
			if got.RedirectPath != tt.wantRedirect {
				t.Errorf("RedirectPath = %q, want %q", got.RedirectPath, tt.wantRedirect)
			}
		})
	}
}

func TestDecideScopeExpression(t *testing.T) {
	t.Parallel()

	expr := `identity.company_id == "co-xetiic-lines"`
	g := New(&stubEvaluator{results: map[string]bool{expr: true}})

	dec, err := g.Decide(context.Background(), managerSession(), Requirement{Expr: expr}, "/")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if dec.Outcome != ShowContent {
		t.Errorf("true expression should render, got %v", dec.Outcome)
	}

	denied := New(&stubEvaluator{results: map[string]bool{}})
	dec, err = denied.Decide(context.Background(), managerSession(), Requirement{Expr: expr}, "/")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if dec.Outcome != ShowForbidden || dec.Kind != ForbiddenScope || dec.Required != expr {
		t.Errorf("false expression should be forbidden(scope), got %+v", dec)
	}
}

func TestDecideScopeSkippedForAdmin(t *testing.T) {
	t.Parallel()

	// The evaluator would fail; admin must never reach it.
	g := New(&stubEvaluator{err: fmt.Errorf("must not be called")})
	dec, err := g.Decide(context.Background(), adminSession(), Requirement{Expr: "false"}, "/")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if dec.Outcome != ShowContent {
		t.Errorf("admin should bypass scope expressions, got %v", dec.Outcome)
	}
}

func TestDecideScopeErrors(t *testing.T) {
	t.Parallel()

	t.Run("evaluator error propagates", func(t *testing.T) {
		t.Parallel()
		g := New(&stubEvaluator{err: fmt.Errorf("bad expression")})
		if _, err := g.Decide(context.Background(), managerSession(), Requirement{Expr: "x"}, "/"); err == nil {
			t.Error("evaluator error should propagate")
		}
	})

	t.Run("expression without evaluator errors", func(t *testing.T) {
		t.Parallel()
		g := New(nil)
		if _, err := g.Decide(context.Background(), managerSession(), Requirement{Expr: "x"}, "/"); err == nil {
			t.Error("expression with nil evaluator should error")
		}
	})
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		o    Outcome
		want string
	}{
		{ShowContent, "content"},
		{ShowLoading, "loading"},
		{RedirectToSignIn, "redirect_to_sign_in"},
		{ShowForbidden, "forbidden"},
		{Outcome(99), "unknown"},
	}
	for _, tt := range tests {
		tt := tt
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}
