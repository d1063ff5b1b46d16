package cel

import (
	"context"
	"strings"
	"testing"

	"github.com/xetiic/busdesk/internal/domain/auth"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	return e
}

func managerIdentity() *auth.Identity {
	return &auth.Identity{
		ID:          "usr-manager",
		Email:       "manager@xetiic.com",
		Role:        auth.RoleManager,
		Permissions: []auth.Permission{"routes.read", "routes.write"},
		CompanyID:   "co-xetiic-lines",
		IsActive:    true,
	}
}

func TestEvaluateExpressions(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)
	ctx := context.Background()
	id := managerIdentity()

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"company match", `identity.company_id == "co-xetiic-lines"`, true},
		{"company mismatch", `identity.company_id == "co-other"`, false},
		{"role check", `identity.role == "manager"`, true},
		{"permission membership", `"routes.write" in identity.permissions`, true},
		{"missing permission", `"users.write" in identity.permissions`, false},
		{"combined", `identity.is_active && identity.role in ["manager", "admin"]`, true},
		{"email suffix", `identity.email.endsWith("@xetiic.com")`, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := e.Evaluate(ctx, tt.expr, id)
			if err != nil {
				t.Fatalf("Evaluate(%q) failed: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateNilIdentity(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)
	// Fields of an absent identity are absent; the expression errors rather
	// than silently passing.
	if _, err := e.Evaluate(context.Background(), `identity.role == "admin"`, nil); err == nil {
		t.Error("expression over a nil identity should error")
	}
}

func TestEvaluateRejectsInvalidExpressions(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)
	ctx := context.Background()
	id := managerIdentity()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		if _, err := e.Evaluate(ctx, "", id); err == nil {
			t.Error("empty expression should error")
		}
	})

	t.Run("too long", func(t *testing.T) {
		t.Parallel()
		expr := `identity.role == "` + strings.Repeat("x", maxExpressionLength) + `"`
		if _, err := e.Evaluate(ctx, expr, id); err == nil {
			t.Error("over-length expression should error")
		}
	})

	t.Run("too deeply nested", func(t *testing.T) {
		t.Parallel()
		expr := strings.Repeat("(", 25) + "true" + strings.Repeat(")", 25)
		if _, err := e.Evaluate(ctx, expr, id); err == nil {
			t.Error("over-nested expression should error")
		}
	})

	t.Run("does not compile", func(t *testing.T) {
		t.Parallel()
		if _, err := e.Evaluate(ctx, `identity.role ==`, id); err == nil {
			t.Error("syntax error should surface")
		}
	})

	t.Run("non-boolean result", func(t *testing.T) {
		t.Parallel()
		if _, err := e.Evaluate(ctx, `identity.email`, id); err == nil {
			t.Error("non-boolean result should error")
		}
	})
}

func TestEvaluateCachesPrograms(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)
	ctx := context.Background()
	id := managerIdentity()
	expr := `identity.is_active`

	if _, err := e.Evaluate(ctx, expr, id); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Evaluate(ctx, expr, id); err != nil {
		t.Fatal(err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.programs) != 1 {
		t.Errorf("program cache has %d entries, want 1", len(e.programs))
	}
}
