package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/xetiic/busdesk/internal/domain/auth"
)

func testAccount(email string) *auth.Account {
	return &auth.Account{
		Identity: auth.Identity{
			ID:          "usr-1",
			Email:       email,
			Role:        auth.RoleStaff,
			Permissions: []auth.Permission{"tickets.read"},
			IsActive:    true,
		},
		PasswordHash: "sha256:abc",
	}
}

func TestAccountStoreCreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewAccountStore()
	if err := store.Create(ctx, testAccount("Staff@Xetiic.com")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Lookup is case-insensitive.
	got, err := store.GetByEmail(ctx, "staff@xetiic.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != "usr-1" {
		t.Errorf("ID = %q, want usr-1", got.ID)
	}

	if _, err := store.GetByEmail(ctx, "nobody@xetiic.com"); !errors.Is(err, auth.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountStoreDuplicateEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewAccountStore()
	if err := store.Create(ctx, testAccount("staff@xetiic.com")); err != nil {
		t.Fatal(err)
	}
	err := store.Create(ctx, testAccount("STAFF@xetiic.com"))
	if !errors.Is(err, auth.ErrEmailAlreadyExists) {
		t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestAccountStoreUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewAccountStore()
	account := testAccount("staff@xetiic.com")
	if err := store.Create(ctx, account); err != nil {
		t.Fatal(err)
	}

	account.FirstName = "Jonas"
	if err := store.Update(ctx, account); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := store.GetByEmail(ctx, "staff@xetiic.com")
	if got.FirstName != "Jonas" {
		t.Error("update not applied")
	}

	missing := testAccount("missing@xetiic.com")
	if err := store.Update(ctx, missing); !errors.Is(err, auth.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountStoreReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewAccountStore()
	if err := store.Create(ctx, testAccount("staff@xetiic.com")); err != nil {
		t.Fatal(err)
	}

	got, _ := store.GetByEmail(ctx, "staff@xetiic.com")
	got.Permissions[0] = "tickets.delete"
	got.PasswordHash = "tampered"

	again, _ := store.GetByEmail(ctx, "staff@xetiic.com")
	if again.Permissions[0] != "tickets.read" || again.PasswordHash != "sha256:abc" {
		t.Error("mutating a returned account changed stored state")
	}
}

func TestAccountStoreList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewAccountStore()
	_ = store.Create(ctx, testAccount("a@xetiic.com"))
	_ = store.Create(ctx, testAccount("b@xetiic.com"))

	accounts, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("List returned %d accounts, want 2", len(accounts))
	}
}
