package auth

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Credentials are the sign-in inputs.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Validate checks the credentials for well-formedness before any network
// or directory call is made.
func (c Credentials) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid credentials input: %w", err)
	}
	return nil
}

// CreateAccountInput are the sign-up inputs.
type CreateAccountInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// Validate checks the registration input for well-formedness.
func (in CreateAccountInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("invalid registration input: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Authenticator is the pluggable authentication capability the session
// manager talks to. This interface is defined in the domain to avoid
// circular imports. Implementations: local (dev/test), authapi (prod).
type Authenticator interface {
	// Authenticate verifies credentials and returns the identity together
	// with a fresh opaque token. Returns ErrInvalidCredentials on mismatch.
	Authenticate(ctx context.Context, creds Credentials) (*Identity, string, error)

	// CreateAccount registers a new account with the lowest-privilege role
	// and returns it signed in. Returns ErrEmailAlreadyExists on conflict.
	CreateAccount(ctx context.Context, input CreateAccountInput) (*Identity, string, error)

	// Refresh exchanges the current token for a new one.
	Refresh(ctx context.Context, token string) (string, error)
}

// Account is a stored credential record behind the local authenticator.
type Account struct {
	Identity
	// PasswordHash is the Argon2id PHC (or legacy sha256:) hash of the password.
	PasswordHash string `json:"password_hash"`
}

// AccountDirectory provides account storage for the local authenticator.
// This interface is defined in the domain to avoid circular imports.
// Implementations: SQLite (durable), in-memory (tests).
type AccountDirectory interface {
	// GetByEmail retrieves an account by email (case-insensitive).
	// Returns ErrAccountNotFound if no account exists.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Create stores a new account.
	// Returns ErrEmailAlreadyExists if the email is taken.
	Create(ctx context.Context, account *Account) error

	// Update overwrites an existing account.
	// Returns ErrAccountNotFound if the account doesn't exist.
	Update(ctx context.Context, account *Account) error

	// List returns all stored accounts.
	List(ctx context.Context) ([]Account, error)
}
