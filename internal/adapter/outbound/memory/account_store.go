package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/xetiic/busdesk/internal/domain/auth"
)

// AccountStore implements auth.AccountDirectory with an in-memory map
// keyed by lowercased email. Thread-safe. For development/testing only.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*auth.Account
}

// NewAccountStore creates a new in-memory account directory.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]*auth.Account)}
}

// GetByEmail retrieves an account by email (case-insensitive).
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	return copyAccount(account), nil
}

// Create stores a new account. Returns auth.ErrEmailAlreadyExists on conflict.
func (s *AccountStore) Create(ctx context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(account.Email)
	if _, exists := s.accounts[key]; exists {
		return auth.ErrEmailAlreadyExists
	}
	s.accounts[key] = copyAccount(account)
	return nil
}

// Update overwrites an existing account.
func (s *AccountStore) Update(ctx context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(account.Email)
	if _, exists := s.accounts[key]; !exists {
		return auth.ErrAccountNotFound
	}
	s.accounts[key] = copyAccount(account)
	return nil
}

// List returns all stored accounts.
func (s *AccountStore) List(ctx context.Context) ([]auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]auth.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		result = append(result, *copyAccount(account))
	}
	return result, nil
}

// copyAccount returns a deep copy so callers can never mutate stored state.
func copyAccount(a *auth.Account) *auth.Account {
	cp := &auth.Account{
		Identity:     *a.Identity.Clone(),
		PasswordHash: a.PasswordHash,
	}
	return cp
}

// Compile-time interface verification.
var _ auth.AccountDirectory = (*AccountStore)(nil)
