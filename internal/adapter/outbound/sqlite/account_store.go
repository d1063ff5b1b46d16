// Package sqlite provides the durable account directory behind the local
// authenticator, backed by a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/xetiic/busdesk/internal/domain/auth"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	role          TEXT NOT NULL,
	permissions   TEXT NOT NULL,
	company_id    TEXT NOT NULL DEFAULT '',
	is_active     INTEGER NOT NULL DEFAULT 1,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
`

// AccountStore implements auth.AccountDirectory on SQLite.
type AccountStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the account database at path.
// Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*AccountStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open account database: %w", err)
	}
	// The driver is not safe for concurrent writers on one connection pool
	// entry; a single connection serializes access and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create accounts schema: %w", err)
	}
	return &AccountStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *AccountStore) Close() error {
	return s.db.Close()
}

const accountColumns = "id, email, first_name, last_name, role, permissions, company_id, is_active, password_hash, created_at, updated_at"

// GetByEmail retrieves an account by email (case-insensitive).
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email = ? COLLATE NOCASE", email)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrAccountNotFound
	}
	return account, err
}

// Create stores a new account. Returns auth.ErrEmailAlreadyExists on conflict.
func (s *AccountStore) Create(ctx context.Context, account *auth.Account) error {
	permissions, err := marshalPermissions(account.Permissions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		account.ID, account.Email, account.FirstName, account.LastName,
		string(account.Role), permissions, account.CompanyID, boolToInt(account.IsActive),
		account.PasswordHash,
		account.CreatedAt.UTC().Format(time.RFC3339Nano),
		account.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Update overwrites an existing account, matched by ID.
func (s *AccountStore) Update(ctx context.Context, account *auth.Account) error {
	permissions, err := marshalPermissions(account.Permissions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET email = ?, first_name = ?, last_name = ?, role = ?,
		 permissions = ?, company_id = ?, is_active = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		account.Email, account.FirstName, account.LastName, string(account.Role),
		permissions, account.CompanyID, boolToInt(account.IsActive), account.PasswordHash,
		account.UpdatedAt.UTC().Format(time.RFC3339Nano),
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

// List returns all stored accounts in email order.
func (s *AccountStore) List(ctx context.Context) ([]auth.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []auth.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return result, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanAccount.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(sc scanner) (*auth.Account, error) {
	var (
		account     auth.Account
		role        string
		permissions string
		isActive    int
		createdAt   string
		updatedAt   string
	)
	err := sc.Scan(&account.ID, &account.Email, &account.FirstName, &account.LastName,
		&role, &permissions, &account.CompanyID, &isActive, &account.PasswordHash,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	account.Role = auth.Role(role)
	account.IsActive = isActive != 0
	if err := json.Unmarshal([]byte(permissions), &account.Permissions); err != nil {
		return nil, fmt.Errorf("parse permissions for account %s: %w", account.ID, err)
	}
	if account.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for account %s: %w", account.ID, err)
	}
	if account.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for account %s: %w", account.ID, err)
	}
	return &account, nil
}

func marshalPermissions(permissions []auth.Permission) (string, error) {
	if permissions == nil {
		permissions = []auth.Permission{}
	}
	data, err := json.Marshal(permissions)
	if err != nil {
		return "", fmt.Errorf("marshal permissions: %w", err)
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation detects the driver's UNIQUE constraint error.
// modernc.org/sqlite exposes no typed error for this; string matching is
// the documented approach.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time interface verification.
var _ auth.AccountDirectory = (*AccountStore)(nil)
