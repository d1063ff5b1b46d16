package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/xetiic/busdesk/internal/domain/auth"
)

// SeedFile is the YAML document listing fixture accounts.
type SeedFile struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

// SeedAccount describes one fixture account. Either Password (hashed at
// load time) or PasswordHash (PHC or sha256: format) must be set.
type SeedAccount struct {
	ID           string   `yaml:"id"`
	Email        string   `yaml:"email"`
	FirstName    string   `yaml:"first_name"`
	LastName     string   `yaml:"last_name"`
	Role         string   `yaml:"role"`
	Permissions  []string `yaml:"permissions"`
	CompanyID    string   `yaml:"company_id"`
	Password     string   `yaml:"password"`
	PasswordHash string   `yaml:"password_hash"`
	Disabled     bool     `yaml:"disabled"`
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &sf, nil
}

// Seed loads fixture accounts into the directory. Role and permission names
// are validated here, at the boundary where the catalog is defined, so a
// typo fails loudly instead of silently never matching. Accounts whose
// email already exists are skipped.
func Seed(ctx context.Context, dir auth.AccountDirectory, sf *SeedFile) error {
	for i, sa := range sf.Accounts {
		account, err := sa.toAccount()
		if err != nil {
			return fmt.Errorf("accounts[%d] (%s): %w", i, sa.Email, err)
		}
		if err := dir.Create(ctx, account); err != nil {
			if errors.Is(err, auth.ErrEmailAlreadyExists) {
				continue
			}
			return fmt.Errorf("seed account %s: %w", sa.Email, err)
		}
	}
	return nil
}

// toAccount validates and converts a seed entry to a stored account.
func (sa SeedAccount) toAccount() (*auth.Account, error) {
	role := auth.Role(sa.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("unknown role %q", sa.Role)
	}
	if sa.Email == "" {
		return nil, fmt.Errorf("email is required")
	}

	permissions := make([]auth.Permission, 0, len(sa.Permissions))
	for _, name := range sa.Permissions {
		p := auth.Permission(name)
		if !p.IsValid() {
			return nil, fmt.Errorf("malformed permission %q", name)
		}
		permissions = append(permissions, p)
	}

	hash := sa.PasswordHash
	if hash == "" {
		if sa.Password == "" {
			return nil, fmt.Errorf("password or password_hash is required")
		}
		var err error
		if hash, err = auth.HashPassword(sa.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	id := sa.ID
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	return &auth.Account{
		Identity: auth.Identity{
			ID:          id,
			Email:       sa.Email,
			FirstName:   sa.FirstName,
			LastName:    sa.LastName,
			Role:        role,
			Permissions: permissions,
			CompanyID:   sa.CompanyID,
			IsActive:    !sa.Disabled,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		PasswordHash: hash,
	}, nil
}

// DefaultSeed returns the demo fixtures used when no seed file is
// configured: a system admin, a company-scoped manager, and a staff member.
func DefaultSeed() *SeedFile {
	return &SeedFile{
		Accounts: []SeedAccount{
			{
				ID:        "usr-admin",
				Email:     "admin@xetiic.com",
				FirstName: "Xetiic",
				LastName:  "Admin",
				Role:      string(auth.RoleAdmin),
				Password:  "admin123",
			},
			{
				ID:        "usr-manager",
				Email:     "manager@xetiic.com",
				FirstName: "Maya",
				LastName:  "Okafor",
				Role:      string(auth.RoleManager),
				CompanyID: "co-xetiic-lines",
				Permissions: []string{
					"routes.read", "routes.write",
					"trips.read", "trips.write",
					"tickets.read", "revenue.read",
				},
				Password: "manager123",
			},
			{
				ID:        "usr-staff",
				Email:     "staff@xetiic.com",
				FirstName: "Jonas",
				LastName:  "Lindqvist",
				Role:      string(auth.RoleStaff),
				CompanyID: "co-xetiic-lines",
				Permissions: []string{
					"tickets.read", "tickets.write", "trips.read",
				},
				Password: "staff123",
			},
		},
	}
}
