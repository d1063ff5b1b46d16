// Package local provides the in-process authenticator used in development
// and demos. It verifies credentials against an account directory with an
// artificial delay, so callers exercise the same loading states as the
// production API client.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xetiic/busdesk/internal/domain/auth"
	"github.com/xetiic/busdesk/internal/domain/ratelimit"
)

// DefaultLatency is the artificial per-call latency, approximating a
// round-trip to the real auth service.
const DefaultLatency = 150 * time.Millisecond

// DefaultThrottle allows 5 sign-in attempts per email per minute.
var DefaultThrottle = ratelimit.Config{Rate: 5, Burst: 5, Period: time.Minute}

// Config holds local authenticator configuration.
type Config struct {
	// Latency is the artificial call latency. Negative disables the delay;
	// zero means DefaultLatency.
	Latency time.Duration
	// Throttle limits sign-in attempts per email. Zero value means
	// DefaultThrottle; a nil limiter in New disables throttling entirely.
	Throttle ratelimit.Config
}

// Authenticator implements auth.Authenticator against a local directory.
type Authenticator struct {
	dir      auth.AccountDirectory
	limiter  ratelimit.Limiter
	latency  time.Duration
	throttle ratelimit.Config
	logger   *slog.Logger
}

// New creates a local authenticator. limiter may be nil to disable
// sign-in throttling (tests).
func New(dir auth.AccountDirectory, limiter ratelimit.Limiter, cfg Config, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	latency := cfg.Latency
	switch {
	case latency == 0:
		latency = DefaultLatency
	case latency < 0:
		latency = 0
	}
	throttle := cfg.Throttle
	if throttle.Rate == 0 {
		throttle = DefaultThrottle
	}
	return &Authenticator{
		dir:      dir,
		limiter:  limiter,
		latency:  latency,
		throttle: throttle,
		logger:   logger,
	}
}

// Authenticate verifies credentials against the directory.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (a *Authenticator) Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Identity, string, error) {
	if err := a.delay(ctx); err != nil {
		return nil, "", err
	}
	if err := a.allowAttempt(ctx, creds.Email); err != nil {
		return nil, "", err
	}

	account, err := a.dir.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			return nil, "", auth.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("look up account: %w", err)
	}

	match, err := auth.VerifyPassword(creds.Password, account.PasswordHash)
	if err != nil {
		a.logger.Warn("failed to verify password hash", "identity_id", account.ID, "error", err)
		return nil, "", auth.ErrInvalidCredentials
	}
	if !match {
		return nil, "", auth.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, "", auth.ErrAccountDisabled
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return nil, "", err
	}
	return account.Identity.Clone(), token, nil
}

// CreateAccount registers a new customer account and signs it in.
func (a *Authenticator) CreateAccount(ctx context.Context, input auth.CreateAccountInput) (*auth.Identity, string, error) {
	if err := a.delay(ctx); err != nil {
		return nil, "", err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &auth.Account{
		Identity: auth.Identity{
			ID:        uuid.New().String(),
			Email:     strings.ToLower(input.Email),
			FirstName: input.FirstName,
			LastName:  input.LastName,
			// New registrations get the lowest-privilege role.
			Role:        auth.RoleCustomer,
			Permissions: []auth.Permission{},
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		PasswordHash: hash,
	}

	if err := a.dir.Create(ctx, account); err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return nil, "", err
	}
	a.logger.Info("account created", "identity_id", account.ID, "role", account.Role)
	return account.Identity.Clone(), token, nil
}

// Refresh exchanges a token for a fresh one. The local implementation
// accepts any non-empty token; the remote client validates it server-side.
func (a *Authenticator) Refresh(ctx context.Context, token string) (string, error) {
	if err := a.delay(ctx); err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New("empty token")
	}
	return auth.GenerateToken()
}

// delay simulates network latency while honoring cancellation.
func (a *Authenticator) delay(ctx context.Context) error {
	if a.latency == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// allowAttempt applies per-email throttling when a limiter is configured.
func (a *Authenticator) allowAttempt(ctx context.Context, email string) error {
	if a.limiter == nil {
		return nil
	}
	key := "login:" + strings.ToLower(email)
	result, err := a.limiter.Allow(ctx, key, a.throttle)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !result.Allowed {
		a.logger.Warn("sign-in throttled", "email", email, "retry_after", result.RetryAfter)
		return fmt.Errorf("%w: retry after %s", auth.ErrTooManyAttempts, result.RetryAfter.Round(time.Second))
	}
	return nil
}

// Compile-time interface verification.
var _ auth.Authenticator = (*Authenticator)(nil)
