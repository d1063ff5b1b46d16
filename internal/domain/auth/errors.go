package auth

import "errors"

// Sentinel errors for authentication operations.
var (
	// ErrInvalidCredentials is returned when the email/password pair does
	// not match an account. Surfaced verbatim to the sign-in view.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailAlreadyExists is returned when registering with a taken email.
	ErrEmailAlreadyExists = errors.New("email already registered")
	// ErrAccountNotFound is returned by account directories on missing accounts.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountDisabled is returned when a deactivated account signs in.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrTooManyAttempts is returned when sign-in attempts are throttled.
	ErrTooManyAttempts = errors.New("too many sign-in attempts")
	// ErrRefreshFailed wraps any failure during token refresh. The session
	// is force-logged-out before this propagates: a stale session is unsafe
	// to keep.
	ErrRefreshFailed = errors.New("token refresh failed")
)
