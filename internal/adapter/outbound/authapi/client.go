// Package authapi implements the authenticator against the remote Xetiic
// auth service over HTTP.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xetiic/busdesk/internal/domain/auth"
)

// DefaultTimeout bounds each auth API call so a hung service cannot leave
// the session loading forever.
const DefaultTimeout = 10 * time.Second

// Config holds auth API client configuration.
type Config struct {
	// BaseURL is the auth service root, e.g. "https://api.xetiic.com".
	BaseURL string
	// Timeout is the per-call timeout. Default: DefaultTimeout.
	Timeout time.Duration
}

// Client implements auth.Authenticator against the remote REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new auth API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// sessionResponse is the wire shape of a successful login/register call.
type sessionResponse struct {
	User  auth.Identity `json:"user"`
	Token string        `json:"token"`
}

// errorResponse is the wire shape of an API failure.
type errorResponse struct {
	Message string `json:"message"`
}

// Authenticate calls POST /auth/login.
// A 401 maps to auth.ErrInvalidCredentials.
func (c *Client) Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Identity, string, error) {
	var out sessionResponse
	err := c.post(ctx, "/auth/login", creds, "", http.StatusOK, &out, map[int]error{
		http.StatusUnauthorized: auth.ErrInvalidCredentials,
	})
	if err != nil {
		return nil, "", err
	}
	if err := validSession(&out); err != nil {
		return nil, "", err
	}
	return &out.User, out.Token, nil
}

// CreateAccount calls POST /auth/register.
// A 409 maps to auth.ErrEmailAlreadyExists.
func (c *Client) CreateAccount(ctx context.Context, input auth.CreateAccountInput) (*auth.Identity, string, error) {
	var out sessionResponse
	err := c.post(ctx, "/auth/register", input, "", http.StatusCreated, &out, map[int]error{
		http.StatusConflict: auth.ErrEmailAlreadyExists,
	})
	if err != nil {
		return nil, "", err
	}
	if err := validSession(&out); err != nil {
		return nil, "", err
	}
	return &out.User, out.Token, nil
}

// Refresh calls POST /auth/refresh with the current token as bearer credential.
func (c *Client) Refresh(ctx context.Context, token string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.post(ctx, "/auth/refresh", struct{}{}, token, http.StatusOK, &out, nil)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("auth service returned empty token")
	}
	return out.Token, nil
}

// post issues a JSON POST and decodes the response into out.
// statusErrs maps specific HTTP statuses to domain errors.
func (c *Client) post(ctx context.Context, path string, body any, bearer string, wantStatus int, out any, statusErrs map[int]error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call auth service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		if domainErr, ok := statusErrs[resp.StatusCode]; ok {
			return domainErr
		}
		return fmt.Errorf("auth service returned %s: %s", resp.Status, readErrorMessage(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readErrorMessage best-effort extracts the API error message for logs.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var er errorResponse
	if json.Unmarshal(data, &er) == nil && er.Message != "" {
		return er.Message
	}
	return strings.TrimSpace(string(data))
}

// validSession rejects responses missing either half of the user+token pair.
func validSession(s *sessionResponse) error {
	if s.User.ID == "" || s.Token == "" {
		return fmt.Errorf("auth service returned incomplete session")
	}
	if !s.User.Role.IsValid() {
		return fmt.Errorf("auth service returned unknown role %q", s.User.Role)
	}
	return nil
}

// Compile-time interface verification.
var _ auth.Authenticator = (*Client)(nil)
