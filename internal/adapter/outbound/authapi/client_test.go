package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xetiic/busdesk/internal/domain/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL}, testLogger())
}

func sessionJSON(id, email, role, token string) map[string]any {
	return map[string]any{
		"user": map[string]any{
			"id": id, "email": email, "role": role,
			"first_name": "Maya", "last_name": "Okafor", "is_active": true,
		},
		"token": token,
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var creds auth.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if creds.Email != "manager@xetiic.com" {
			t.Errorf("email = %q", creds.Email)
		}
		_ = json.NewEncoder(w).Encode(sessionJSON("usr-1", creds.Email, "manager", "tok-1"))
	})

	identity, token, err := client.Authenticate(context.Background(), auth.Credentials{
		Email: "manager@xetiic.com", Password: "manager123",
	})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity.ID != "usr-1" || identity.Role != auth.RoleManager || token != "tok-1" {
		t.Errorf("unexpected session: %+v token=%q", identity, token)
	}
}

func TestAuthenticateUnauthorized(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad credentials"}`, http.StatusUnauthorized)
	})

	_, _, err := client.Authenticate(context.Background(), auth.Credentials{
		Email: "manager@xetiic.com", Password: "wrong",
	})
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateRejectsIncompleteSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing token", sessionJSON("usr-1", "m@xetiic.com", "manager", "")},
		{"missing user id", sessionJSON("", "m@xetiic.com", "manager", "tok-1")},
		{"unknown role", sessionJSON("usr-1", "m@xetiic.com", "galactic-admin", "tok-1")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(tt.body)
			})
			if _, _, err := client.Authenticate(context.Background(), auth.Credentials{
				Email: "m@xetiic.com", Password: "x",
			}); err == nil {
				t.Error("incomplete session should be rejected")
			}
		})
	}
}

func TestCreateAccount(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/register" {
				t.Errorf("path = %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(sessionJSON("usr-2", "new@xetiic.com", "customer", "tok-2"))
		})
		identity, token, err := client.CreateAccount(context.Background(), auth.CreateAccountInput{
			FirstName: "Nora", LastName: "Berg", Email: "new@xetiic.com", Password: "secret1",
		})
		if err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
		if identity.Role != auth.RoleCustomer || token != "tok-2" {
			t.Errorf("unexpected session: %+v token=%q", identity, token)
		}
	})

	t.Run("conflict", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"taken"}`, http.StatusConflict)
		})
		_, _, err := client.CreateAccount(context.Background(), auth.CreateAccountInput{
			FirstName: "Nora", LastName: "Berg", Email: "new@xetiic.com", Password: "secret1",
		})
		if !errors.Is(err, auth.ErrEmailAlreadyExists) {
			t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("sends bearer token", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok-old" {
				t.Errorf("Authorization = %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-new"})
		})
		token, err := client.Refresh(context.Background(), "tok-old")
		if err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if token != "tok-new" {
			t.Errorf("token = %q", token)
		}
	})

	t.Run("empty token rejected", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"token": ""})
		})
		if _, err := client.Refresh(context.Background(), "tok-old"); err == nil {
			t.Error("empty refreshed token should be rejected")
		}
	})

	t.Run("server error surfaces message", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"session revoked"}`, http.StatusInternalServerError)
		})
		_, err := client.Refresh(context.Background(), "tok-old")
		if err == nil {
			t.Fatal("expected error")
		}
	})
}
