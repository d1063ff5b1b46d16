package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("manager123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if DetectHashType(hash) != "argon2id" {
		t.Fatalf("expected argon2id hash, got %q", hash)
	}

	match, err := VerifyPassword("manager123", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !match {
		t.Error("correct password should match")
	}

	match, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if match {
		t.Error("wrong password should not match")
	}
}

func TestVerifyPasswordSHA256(t *testing.T) {
	t.Parallel()

	sum := sha256.Sum256([]byte("staff123"))
	stored := "sha256:" + hex.EncodeToString(sum[:])

	match, err := VerifyPassword("staff123", stored)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !match {
		t.Error("correct password should match sha256 hash")
	}

	match, _ = VerifyPassword("nope", stored)
	if match {
		t.Error("wrong password should not match sha256 hash")
	}
}

func TestVerifyPasswordUnknownHash(t *testing.T) {
	t.Parallel()

	_, err := VerifyPassword("whatever", "plaintext-oops")
	if !errors.Is(err, ErrUnknownHashType) {
		t.Errorf("expected ErrUnknownHashType, got %v", err)
	}
}

func TestVerifyPasswordMalformedArgon2id(t *testing.T) {
	t.Parallel()

	// Malformed PHC strings must produce an error, never a panic.
	match, err := VerifyPassword("x", "$argon2id$v=19$m=0,t=0,p=0$AAAA$AAAA")
	if match {
		t.Error("malformed hash should never match")
	}
	if err == nil {
		t.Error("malformed hash should produce an error")
	}
}

func TestDetectHashType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hash string
		want string
	}{
		{"$argon2id$v=19$m=47104,t=1,p=1$c2FsdA$aGFzaA", "argon2id"},
		{"sha256:abcdef", "sha256"},
		{"bcrypt$whatever", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		tt := tt
		if got := DetectHashType(tt.hash); got != tt.want {
			t.Errorf("DetectHashType(%q) = %q, want %q", tt.hash, got, tt.want)
		}
	}
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if len(a) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("two generated tokens should not collide")
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Errorf("token is not valid hex: %v", err)
	}
}

func TestCredentialsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid", Credentials{Email: "admin@xetiic.com", Password: "admin123"}, false},
		{"missing email", Credentials{Password: "admin123"}, true},
		{"malformed email", Credentials{Email: "not-an-email", Password: "admin123"}, true},
		{"short password", Credentials{Email: "admin@xetiic.com", Password: "abc"}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.creds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateAccountInputValidate(t *testing.T) {
	t.Parallel()

	valid := CreateAccountInput{
		FirstName: "Maya", LastName: "Okafor",
		Email: "maya@xetiic.com", Password: "secret1",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}

	missingName := valid
	missingName.FirstName = ""
	if err := missingName.Validate(); err == nil {
		t.Error("missing first name should be rejected")
	}
}
