package auth

import (
	"testing"
	"time"
)

// newTestTokenService creates a TokenService for testing.
// It uses a fixed, known secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// TOKEN SERVICE CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_ValidSecret(t *testing.T) {
	_, err := NewTokenService("this-is-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error for valid secret: %v", err)
	}
}

// =========================================================================
// GENERATE TESTS
// =========================================================================

func TestGenerate_ReturnsNonEmptyToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-123", "u@example.com")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if token == "" {
		t.Error("Generate() returned empty token")
	}

	// JWT tokens have 3 dot-separated parts: header.payload.signature
	dots := 0
	for _, c := range token {
		if c == '.' {
			dots++
		}
	}
	if dots != 2 {
		t.Errorf("Generate() token doesn't look like a JWT (expected 2 dots, got %d)", dots)
	}
}

func TestGenerate_DifferentUsersGetDifferentTokens(t *testing.T) {
	ts := newTestTokenService(t)

	token1, _ := ts.Generate("user-aaa", "a@example.com")
	token2, _ := ts.Generate("user-bbb", "b@example.com")

	if token1 == token2 {
		t.Error("Generate() returned identical tokens for different identities")
	}
}

// =========================================================================
// VALIDATE TESTS
// =========================================================================

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	userID := "user-abc-123"
	email := "abc@example.com"

	token, err := ts.Generate(userID, email)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Decoding the token must recover both identity claims unchanged
	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got.UserID != userID {
		t.Errorf("Validate() UserID = %q, want %q", got.UserID, userID)
	}
	if got.Email != email {
		t.Errorf("Validate() Email = %q, want %q", got.Email, email)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	// Generate a token that expired 1 second ago
	token, err := ts.GenerateWithDuration("user-123", "u@example.com", -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	_, err = ts.Validate(token)
	if err == nil {
		t.Fatal("Validate() should return an error for an expired token")
	}
	t.Logf("Expired token error (expected): %v", err)
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.Generate("user-123", "u@example.com")

	// Flip the tail of the signature to simulate tampering
	tampered := token[:len(token)-3] + "xxx"

	_, err := ts.Validate(tampered)
	if err == nil {
		t.Fatal("Validate() should return an error for a tampered token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!")
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!")

	token, _ := ts1.Generate("user-123", "u@example.com")

	// Validating with a different secret must fail
	_, err := ts2.Validate(token)
	if err == nil {
		t.Fatal("Validate() should fail when using a different secret")
	}
}

func TestValidate_EmptyToken(t *testing.T) {
	ts := newTestTokenService(t)

	_, err := ts.Validate("")
	if err == nil {
		t.Fatal("Validate() should return an error for an empty string")
	}
}

func TestValidate_GarbageString(t *testing.T) {
	ts := newTestTokenService(t)

	_, err := ts.Validate("not.a.jwt.token")
	if err == nil {
		t.Fatal("Validate() should return an error for a garbage string")
	}
}
