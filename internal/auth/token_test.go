// ABOUTME: Unit tests for bearer token inspection
// ABOUTME: Tests opaque tokens, JWT expiry, and malformed tokens

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-side-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestParseBearer_Opaque(t *testing.T) {
	tok, err := ParseBearer("  pat_1234567890  ")
	if err != nil {
		t.Fatalf("ParseBearer() error = %v", err)
	}
	if tok.Header() != "Bearer pat_1234567890" {
		t.Errorf("Header() = %q, want %q", tok.Header(), "Bearer pat_1234567890")
	}
	if tok.ExpiresAt() != nil {
		t.Errorf("ExpiresAt() = %v, want nil", tok.ExpiresAt())
	}
	if err := tok.Check(time.Now()); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
}

func TestParseBearer_JWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signedToken(t, jwt.MapClaims{"sub": "admin", "exp": exp.Unix()})

	tok, err := ParseBearer(raw)
	if err != nil {
		t.Fatalf("ParseBearer() error = %v", err)
	}
	if tok.Subject() != "admin" {
		t.Errorf("Subject() = %q, want %q", tok.Subject(), "admin")
	}
	if tok.ExpiresAt() == nil || !tok.ExpiresAt().Equal(exp) {
		t.Errorf("ExpiresAt() = %v, want %v", tok.ExpiresAt(), exp)
	}
	if err := tok.Check(time.Now()); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
}

func TestParseBearer_ExpiredJWT(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{"sub": "admin", "exp": time.Now().Add(-time.Minute).Unix()})

	// Parsing succeeds: expiry is reported by Check, not by ParseBearer
	tok, err := ParseBearer(raw)
	if err != nil {
		t.Fatalf("ParseBearer() error = %v", err)
	}

	err = tok.Check(time.Now())
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Check() error = %v, want ErrExpiredToken", err)
	}
}

func TestParseBearer_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"malformed JWT", "header.payload.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBearer(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParseBearer(%q) error = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}
}
