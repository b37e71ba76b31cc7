// ABOUTME: Bearer token inspection for authenticating outbound API requests
// ABOUTME: Reads JWT expiry locally so expired tokens fail before any request is sent

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// BearerToken is a credential sent in the Authorization header.
// Opaque tokens (personal access tokens) are passed through untouched;
// JWTs additionally expose their subject and expiry.
type BearerToken struct {
	raw       string
	subject   string
	expiresAt *time.Time
}

// ParseBearer inspects a token string. The signature of a JWT is not verified:
// the console is a client, the server remains the authority.
func ParseBearer(raw string) (*BearerToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	// Anything that is not three dot-separated segments is an opaque token
	if strings.Count(raw, ".") != 2 {
		return &BearerToken{raw: raw}, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	tok := &BearerToken{raw: raw}
	if sub, err := claims.GetSubject(); err == nil {
		tok.subject = sub
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", ErrInvalidToken, err)
	}
	if exp != nil {
		t := exp.Time
		tok.expiresAt = &t
	}
	return tok, nil
}

// Subject returns the "sub" claim, or "" for opaque tokens.
func (t *BearerToken) Subject() string {
	return t.subject
}

// ExpiresAt returns the expiry time, or nil when the token does not expire.
func (t *BearerToken) ExpiresAt() *time.Time {
	return t.expiresAt
}

// Check returns ErrExpiredToken once the token is past its expiry.
func (t *BearerToken) Check(now time.Time) error {
	if t.expiresAt != nil && !now.Before(*t.expiresAt) {
		return fmt.Errorf("%w at %s", ErrExpiredToken, t.expiresAt.Format(time.RFC3339))
	}
	return nil
}

// Header returns the Authorization header value.
func (t *BearerToken) Header() string {
	return "Bearer " + t.raw
}
