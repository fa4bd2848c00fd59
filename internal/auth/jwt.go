// Package auth provides JWT token generation and validation, password hashing,
// and the request middleware that turns a credential into a Caller.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /api/auth/register or /api/auth/login verifies the credentials
//  2. Server issues a JWT access token and stores it in an HttpOnly cookie
//  3. On subsequent API calls, middleware reads the cookie (or a Bearer
//     header), validates the JWT, checks the logout denylist, and sets the
//     Caller in the request context
//  4. POST /api/auth/logout adds the token's ID (jti) to the denylist and
//     clears the cookie
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"userID","jti":"<uuid>","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "attendance-webapp"

// DefaultTokenTTL is the access-token lifetime when none is configured.
const DefaultTokenTTL = time.Hour

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the lifetime of tokens issued by Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// IssuedToken is a signed token plus the claims the server needs to keep
// (its ID for revocation and its expiry for cookie lifetime).
type IssuedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenClaims is what Validate extracts from a verified token.
type TokenClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ID, ExpiresAt, IssuedAt.
//
// "sub" holds the internal user ID and "jti" a random UUID per token.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new access token for userID using the
// service's configured lifetime.
func (s *TokenService) Generate(userID string) (*IssuedToken, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (*IssuedToken, error) {
	if userID == "" {
		return nil, errors.New("auth: cannot issue token without a subject")
	}

	now := time.Now()
	expiresAt := now.Add(d)
	id := uuid.NewString()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("auth: signing token: %w", err)
	}

	return &IssuedToken{Value: signed, ID: id, ExpiresAt: expiresAt}, nil
}

// Validate parses and verifies a JWT string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
func (s *TokenService) Validate(tokenStr string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}
	if c.ID == "" {
		return nil, fmt.Errorf("auth: token has no id")
	}

	return &TokenClaims{
		UserID:    c.Subject,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
