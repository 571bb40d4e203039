// ABOUTME: JWT token issuance and verification for bearer authentication
// ABOUTME: Uses HS512 signing with a per-process random key or a configured secret

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/2389/taskgate/internal/apperr"
)

// MinSecretLength is the minimum length in bytes for a configured signing secret.
// HS512 accepts shorter keys, but anything under 256 bits is brute-forceable.
const MinSecretLength = 32

// MinTokenTTL is the shortest accepted token lifetime. JWT timestamps have
// one-second resolution, so anything shorter can yield exp == iat.
const MinTokenTTL = time.Second

// processKeyLength is the size of the generated per-process key (512 bits).
const processKeyLength = 64

// Token errors
var (
	ErrSecretTooShort = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	ErrInvalidTTL     = fmt.Errorf("token ttl must be at least %s", MinTokenTTL)
)

// TokenCodec issues and verifies bearer tokens.
type TokenCodec interface {
	Issue(subject string, ttl time.Duration) (string, error)
	Verify(token string) (subject string, err error)
}

// JWTCodec implements TokenCodec using HS512 signed JWTs.
type JWTCodec struct {
	secret []byte
	now    func() time.Time
}

// NewJWTCodec creates a codec with an explicit secret.
func NewJWTCodec(secret []byte) (*JWTCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &JWTCodec{secret: key, now: time.Now}, nil
}

// NewProcessCodec creates a codec keyed with fresh random bytes. Tokens it
// issues stop verifying once the process exits.
func NewProcessCodec() (*JWTCodec, error) {
	key := make([]byte, processKeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating signing key: %w", err)
	}
	return &JWTCodec{secret: key, now: time.Now}, nil
}

// Issue signs a token for subject that expires ttl from now.
func (c *JWTCodec) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl < MinTokenTTL {
		return "", ErrInvalidTTL
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify validates the token and extracts the subject. Every failure is
// reported as apperr.InvalidToken; the cause is kept for logging only.
func (c *JWTCodec) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return "", apperr.InvalidToken(err)
	}
	if !token.Valid {
		return "", apperr.InvalidToken(nil)
	}

	if claims.Subject == "" {
		return "", apperr.InvalidToken(errors.New("missing sub claim"))
	}
	return claims.Subject, nil
}
