package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret NewCodec accepts.
const MinSecretLength = 32

var (
	// ErrInvalidToken is the only error Verify returns to callers. The
	// wrapped cause is for logs, never for responses.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrWeakSecret   = errors.New("jwtx: secret too short")
)

// Codec issues and verifies HS256 session tokens with one process-wide secret.
// Tokens are self-contained: there is no revocation list.
type Codec struct {
	secret []byte
	issuer string

	// Now is the clock used for iat/exp; tests replace it.
	Now func() time.Time
}

func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretLength, len(secret))
	}
	return &Codec{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		Now:    time.Now,
	}, nil
}

// Issue signs a token for subject that expires ttl from now.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty subject", ErrInvalidClaim)
	}

	now := c.Now().UTC().Truncate(time.Second)
	claims := NewSessionClaims(subject, c.issuer, ttl, now)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify returns the subject of a valid, unexpired token.
func (c *Codec) Verify(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := claims.ValidateExpiryAt(c.Now().UTC(), 0); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims.Subject, nil
}
