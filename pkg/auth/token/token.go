// Package token issues and verifies HS256-signed session tokens.
//
// A token is a compact JWS carrying the registered claims sub, iat and exp.
// Verification checks structure, then signature, then expiry, and never
// grants clock-skew leeway.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Lifetime is the fixed validity window of every session token.
const Lifetime = 60 * time.Minute

var (
	ErrMalformed        = errors.New("token: malformed")
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrExpired          = errors.New("token: expired")

	// ErrInvalidClaims is returned by Issue for claims that could never verify.
	ErrInvalidClaims = errors.New("token: invalid claims")

	// ErrMissingSecret is returned by New for an empty signing secret.
	ErrMissingSecret = errors.New("token: signing secret is required")
)

// Claims are the session claims carried in a token, at second precision.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewClaims returns claims for subject issued at now and expiring after
// Lifetime.
func NewClaims(subject string, now time.Time) Claims {
	iat := now.UTC().Truncate(time.Second)
	return Claims{
		Subject:   subject,
		IssuedAt:  iat,
		ExpiresAt: iat.Add(Lifetime),
	}
}

// Codec signs and verifies tokens with a process-wide secret. It is
// immutable after construction and safe for concurrent use.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock replaces the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// New creates a Codec. The secret is copied.
func New(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	c := &Codec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
		// Expiry is checked by Verify itself so that it runs strictly after
		// the signature check and without leeway.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			// Reject non-zero trailing bits so each token has one encoding.
			jwt.WithStrictDecoding(),
		),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// NewClaims returns fresh claims for subject using the codec clock.
func (c *Codec) NewClaims(subject string) Claims {
	return NewClaims(subject, c.now())
}

// Issue signs claims into a compact token.
func (c *Codec) Issue(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidClaims)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return "", fmt.Errorf("%w: expiry must be after issuance", ErrInvalidClaims)
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Subject,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: signing: %w", err)
	}
	return signed, nil
}

// Verify checks a token and returns its claims. Errors are ErrMalformed,
// ErrInvalidSignature or ErrExpired.
func (c *Codec) Verify(tokenString string) (Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := c.parser.ParseWithClaims(tokenString, &rc, c.key)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSignature
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if rc.Subject == "" || rc.ExpiresAt == nil || rc.IssuedAt == nil {
		return Claims{}, ErrMalformed
	}

	claims := Claims{
		Subject:   rc.Subject,
		IssuedAt:  rc.IssuedAt.UTC(),
		ExpiresAt: rc.ExpiresAt.UTC(),
	}
	if c.now().After(claims.ExpiresAt) {
		return Claims{}, ErrExpired
	}
	return claims, nil
}

func (c *Codec) key(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return c.secret, nil
}
