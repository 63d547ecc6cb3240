// Package auth holds the session/refresh token codec.
package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/NordCoder/ems/internal/domain/identity"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrTokenOther       = errors.New("token verification failed")
)

// Claims is the decoded payload of session and refresh tokens.
type Claims struct {
	ID            string        `json:"id"`
	Role          identity.Role `json:"role"`
	Employee      string        `json:"employee,omitempty"`
	Email         string        `json:"email,omitempty"`
	MsGraphUserID string        `json:"msGraphUserId,omitempty"`
	RefreshToken  string        `json:"refreshToken,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() *identity.Identity {
	return &identity.Identity{
		ID:            c.ID,
		Role:          c.Role,
		Employee:      c.Employee,
		MsGraphUserID: c.MsGraphUserID,
		Email:         c.Email,
	}
}

type Codec struct {
	leeway time.Duration
	now    func() time.Time
}

type Option func(*Codec)

// WithLeeway tolerates clock skew on exp/nbf/iat.
func WithLeeway(d time.Duration) Option { return func(c *Codec) { c.leeway = d } }

func WithClock(now func() time.Time) Option { return func(c *Codec) { c.now = now } }

func NewCodec(opts ...Option) *Codec {
	c := &Codec{now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Codec) Sign(claims *Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("sign token: empty secret")
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Verify checks signature first, then the validity window.
func (c *Codec) Verify(token string, secret []byte) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, classify(err)
	}
	return &claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrTokenNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenOther, err)
	}
}

// HashToken is the digest stored in place of a raw refresh token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
