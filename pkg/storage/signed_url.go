package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const blobAudience = "blob"

var errSignerSecret = errors.New("signing secret missing")

// SignedURLSigner issues short-lived HS256 tokens naming a blob key, so
// photo URLs can be shared without a bearer token.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner returns a signer. A non-positive ttl means one day.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs key and reports when the token stops being accepted.
func (s *SignedURLSigner) Generate(key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("blob key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errSignerSecret
	}
	now := s.now()
	expiresAt := now.Add(s.ttl).Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   key,
		Audience:  jwt.ClaimStrings{blobAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign blob token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse verifies token and returns the blob key it names.
func (s *SignedURLSigner) Parse(token string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errSignerSecret
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(blobAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("blob token: %w", err)
	}
	if claims.Subject == "" {
		return "", time.Time{}, errors.New("blob token: missing key")
	}
	return claims.Subject, claims.ExpiresAt.Time, nil
}
