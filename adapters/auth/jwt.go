// Package auth provides the JWT collaborator: stateless token signing and
// verification. No shared state between instances, so it scales
// horizontally.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/declroute/declroute/ports"
)

// TokenService signs and verifies JWT tokens with an HMAC secret.
// Thread-safe and suitable for concurrent use.
type TokenService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewTokenService creates a JWT token service. If secret is empty, a
// random 32-byte secret is generated (tokens then survive only this
// process).
func NewTokenService(secret, issuer string, expiration time.Duration) *TokenService {
	var secretBytes []byte
	if secret == "" {
		secretBytes = make([]byte, 32)
		rand.Read(secretBytes)
	} else {
		secretBytes = []byte(secret)
	}

	if issuer == "" {
		issuer = "declroute"
	}
	if expiration == 0 {
		expiration = 24 * time.Hour
	}

	return &TokenService{
		secret:     secretBytes,
		issuer:     issuer,
		expiration: expiration,
	}
}

// Sign issues a token carrying the given claims plus the registered
// issuer, issued-at and expiry claims. Caller claims win on collision
// except for "exp", which is always set here.
func (s *TokenService) Sign(claims map[string]any) (string, error) {
	now := time.Now().UTC()

	all := jwt.MapClaims{
		"iss": s.issuer,
		"iat": jwt.NewNumericDate(now),
	}
	for k, v := range claims {
		all[k] = v
	}
	all["exp"] = jwt.NewNumericDate(now.Add(s.expiration))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, all)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns its decoded claims.
func (s *TokenService) Verify(tokenString string) (map[string]any, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return map[string]any(claims), nil
}

// GenerateSecret generates a random secret suitable for JWT signing.
func GenerateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Ensure interface compliance.
var (
	_ ports.TokenSigner   = (*TokenService)(nil)
	_ ports.TokenVerifier = (*TokenService)(nil)
)
