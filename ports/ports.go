// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher hashes and verifies secrets.
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Token Ports (the JWT collaborator)
// -----------------------------------------------------------------------------

// TokenSigner issues signed tokens for a claims payload.
type TokenSigner interface {
	Sign(claims map[string]any) (string, error)
}

// TokenVerifier verifies a token and returns its decoded payload.
// Verification failure is reported as an error; a nil payload with a nil
// error is treated by the dispatcher as a verification failure too.
type TokenVerifier interface {
	Verify(token string) (map[string]any, error)
}

// -----------------------------------------------------------------------------
// Data Store Ports (demo application)
// -----------------------------------------------------------------------------

// User is the demo user record served by the example routes.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserStore persists demo users.
type UserStore interface {
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) error
	List(ctx context.Context) ([]User, error)
}
