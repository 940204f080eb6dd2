package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrTokenNotFound      = errors.New("access token not found")
)

const TokenTypeBearer = "Bearer"

// AccessToken is the stored record behind a bearer string. A revoked token
// never validates again.
type AccessToken struct {
	ID        uuid.UUID
	UserID    int64
	Revoked   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t AccessToken) Expired(at time.Time) bool {
	return !at.Before(t.ExpiresAt)
}

// Principal identifies the caller of a protected operation and the exact token it presented.
type Principal struct {
	UserID  int64
	TokenID uuid.UUID
}

type LoginResult struct {
	User        *user.User
	AccessToken string
	TokenType   string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
