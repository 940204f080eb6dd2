package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TokenStore keeps access token records. Revoke on an unknown id returns ErrTokenNotFound.
type TokenStore interface {
	Create(ctx context.Context, token *AccessToken) error
	Find(ctx context.Context, id uuid.UUID) (*AccessToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresTokenStore struct {
	db DB
}

func NewPostgresTokenStore(db DB) TokenStore {
	return &postgresTokenStore{db: db}
}

func (s *postgresTokenStore) Create(ctx context.Context, token *AccessToken) error {
	query := `
		INSERT INTO access_tokens (id, user_id, revoked, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query, token.ID, token.UserID, token.Revoked, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("token store: failed to insert token %s: %w", token.ID, err)
	}

	return nil
}

func (s *postgresTokenStore) Find(ctx context.Context, id uuid.UUID) (*AccessToken, error) {
	query := `SELECT id, user_id, revoked, created_at, expires_at FROM access_tokens WHERE id = $1`

	var t AccessToken
	err := s.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.UserID, &t.Revoked, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("token store: failed to select token %s: %w", id, err)
	}

	return &t, nil
}

func (s *postgresTokenStore) Revoke(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.db.Exec(ctx, `UPDATE access_tokens SET revoked = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("token store: failed to revoke token %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}

	return nil
}
