package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

const redisTokenKeyPrefix = "access_token:"

type redisTokenStore struct {
	client redis.Cmdable
}

// NewRedisTokenStore keeps each token as a hash that expires with the token.
// Revoking deletes the hash.
func NewRedisTokenStore(client redis.Cmdable) TokenStore {
	return &redisTokenStore{client: client}
}

func redisTokenKey(id uuid.UUID) string {
	return redisTokenKeyPrefix + id.String()
}

func (s *redisTokenStore) Create(ctx context.Context, token *AccessToken) error {
	key := redisTokenKey(token.ID)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    strconv.FormatInt(token.UserID, 10),
			"revoked":    strconv.FormatBool(token.Revoked),
			"created_at": strconv.FormatInt(token.CreatedAt.UnixMicro(), 10),
			"expires_at": strconv.FormatInt(token.ExpiresAt.UnixMicro(), 10),
		})
		pipe.ExpireAt(ctx, key, token.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("token store: failed to store token %s in redis: %w", token.ID, err)
	}

	return nil
}

func (s *redisTokenStore) Find(ctx context.Context, id uuid.UUID) (*AccessToken, error) {
	fields, err := s.client.HGetAll(ctx, redisTokenKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("token store: failed to read token %s from redis: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, ErrTokenNotFound
	}

	token, err := decodeRedisToken(id, fields)
	if err != nil {
		return nil, fmt.Errorf("token store: corrupt token %s in redis: %w", id, err)
	}

	return token, nil
}

func (s *redisTokenStore) Revoke(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.client.Del(ctx, redisTokenKey(id)).Result()
	if err != nil {
		return fmt.Errorf("token store: failed to revoke token %s in redis: %w", id, err)
	}

	if deleted == 0 {
		return ErrTokenNotFound
	}

	return nil
}

func decodeRedisToken(id uuid.UUID, fields map[string]string) (*AccessToken, error) {
	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("user_id: %w", err)
	}

	revoked, err := strconv.ParseBool(fields["revoked"])
	if err != nil {
		return nil, fmt.Errorf("revoked: %w", err)
	}

	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expires_at: %w", err)
	}

	return &AccessToken{
		ID:        id,
		UserID:    userID,
		Revoked:   revoked,
		CreatedAt: time.UnixMicro(createdAt).UTC(),
		ExpiresAt: time.UnixMicro(expiresAt).UTC(),
	}, nil
}
