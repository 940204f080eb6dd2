package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

// UserStore is the part of the credential store the auth gate reads.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, bearer string) (Principal, error)
	Logout(ctx context.Context, p Principal) error
	CurrentIdentity(ctx context.Context, p Principal) (*user.User, error)
}

type service struct {
	users  UserStore
	tokens TokenStore
	codec  TokenCodec
	hasher user.PasswordHasher
	ttl    time.Duration
	now    func() time.Time
}

func NewService(users UserStore, tokens TokenStore, codec TokenCodec, hasher user.PasswordHasher, ttl time.Duration) Service {
	return &service{
		users:  users,
		tokens: tokens,
		codec:  codec,
		hasher: hasher,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the account status before the password, so an inactive account
// is reported as such even with a wrong password. Earlier tokens stay valid.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			log.Warn().Msg("auth: login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("auth: failed to look up user for login")
		return nil, fmt.Errorf("auth: failed to look up user: %w", err)
	}

	if !u.IsActive() {
		log.Warn().Int64("user_id", u.ID).Msg("auth: login attempt on inactive account")
		return nil, ErrAccountInactive
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		log.Warn().Int64("user_id", u.ID).Msg("auth: login attempt with wrong password")
		return nil, ErrInvalidCredentials
	}

	tokenID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("auth: failed to generate token id: %w", err)
	}

	issuedAt := s.now().Truncate(time.Second)
	token := &AccessToken{
		ID:        tokenID,
		UserID:    u.ID,
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(s.ttl),
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("auth: failed to store access token")
		return nil, fmt.Errorf("auth: failed to store access token: %w", err)
	}

	bearer, err := s.codec.Encode(*token)
	if err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("auth: failed to encode access token")
		return nil, fmt.Errorf("auth: failed to encode access token: %w", err)
	}

	log.Info().Int64("user_id", u.ID).Stringer("token_id", tokenID).Msg("auth: user logged in")

	return &LoginResult{
		User:        u,
		AccessToken: bearer,
		TokenType:   TokenTypeBearer,
	}, nil
}

// Authenticate is the identity check run before every protected operation.
// A valid token whose owner is inactive is revoked and ErrAccountInactive returned.
func (s *service) Authenticate(ctx context.Context, bearer string) (Principal, error) {
	if bearer == "" {
		return Principal{}, ErrUnauthenticated
	}

	tokenID, subject, err := s.codec.Decode(bearer)
	if err != nil {
		log.Debug().Err(err).Msg("auth: rejected bearer token")
		return Principal{}, ErrUnauthenticated
	}

	token, err := s.tokens.Find(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		log.Error().Err(err).Stringer("token_id", tokenID).Msg("auth: failed to load access token")
		return Principal{}, fmt.Errorf("auth: failed to load access token: %w", err)
	}

	if token.Revoked || token.Expired(s.now()) || token.UserID != subject {
		return Principal{}, ErrUnauthenticated
	}

	u, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		log.Error().Err(err).Int64("user_id", token.UserID).Msg("auth: failed to load token owner")
		return Principal{}, fmt.Errorf("auth: failed to load token owner: %w", err)
	}

	if !u.IsActive() {
		if err := s.tokens.Revoke(ctx, token.ID); err != nil && !errors.Is(err, ErrTokenNotFound) {
			log.Error().Err(err).Stringer("token_id", token.ID).Int64("user_id", u.ID).
				Msg("auth: failed to revoke token of inactive user")
		}
		log.Warn().Int64("user_id", u.ID).Stringer("token_id", token.ID).Msg("auth: inactive user presented a token")
		return Principal{}, ErrAccountInactive
	}

	return Principal{UserID: u.ID, TokenID: token.ID}, nil
}

func (s *service) Logout(ctx context.Context, p Principal) error {
	err := s.tokens.Revoke(ctx, p.TokenID)
	if err != nil && !errors.Is(err, ErrTokenNotFound) {
		log.Error().Err(err).Stringer("token_id", p.TokenID).Msg("auth: failed to revoke token on logout")
		return fmt.Errorf("auth: failed to revoke token: %w", err)
	}

	log.Info().Int64("user_id", p.UserID).Stringer("token_id", p.TokenID).Msg("auth: user logged out")
	return nil
}

func (s *service) CurrentIdentity(ctx context.Context, p Principal) (*user.User, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		log.Error().Err(err).Int64("user_id", p.UserID).Msg("auth: failed to load current user")
		return nil, fmt.Errorf("auth: failed to load current user: %w", err)
	}

	return u, nil
}
