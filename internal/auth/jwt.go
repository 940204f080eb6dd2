package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

// TokenCodec turns a stored token record into the bearer string handed to
// clients and back into the token id.
type TokenCodec interface {
	Encode(token AccessToken) (string, error)
	Decode(raw string) (uuid.UUID, int64, error)
}

type jwtCodec struct {
	secret []byte
}

func NewJWTCodec(secret string) (TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &jwtCodec{secret: []byte(secret)}, nil
}

func (c *jwtCodec) Encode(token AccessToken) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        token.ID.String(),
		Subject:   strconv.FormatInt(token.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(token.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(token.ExpiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Decode checks signature and expiry and returns the token id and user id it
// carries. Every failure wraps ErrUnauthenticated.
func (c *jwtCodec) Decode(raw string) (uuid.UUID, int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	tokenID, err := uuid.FromString(claims.ID)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("%w: malformed jti: %v", ErrUnauthenticated, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("%w: malformed sub: %v", ErrUnauthenticated, err)
	}

	return tokenID, userID, nil
}
