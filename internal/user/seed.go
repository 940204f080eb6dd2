package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type demoUser struct {
	user     User
	password string
	age      time.Duration
	modified time.Duration
}

var demoUsers = []demoUser{
	{
		user: User{
			FirstName: "Admin",
			LastName:  "EML",
			Email:     "admin@eml.com",
			Phone:     "+57 300 123 4567",
			Status:    StatusActive,
		},
		password: "Admin123",
	},
	{
		user: User{
			FirstName: "Juan Carlos",
			LastName:  "Pérez García",
			Email:     "juan.perez@example.com",
			Phone:     "+57 310 234 5678",
			Status:    StatusActive,
		},
		password: "Test123",
	},
	{
		user: User{
			FirstName: "María",
			LastName:  "González López",
			Email:     "maria.gonzalez@example.com",
			Phone:     "+57 320 345 6789",
			Status:    StatusActive,
		},
		password: "Test123",
	},
	{
		user: User{
			FirstName: "Pedro",
			LastName:  "Martínez Rodríguez",
			Email:     "pedro.martinez@example.com",
			Phone:     "+57 311 456 7890",
			Status:    StatusInactive,
		},
		password: "Test123",
		age:      10 * 24 * time.Hour,
		modified: 2 * 24 * time.Hour,
	},
}

// SeedDemoUsers inserts the demo accounts whose email is not registered yet.
// It goes straight to the repository, so the demo passwords skip the strength rules.
func SeedDemoUsers(ctx context.Context, repo Repository, hasher PasswordHasher) (int, error) {
	created := 0
	ref := now()

	for _, demo := range demoUsers {
		_, err := repo.GetByEmail(ctx, demo.user.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, fmt.Errorf("seed: failed to look up %s: %w", demo.user.Email, err)
		}

		digest, err := hasher.Hash(demo.password)
		if err != nil {
			return created, fmt.Errorf("seed: failed to hash password for %s: %w", demo.user.Email, err)
		}

		u := demo.user
		u.PasswordHash = digest
		if demo.age > 0 {
			u.CreatedAt = ref.Add(-demo.age)
			u.UpdatedAt = ref.Add(-demo.modified)
		}

		if err := repo.Create(ctx, &u); err != nil {
			if errors.Is(err, ErrEmailExists) {
				continue
			}
			return created, fmt.Errorf("seed: failed to create %s: %w", demo.user.Email, err)
		}

		created++
		log.Info().Int64("user_id", u.ID).Str("email", u.Email).Msg("seed: demo user created")
	}

	return created, nil
}
