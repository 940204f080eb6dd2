package user

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

type Service interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*User, error)
	DeactivateUser(ctx context.Context, actorID, id int64) error
	RestoreUser(ctx context.Context, id int64) (*User, error)
}

type service struct {
	repo   Repository
	hasher PasswordHasher
}

func NewService(repo Repository, hasher PasswordHasher) Service {
	return &service{repo: repo, hasher: hasher}
}

func (s *service) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list users in repository")
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}

	return users, nil
}

func (s *service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	valid, fieldErrs := ValidateCreate(input)
	if fieldErrs == nil {
		fieldErrs = FieldErrors{}
	}

	if email := candidateEmail(valid.Email, input.Email); email != "" {
		taken, err := s.repo.EmailTaken(ctx, email, 0)
		if err != nil {
			log.Error().Err(err).Msg("service: failed to check email uniqueness")
			return nil, fmt.Errorf("service: failed to create user: %w", err)
		}
		if taken {
			fieldErrs.Add(FieldEmail, MsgEmailTaken)
		}
	}

	if len(fieldErrs) > 0 {
		log.Warn().Strs("fields", fieldNames(fieldErrs)).Msg("service: user registration rejected by validation")
		return nil, &ValidationError{Fields: fieldErrs}
	}

	digest, err := s.hasher.Hash(valid.Password)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: internal error hashing password: %w", err)
	}

	user := &User{
		FirstName:    valid.FirstName,
		LastName:     valid.LastName,
		Email:        valid.Email,
		Phone:        valid.Phone,
		PasswordHash: digest,
		Status:       valid.Status,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, emailTakenError()
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to save user: %w", err)
	}

	log.Info().Int64("user_id", user.ID).Msg("service: user created")

	return user, nil
}

func (s *service) GetUserByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Int64("user_id", id).Msg("service: user not found by id")
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("user_id", id).Msg("service: failed to get user by id in repository")
		return nil, fmt.Errorf("service: failed to get user by id %d: %w", id, err)
	}

	return user, nil
}

func (s *service) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch, fieldErrs := ValidateUpdate(input)
	if fieldErrs == nil {
		fieldErrs = FieldErrors{}
	}

	var email string
	if patch.Email != nil {
		email = *patch.Email
	} else if input.Email != nil {
		email = candidateEmail("", input.Email)
	}
	if email != "" {
		taken, err := s.repo.EmailTaken(ctx, email, id)
		if err != nil {
			log.Error().Err(err).Int64("user_id", id).Msg("service: failed to check email uniqueness")
			return nil, fmt.Errorf("service: failed to update user %d: %w", id, err)
		}
		if taken {
			fieldErrs.Add(FieldEmail, MsgEmailTaken)
		}
	}

	if len(fieldErrs) > 0 {
		log.Warn().Int64("user_id", id).Strs("fields", fieldNames(fieldErrs)).Msg("service: user update rejected by validation")
		return nil, &ValidationError{Fields: fieldErrs}
	}

	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.Status != nil {
		user.Status = *patch.Status
	}
	if patch.Password != nil {
		digest, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			log.Error().Err(err).Int64("user_id", id).Msg("service: failed to hash password")
			return nil, fmt.Errorf("service: failed to generate hash password: %w", err)
		}
		user.PasswordHash = digest
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			return nil, emailTakenError()
		case errors.Is(err, ErrNotFound):
			log.Warn().Int64("user_id", id).Msg("service: user disappeared before update")
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("user_id", id).Msg("service: failed to update user in repository")
		return nil, fmt.Errorf("service: failed to update user %d: %w", id, err)
	}

	log.Info().Int64("user_id", id).Msg("service: user updated")

	return user, nil
}

// DeactivateUser is the soft delete. Deactivating an inactive user is a no-op.
func (s *service) DeactivateUser(ctx context.Context, actorID, id int64) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if actorID == user.ID {
		log.Warn().Int64("user_id", id).Msg("service: user tried to deactivate itself")
		return ErrSelfDeleteBlocked
	}

	if !user.Status.CanTransitionTo(StatusInactive) {
		log.Debug().Int64("user_id", id).Stringer("status", user.Status).Msg("service: user already inactive, no update needed")
		return nil
	}

	if err := s.setStatus(ctx, id, StatusInactive); err != nil {
		return err
	}

	log.Info().Int64("user_id", id).Int64("actor_id", actorID).Msg("service: user deactivated")
	return nil
}

func (s *service) RestoreUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.Status.CanTransitionTo(StatusActive) {
		log.Warn().Int64("user_id", id).Stringer("status", user.Status).Msg("service: restore requested for active user")
		return nil, ErrAlreadyActive
	}

	if err := s.setStatus(ctx, id, StatusActive); err != nil {
		return nil, err
	}
	user.Status = StatusActive

	log.Info().Int64("user_id", id).Msg("service: user restored")
	return user, nil
}

func (s *service) setStatus(ctx context.Context, id int64, status Status) error {
	err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Int64("user_id", id).Stringer("status", status).Msg("service: failed to update user status")
		return fmt.Errorf("service: failed to set status %s on user %d: %w", status, id, err)
	}
	return nil
}

// candidateEmail picks the address to check for uniqueness: the validated one,
// or the trimmed raw input when validation rejected it for other reasons.
func candidateEmail(validated string, raw *string) string {
	if validated != "" {
		return validated
	}
	if raw == nil {
		return ""
	}
	return strings.TrimSpace(*raw)
}

func emailTakenError() error {
	fieldErrs := FieldErrors{}
	fieldErrs.Add(FieldEmail, MsgEmailTaken)
	return &ValidationError{Fields: fieldErrs}
}

func fieldNames(fe FieldErrors) []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
