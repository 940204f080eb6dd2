package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository is the credential store. It has no delete: users are deactivated
// through UpdateStatus instead.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// DB is the subset of *pgxpool.Pool (and pgx.Tx) the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &postgresRepository{db: db}
}

const userColumns = `id, nombres, apellidos, email, telefono, password, estado, fecha_registro, fecha_ultima_modificacion`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// now is truncated to the precision Postgres keeps for timestamptz.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Create inserts user and fills its ID. Zero timestamps default to the current time.
func (r *postgresRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (nombres, apellidos, email, telefono, password, estado, fecha_registro, fecha_ultima_modificacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	createdAt := now()
	if !user.CreatedAt.IsZero() {
		createdAt = user.CreatedAt.UTC()
	}
	updatedAt := createdAt
	if !user.UpdatedAt.IsZero() {
		updatedAt = user.UpdatedAt.UTC()
	}

	err := r.db.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.PasswordHash,
		string(user.Status),
		createdAt,
		updatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert user: %w", err)
	}

	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by id %d: %w", id, err)
	}

	return user, nil
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by email: %w", err)
	}

	return user, nil
}

// EmailTaken reports whether a user other than exceptID already owns email.
// Pass 0 as exceptID to check against every user. The comparison is case-sensitive.
func (r *postgresRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`

	var taken bool
	if err := r.db.QueryRow(ctx, query, email, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("repository: failed to check email uniqueness: %w", err)
	}

	return taken, nil
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := make([]any, 0, 1)

	if filter.Status != nil {
		query += ` WHERE estado = $1`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY apellidos ASC, nombres ASC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating users: %w", err)
	}

	return users, nil
}

// Update writes every mutable column of user and refreshes its modification time.
// The registration time is never touched.
func (r *postgresRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET nombres = $1, apellidos = $2, email = $3, telefono = $4, password = $5, estado = $6,
			fecha_ultima_modificacion = $7
		WHERE id = $8
	`

	updatedAt := now()

	cmdTag, err := r.db.Exec(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.PasswordHash,
		string(user.Status),
		updatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to update user %d: %w", user.ID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	user.UpdatedAt = updatedAt

	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	query := `
		UPDATE users
		SET estado = $1, fecha_ultima_modificacion = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, string(status), now(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update status of user %d: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
