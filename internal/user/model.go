package user

import "time"

// Status is the account state. Deleting a user moves it to StatusInactive;
// rows are never removed.
type Status string

const (
	StatusActive   Status = "activo"
	StatusInactive Status = "inactivo"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// allowedTransitions lists the status changes made by deactivate and restore.
var allowedTransitions = map[Status]map[Status]bool{
	StatusActive:   {StatusInactive: true},
	StatusInactive: {StatusActive: true},
}

func (s Status) CanTransitionTo(next Status) bool {
	return allowedTransitions[s][next]
}

// User is a persisted account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id" db:"id"`
	FirstName    string    `json:"nombres" db:"nombres"`
	LastName     string    `json:"apellidos" db:"apellidos"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"telefono" db:"telefono"`
	PasswordHash string    `json:"-" db:"password"`
	Status       Status    `json:"estado" db:"estado"`
	CreatedAt    time.Time `json:"fecha_registro" db:"fecha_registro"`
	UpdatedAt    time.Time `json:"fecha_ultima_modificacion" db:"fecha_ultima_modificacion"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u User) IsActive() bool {
	return u.Status == StatusActive
}

// ListFilter narrows ListUsers. A nil Status returns every user.
type ListFilter struct {
	Status *Status
}

// CreateUserInput is the raw registration payload. Nil means the field was absent.
type CreateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Password  *string
	Status    *string
}

// UpdateUserInput is a partial update; only non-nil fields are applied.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Password  *string
	Status    *string
}
