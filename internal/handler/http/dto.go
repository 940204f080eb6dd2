package http

import (
	"encoding/json"
	"time"

	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

const timestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

type LoginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// CreateUserRequest and UpdateUserRequest keep pointers so that an absent field
// can be told apart from an empty one.
type CreateUserRequest struct {
	FirstName *string `json:"nombres"`
	LastName  *string `json:"apellidos"`
	Email     *string `json:"email"`
	Phone     *string `json:"telefono"`
	Password  *string `json:"password"`
	Status    *string `json:"estado"`
}

func (r CreateUserRequest) toInput() user.CreateUserInput {
	return user.CreateUserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Password:  r.Password,
		Status:    r.Status,
	}
}

type UpdateUserRequest struct {
	FirstName *string `json:"nombres"`
	LastName  *string `json:"apellidos"`
	Email     *string `json:"email"`
	Phone     *string `json:"telefono"`
	Password  *string `json:"password"`
	Status    *string `json:"estado"`

	nullKeys map[string]bool
}

// UnmarshalJSON also records which keys were sent as an explicit null.
func (r *UpdateUserRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateUserRequest
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = UpdateUserRequest(decoded)
	for key, value := range raw {
		if string(value) == "null" {
			if r.nullKeys == nil {
				r.nullKeys = make(map[string]bool)
			}
			r.nullKeys[key] = true
		}
	}
	return nil
}

// toInput sends an explicit null as an empty value so the field fails as
// required. A null password keeps the current one.
func (r UpdateUserRequest) toInput() user.UpdateUserInput {
	return user.UpdateUserInput{
		FirstName: r.orEmpty(user.FieldFirstName, r.FirstName),
		LastName:  r.orEmpty(user.FieldLastName, r.LastName),
		Email:     r.orEmpty(user.FieldEmail, r.Email),
		Phone:     r.orEmpty(user.FieldPhone, r.Phone),
		Password:  r.Password,
		Status:    r.orEmpty(user.FieldStatus, r.Status),
	}
}

func (r UpdateUserRequest) orEmpty(key string, value *string) *string {
	if value == nil && r.nullKeys[key] {
		empty := ""
		return &empty
	}
	return value
}

type UserResponse struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"nombres"`
	LastName   string `json:"apellidos"`
	FullName   string `json:"nombre_completo"`
	Email      string `json:"email"`
	Phone      string `json:"telefono"`
	Status     string `json:"estado"`
	CreatedAt  string `json:"fecha_registro,omitempty"`
	ModifiedAt string `json:"fecha_ultima_modificacion,omitempty"`
}

// newRestoredUserResponse is the reduced projection without timestamps.
func newRestoredUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Email:     u.Email,
		Phone:     u.Phone,
		Status:    u.Status.String(),
	}
}

func newLoginUserResponse(u *user.User) UserResponse {
	resp := newRestoredUserResponse(u)
	resp.CreatedAt = formatTimestamp(u.CreatedAt)
	return resp
}

func newUserResponse(u *user.User) UserResponse {
	resp := newLoginUserResponse(u)
	resp.ModifiedAt = formatTimestamp(u.UpdatedAt)
	return resp
}

func newUserListResponse(users []user.User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, newUserResponse(&users[i]))
	}
	return resp
}

type LoginResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
}
