package user

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrSelfDeleteBlocked = errors.New("user cannot deactivate itself")
	ErrAlreadyActive     = errors.New("user is already active")
)

// FieldErrors maps a wire field name to the messages of every rule it broke.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// ValidationError is returned when input breaks one or more field rules.
// Nothing is written when it is returned.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	return "validation failed: " + strings.Join(fields, ", ")
}
