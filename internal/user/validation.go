package user

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	personNameRegex  = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]+$`)
	phoneRegex       = regexp.MustCompile(`^[0-9+\-\s()]+$`)
	emailFormatRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Wire names of the user fields, also used as FieldErrors keys.
const (
	FieldFirstName = "nombres"
	FieldLastName  = "apellidos"
	FieldEmail     = "email"
	FieldPhone     = "telefono"
	FieldPassword  = "password"
	FieldStatus    = "estado"
)

const MsgEmailTaken = "Este correo electrónico ya está registrado"

type rule struct {
	tag     string
	message string
}

type fieldRules struct {
	name     string
	required string
	notText  string
	trim     bool
	rules    []rule
}

var (
	firstNameField = fieldRules{
		name:     FieldFirstName,
		required: "Los nombres son obligatorios",
		notText:  "Los nombres deben ser texto",
		trim:     true,
		rules: []rule{
			{tag: "max=100", message: "Los nombres no deben exceder 100 caracteres"},
			{tag: "personname", message: "Los nombres solo pueden contener letras y espacios"},
		},
	}
	lastNameField = fieldRules{
		name:     FieldLastName,
		required: "Los apellidos son obligatorios",
		notText:  "Los apellidos deben ser texto",
		trim:     true,
		rules: []rule{
			{tag: "max=100", message: "Los apellidos no deben exceder 100 caracteres"},
			{tag: "personname", message: "Los apellidos solo pueden contener letras y espacios"},
		},
	}
	emailField = fieldRules{
		name:     FieldEmail,
		required: "El correo electrónico es obligatorio",
		notText:  "El correo electrónico debe tener un formato válido",
		trim:     true,
		rules: []rule{
			{tag: "email", message: "El correo electrónico debe tener un formato válido"},
			{tag: "max=150", message: "El correo electrónico no debe exceder 150 caracteres"},
			{tag: "emailformat", message: "El formato del correo electrónico no es válido"},
		},
	}
	phoneField = fieldRules{
		name:     FieldPhone,
		required: "El teléfono es obligatorio",
		notText:  "El teléfono debe ser texto",
		trim:     true,
		rules: []rule{
			{tag: "max=20", message: "El teléfono no debe exceder 20 caracteres"},
			{tag: "phone", message: "El teléfono solo puede contener números y caracteres permitidos (+, -, espacios, paréntesis)"},
		},
	}
	passwordField = fieldRules{
		name:     FieldPassword,
		required: "La contraseña es obligatoria",
		notText:  "La contraseña debe ser texto",
		rules: []rule{
			{tag: "min=8", message: "La contraseña debe tener al menos 8 caracteres"},
			{tag: "strongpassword", message: "La contraseña debe contener al menos una mayúscula, una minúscula y un número"},
		},
	}
	statusField = fieldRules{
		name:    FieldStatus,
		notText: "El estado debe ser activo o inactivo",
		trim:    true,
		rules: []rule{
			{tag: "oneof=activo inactivo", message: "El estado debe ser activo o inactivo"},
		},
	}
)

var fieldsByName = map[string]fieldRules{
	FieldFirstName: firstNameField,
	FieldLastName:  lastNameField,
	FieldEmail:     emailField,
	FieldPhone:     phoneField,
	FieldPassword:  passwordField,
	FieldStatus:    statusField,
}

// InvalidTypeError reports a field whose value is not a string.
func InvalidTypeError(name string) *ValidationError {
	message := "El campo " + name + " no es válido"
	if field, ok := fieldsByName[name]; ok {
		message = field.notText
	}

	errs := FieldErrors{}
	errs.Add(name, message)
	return &ValidationError{Fields: errs}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		return personNameRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "emailformat", func(fl validator.FieldLevel) bool {
		return emailFormatRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// isStrongPassword requires at least one ASCII lowercase letter, uppercase letter and digit.
func isStrongPassword(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r <= unicode.MaxASCII && unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// ValidUser holds registration fields that passed every rule.
type ValidUser struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Status    Status
}

// UserPatch holds the validated subset of an update. Nil fields are left untouched.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Password  *string
	Status    *Status
}

// ValidateCreate checks a registration payload. Email uniqueness needs the store
// and is checked by the service afterwards. The returned FieldErrors is nil when
// the input is valid.
func ValidateCreate(in CreateUserInput) (ValidUser, FieldErrors) {
	errs := FieldErrors{}

	out := ValidUser{
		FirstName: checkRequired(errs, firstNameField, in.FirstName),
		LastName:  checkRequired(errs, lastNameField, in.LastName),
		Email:     checkRequired(errs, emailField, in.Email),
		Phone:     checkRequired(errs, phoneField, in.Phone),
		Password:  checkRequired(errs, passwordField, in.Password),
		Status:    StatusActive,
	}

	if in.Status != nil {
		out.Status = Status(checkValue(errs, statusField, *in.Status))
	}

	if len(errs) > 0 {
		return ValidUser{}, errs
	}
	return out, nil
}

// ValidateUpdate checks the fields present in a partial update. An empty password
// counts as absent.
func ValidateUpdate(in UpdateUserInput) (UserPatch, FieldErrors) {
	errs := FieldErrors{}
	var patch UserPatch

	patch.FirstName = checkPresent(errs, firstNameField, in.FirstName)
	patch.LastName = checkPresent(errs, lastNameField, in.LastName)
	patch.Email = checkPresent(errs, emailField, in.Email)
	patch.Phone = checkPresent(errs, phoneField, in.Phone)

	if in.Password != nil && *in.Password != "" {
		patch.Password = checkPresent(errs, passwordField, in.Password)
	}

	if in.Status != nil {
		s := Status(checkValue(errs, statusField, *in.Status))
		patch.Status = &s
	}

	if len(errs) > 0 {
		return UserPatch{}, errs
	}
	return patch, nil
}

func checkPresent(errs FieldErrors, field fieldRules, value *string) *string {
	if value == nil {
		return nil
	}
	v := checkRequired(errs, field, value)
	return &v
}

func checkRequired(errs FieldErrors, field fieldRules, value *string) string {
	if value == nil {
		errs.Add(field.name, field.required)
		return ""
	}

	v := *value
	if field.trim {
		v = strings.TrimSpace(v)
	}
	if v == "" {
		errs.Add(field.name, field.required)
		return ""
	}

	return checkValue(errs, field, v)
}

// checkValue runs every rule of field and records each failure.
func checkValue(errs FieldErrors, field fieldRules, value string) string {
	if field.trim {
		value = strings.TrimSpace(value)
	}
	for _, r := range field.rules {
		if err := validate.Var(value, r.tag); err != nil {
			errs.Add(field.name, r.message)
		}
	}
	return value
}
