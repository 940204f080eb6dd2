package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/user-management-api/internal/auth"
	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

const internalErrorText = "Error interno"

// envelope is the body of every response.
type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Data    any              `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
	Total   *int             `json:"total,omitempty"`
	Errors  user.FieldErrors `json:"errors,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Error interno"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithSuccess(w http.ResponseWriter, code int, message string, data any) {
	respondWithJSON(w, code, envelope{Success: true, Message: message, Data: data})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, envelope{Success: false, Message: message})
}

func respondWithValidationError(w http.ResponseWriter, fields user.FieldErrors) {
	respondWithJSON(w, http.StatusUnprocessableEntity, envelope{
		Success: false,
		Message: "Error de validación",
		Errors:  fields,
	})
}

// respondServerError exposes err's text only in debug mode.
func respondServerError(w http.ResponseWriter, debug bool, message string, err error) {
	errText := internalErrorText
	if debug && err != nil {
		errText = err.Error()
	}
	respondWithJSON(w, http.StatusInternalServerError, envelope{
		Success: false,
		Message: message,
		Error:   errText,
	})
}

func mapErrorToStatusCode(err error) int {
	var validationErr *user.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrSelfDeleteBlocked), errors.Is(err, user.ErrAlreadyActive):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAccountInactive):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

var errMalformedBody = errors.New("malformed JSON body")

// decodeJSON reads a JSON object into dst. An empty body leaves dst untouched
// so that missing fields are reported by validation.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errors.Join(errMalformedBody, err)
}

// respondDecodeError answers a field holding the wrong JSON type with a
// validation error for that field, and anything else as a malformed body.
func respondDecodeError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		log.Warn().Err(err).Str("field", typeErr.Field).Msg("Request field has wrong JSON type")
		respondWithValidationError(w, user.InvalidTypeError(typeErr.Field).Fields)
		return
	}
	respondMalformedBody(w, err)
}

func respondMalformedBody(w http.ResponseWriter, err error) {
	log.Warn().Err(err).Msg("Failed to decode request body")
	respondWithJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Message: "El cuerpo de la solicitud no es un JSON válido",
	})
}
