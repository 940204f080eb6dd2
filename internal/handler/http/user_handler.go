package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/user-management-api/internal/auth"
	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

const msgUserNotFound = "Usuario no encontrado"

type UserHandler struct {
	service user.Service
	debug   bool
}

func NewUserHandler(service user.Service, debug bool) *UserHandler {
	return &UserHandler{service: service, debug: debug}
}

// RegisterPublicRoutes mounts registration, which needs no token.
func (h *UserHandler) RegisterPublicRoutes(router chi.Router) {
	router.Post("/users", h.handleCreateUser)
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Get("/users", h.handleListUsers)
	router.Get("/users/{id:[0-9]+}", h.handleGetUserByID)
	router.Put("/users/{id:[0-9]+}", h.handleUpdateUser)
	router.Delete("/users/{id:[0-9]+}", h.handleDeleteUser)
	router.Patch("/users/{id:[0-9]+}/restore", h.handleRestoreUser)
}

// userIDParam reports false for ids that overflow int64; the route pattern
// already guarantees digits.
func userIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Warn().Err(err).Str("user_id", chi.URLParam(r, "id")).Msg("Failed to parse id parameter from URL")
		return 0, false
	}
	return id, true
}

// respondUserError answers the domain errors shared by the user endpoints and
// falls back to a 500 carrying failureMessage.
func (h *UserHandler) respondUserError(w http.ResponseWriter, err error, failureMessage string) {
	var validationErr *user.ValidationError

	switch {
	case errors.As(err, &validationErr):
		respondWithValidationError(w, validationErr.Fields)
	case errors.Is(err, user.ErrNotFound):
		respondWithError(w, mapErrorToStatusCode(err), msgUserNotFound)
	case errors.Is(err, user.ErrSelfDeleteBlocked):
		respondWithError(w, mapErrorToStatusCode(err), "No puedes eliminar tu propio usuario")
	case errors.Is(err, user.ErrAlreadyActive):
		respondWithError(w, mapErrorToStatusCode(err), "El usuario ya está activo")
	default:
		log.Error().Err(err).Msg(failureMessage)
		respondServerError(w, h.debug, failureMessage, err)
	}
}

func (h *UserHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	var filter user.ListFilter
	if r.URL.Query().Has("estado") {
		status := user.Status(r.URL.Query().Get("estado"))
		filter.Status = &status
	}

	users, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		h.respondUserError(w, err, "Error al obtener usuarios")
		return
	}

	data := newUserListResponse(users)
	total := len(data)

	respondWithJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Usuarios obtenidos exitosamente",
		Data:    data,
		Total:   &total,
	})
}

func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateUserRequest
	if err := decodeJSON(r, &requestPayload); err != nil {
		respondDecodeError(w, err)
		return
	}

	createdUser, err := h.service.CreateUser(r.Context(), requestPayload.toInput())
	if err != nil {
		h.respondUserError(w, err, "Error al crear usuario")
		return
	}

	respondWithSuccess(w, http.StatusCreated, "Usuario creado exitosamente", newUserResponse(createdUser))
}

func (h *UserHandler) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	foundUser, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		h.respondUserError(w, err, "Error al obtener usuario")
		return
	}

	respondWithSuccess(w, http.StatusOK, "", newUserResponse(foundUser))
}

func (h *UserHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	var requestPayload UpdateUserRequest
	if err := decodeJSON(r, &requestPayload); err != nil {
		respondDecodeError(w, err)
		return
	}

	updatedUser, err := h.service.UpdateUser(r.Context(), userID, requestPayload.toInput())
	if err != nil {
		h.respondUserError(w, err, "Error al actualizar usuario")
		return
	}

	respondWithSuccess(w, http.StatusOK, "Usuario actualizado exitosamente", newUserResponse(updatedUser))
}

func (h *UserHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respondUnauthenticated(w)
		return
	}

	if err := h.service.DeactivateUser(r.Context(), principal.UserID, userID); err != nil {
		h.respondUserError(w, err, "Error al eliminar usuario")
		return
	}

	respondWithSuccess(w, http.StatusOK, "Usuario eliminado exitosamente", nil)
}

func (h *UserHandler) handleRestoreUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	restoredUser, err := h.service.RestoreUser(r.Context(), userID)
	if err != nil {
		h.respondUserError(w, err, "Error al restaurar usuario")
		return
	}

	respondWithSuccess(w, http.StatusOK, "Usuario restaurado exitosamente", newRestoredUserResponse(restoredUser))
}
