package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/user-management-api/internal/auth"
	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

const msgServerError = "Error en el servidor"

type AuthHandler struct {
	service auth.Service
	debug   bool
}

func NewAuthHandler(service auth.Service, debug bool) *AuthHandler {
	return &AuthHandler{service: service, debug: debug}
}

func (h *AuthHandler) RegisterPublicRoutes(router chi.Router) {
	router.Post("/auth/login", h.handleLogin)
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/logout", h.handleLogout)
	router.Get("/auth/me", h.handleMe)
}

func validateLogin(req LoginRequest) user.FieldErrors {
	errs := user.FieldErrors{}
	if req.Email == nil || strings.TrimSpace(*req.Email) == "" {
		errs.Add(user.FieldEmail, "El correo electrónico es obligatorio")
	}
	if req.Password == nil || *req.Password == "" {
		errs.Add(user.FieldPassword, "La contraseña es obligatoria")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload LoginRequest
	if err := decodeJSON(r, &requestPayload); err != nil {
		respondDecodeError(w, err)
		return
	}

	if fieldErrs := validateLogin(requestPayload); fieldErrs != nil {
		respondWithValidationError(w, fieldErrs)
		return
	}

	result, err := h.service.Login(r.Context(), strings.TrimSpace(*requestPayload.Email), *requestPayload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondWithError(w, mapErrorToStatusCode(err), "Credenciales incorrectas")
		case errors.Is(err, auth.ErrAccountInactive):
			respondWithError(w, mapErrorToStatusCode(err), "Usuario inactivo. Contacte al administrador")
		default:
			log.Error().Err(err).Msg("Failed to log in via service")
			respondServerError(w, h.debug, msgServerError, err)
		}
		return
	}

	respondWithSuccess(w, http.StatusOK, "Login exitoso", LoginResponse{
		User:        newLoginUserResponse(result.User),
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respondUnauthenticated(w)
		return
	}

	if err := h.service.Logout(r.Context(), principal); err != nil {
		log.Error().Err(err).Int64("user_id", principal.UserID).Msg("Failed to log out via service")
		respondServerError(w, h.debug, msgServerError, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, "Logout exitoso", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respondUnauthenticated(w)
		return
	}

	current, err := h.service.CurrentIdentity(r.Context(), principal)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			respondUnauthenticated(w)
			return
		}
		log.Error().Err(err).Int64("user_id", principal.UserID).Msg("Failed to load current identity via service")
		respondServerError(w, h.debug, msgServerError, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, "", newUserResponse(current))
}
