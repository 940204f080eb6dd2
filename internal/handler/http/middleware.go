package http

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/user-management-api/internal/auth"
)

func respondUnauthenticated(w http.ResponseWriter) {
	respondWithJSON(w, http.StatusUnauthorized, envelope{
		Success: false,
		Message: "No autenticado. Por favor inicie sesión",
		Error:   "Unauthenticated",
	})
}

func respondInactiveAccount(w http.ResponseWriter) {
	respondWithJSON(w, http.StatusForbidden, envelope{
		Success: false,
		Message: "Tu cuenta está inactiva. Contacta al administrador",
		Error:   "User inactive",
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, auth.TokenTypeBearer) {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth runs the identity check and stores the principal on the request context.
func RequireAuth(service auth.Service, debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := service.Authenticate(r.Context(), extractBearerToken(r))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrUnauthenticated):
					respondUnauthenticated(w)
				case errors.Is(err, auth.ErrAccountInactive):
					respondInactiveAccount(w)
				default:
					log.Error().Err(err).Msg("Failed to authenticate request")
					respondServerError(w, debug, "Error de autenticación", err)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// AccessLog writes one zerolog line per request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			event := log.Info()
			if ww.Status() >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// Recoverer turns a panic in a handler into the JSON 500 envelope.
func Recoverer(exposeErrors bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				log.Error().
					Str("request_id", middleware.GetReqID(r.Context())).
					Interface("panic", rvr).
					Bytes("stack", debug.Stack()).
					Msg("Recovered from panic")

				if r.Header.Get("Connection") != "Upgrade" {
					respondServerError(w, exposeErrors, msgServerError, fmt.Errorf("panic: %v", rvr))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
