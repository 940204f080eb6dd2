package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vasiliy-maslov/user-management-api/internal/auth"
	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

type RouterDeps struct {
	Users  user.Service
	Auth   auth.Service
	Health Pinger
	Debug  bool
}

func NewRouter(deps RouterDeps) chi.Router {
	userHandler := NewUserHandler(deps.Users, deps.Debug)
	authHandler := NewAuthHandler(deps.Auth, deps.Debug)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(AccessLog)
	router.Use(Recoverer(deps.Debug))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Recurso no encontrado")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	if deps.Health != nil {
		NewHealthHandler(deps.Health).RegisterRoutes(router)
	}

	authHandler.RegisterPublicRoutes(router)
	userHandler.RegisterPublicRoutes(router)

	router.Group(func(protected chi.Router) {
		protected.Use(RequireAuth(deps.Auth, deps.Debug))
		authHandler.RegisterRoutes(protected)
		userHandler.RegisterRoutes(protected)
	})

	return router
}
