package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/vsai-vivek/DataVionAuthentication/internal/auth"
	"github.com/vsai-vivek/DataVionAuthentication/internal/handlers"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokenManager *auth.TokenManager,
) {
	// Public routes - no authentication required
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Post("/auth/refresh", authHandler.Refresh)
	router.Post("/auth/logout", authHandler.Logout)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Get("/auth/me", authHandler.Me)

		// Administration, gated per authority
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuthority("users:READ"))
			r.Get("/users", userHandler.ListUsers)
			r.Get("/users/{id}", userHandler.GetUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuthority("users:UPDATE"))
			r.Post("/users/{id}/unlock", userHandler.UnlockUser)
		})
	})
}
