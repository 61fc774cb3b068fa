package routes

import (
	"github.com/ghakobyan/contactdesk/internal/auth"
	"github.com/ghakobyan/contactdesk/internal/handlers"
	"github.com/ghakobyan/contactdesk/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes.
//
// The contact submission form and the login endpoint are public; everything
// that reads or mutates existing records sits behind the token guard.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	contactHandler *handlers.ContactHandler,
	managerHandler *handlers.ManagerHandler,
	tokenManager *auth.TokenManager,
) {
	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(middleware.DefaultLoginRateLimit())).
		Post("/managers/logins", authHandler.Login)
	router.With(middleware.RateLimitByIP(middleware.DefaultSubmissionRateLimit())).
		Post("/contacts", contactHandler.Create)

	// Protected routes - session token required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Get("/contacts", contactHandler.List)
		r.Put("/contacts", contactHandler.Update)
		r.Delete("/contacts/{id}", contactHandler.Delete)

		r.Get("/managers", managerHandler.List)
	})
}
