package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/campusdesk/student-portal/internal/api/http/handlers"
	"github.com/campusdesk/student-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Profile        *handlers.ProfileHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/profile")
	})

	page := app.Group("/profile", cfg.AuthMiddleware.Handle, auth.RequireIdentity(), pageCSRF())
	page.Get("", cfg.Profile.Page)
	page.Post("", cfg.Profile.Submit)
	page.Post("/edit", cfg.Profile.Edit)
	page.Post("/cancel", cfg.Profile.Cancel)

	api := app.Group("/api/profile", cfg.AuthMiddleware.Handle, auth.RequireIdentity())
	api.Get("", cfg.Profile.State)
	api.Post("/reload", cfg.Profile.Reload)
	api.Patch("/fields", cfg.Profile.ChangeField)
	api.Post("/submit", cfg.Profile.SubmitJSON)
	api.Delete("/state", cfg.Profile.Discard)
}

// pageCSRF guards the cookie-authenticated form posts with a double submit
// token. Requests carrying their own Authorization header are exempt.
func pageCSRF() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:_csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		ContextKey:     handlers.CSRFContextKey,
		Next: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) != ""
		},
	})
}
