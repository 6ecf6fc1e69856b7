package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/angembang/college-en-ligne/internal/middleware"
)

// RegisterRoutes sets up all auth-related routes on the given Echo instance.
// Auth routes are public (no session required) -- the middleware is exported
// separately for other features to use on their route groups.
//
// The submission endpoints accept any method: the workflows report a
// dedicated failure for non-POST submissions, so routing must not swallow
// those requests first. Both are rate-limited to slow brute-force and
// credential stuffing: 10 attempts per IP per minute for login, 5 for
// registration.
func RegisterRoutes(e *echo.Echo, h *Handler, csrf middleware.TokenStore) {
	e.GET("/connexion", h.LoginForm)
	e.Any("/check-login", h.Login, middleware.RateLimit(10, time.Minute))
	e.GET("/inscription", h.RegisterForm)
	e.Any("/check-register", h.Register, middleware.RateLimit(5, time.Minute))

	// Logout destroys the session cookie leniently but still changes
	// state, so it carries the form token guard like the other mutations.
	e.POST("/logout", h.Logout, middleware.RequireCSRF(csrf))
}
