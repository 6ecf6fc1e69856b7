package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/angembang/college-en-ligne/internal/features/auth"
	"github.com/angembang/college-en-ligne/internal/features/courses"
	"github.com/angembang/college-en-ligne/internal/features/lessons"
	"github.com/angembang/college-en-ligne/internal/middleware"
	"github.com/angembang/college-en-ligne/internal/templates/pages"
)

// RegisterRoutes sets up all application routes. Public routes are
// registered directly; each feature registers its own routes with the
// guards it needs.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Landing page.
	e.GET("/", func(c echo.Context) error {
		return middleware.Render(c, http.StatusOK, pages.Landing())
	})

	// Health check endpoint for container monitoring.
	e.GET("/healthz", a.healthz)

	// CSRF token for non-browser clients. The token is only ever valid for
	// the caller's own sid cookie, so exposing it reveals nothing usable
	// cross-session.
	e.GET("/api/csrf-token", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"token": middleware.GetCSRFToken(c)})
	})

	auth.RegisterRoutes(e, a.authHandler, a.csrf)
	lessons.RegisterRoutes(e, a.lessonsHandler, a.authService, a.csrf)
	courses.RegisterRoutes(e, a.coursesHandler, a.authService, a.csrf)
}

// healthz reports the liveness of the DB pool and the Redis connection.
func (a *App) healthz(c echo.Context) error {
	ctx := c.Request().Context()

	if err := a.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
