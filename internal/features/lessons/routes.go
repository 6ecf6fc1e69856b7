package lessons

import (
	"github.com/labstack/echo/v4"

	"github.com/angembang/college-en-ligne/internal/features/auth"
	"github.com/angembang/college-en-ligne/internal/middleware"
)

// RegisterRoutes wires the lesson routes. The catalog listings used by the
// registration form stay public; the day listing is collegian-only and the
// admin endpoints are restricted to the principal.
func RegisterRoutes(e *echo.Echo, h *Handler, authService auth.AuthService, csrf middleware.TokenStore) {
	requireAuth := auth.RequireAuth(authService)

	e.GET("/api/classes", h.Classes)
	e.GET("/api/languages", h.Languages)

	e.GET("/lesson", h.LessonsPage, requireAuth, auth.RequireRole(auth.RoleCollegian))
	e.GET("/api/lessons/today", h.Today, requireAuth, auth.RequireRole(auth.RoleCollegian))
	e.GET("/api/lessons", h.ClassLessons, requireAuth, auth.RequireRole(auth.RoleCollegian))

	admin := []echo.MiddlewareFunc{requireAuth, auth.RequireRole(auth.RolePrincipal)}
	e.GET("/api/teachers", h.Teachers, admin...)
	e.Any("/check-add-lesson", h.CreateLesson, append(admin, middleware.RequireCSRF(csrf))...)
	e.PUT("/api/lessons/:id", h.UpdateLesson, append(admin, middleware.RequireCSRF(csrf))...)
	e.DELETE("/api/lessons/:id", h.DeleteLesson, append(admin, middleware.RequireCSRF(csrf))...)
}
