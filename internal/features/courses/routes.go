package courses

import (
	"github.com/labstack/echo/v4"

	"github.com/angembang/college-en-ligne/internal/features/auth"
	"github.com/angembang/college-en-ligne/internal/middleware"
)

// RegisterRoutes wires the course routes. Teachers (and the principal)
// author material; any authenticated account can read it; autocomplete is
// collegian-only since it is scoped to the session's class.
func RegisterRoutes(e *echo.Echo, h *Handler, authService auth.AuthService, csrf middleware.TokenStore) {
	requireAuth := auth.RequireAuth(authService)
	teachers := []echo.MiddlewareFunc{requireAuth, auth.RequireRole(auth.RoleTeacher, auth.RolePrincipal)}

	e.Any("/check-add-course", h.CreateCourse, append(teachers, middleware.RequireCSRF(csrf))...)
	e.Any("/check-update-course", h.UpdateCourse, append(teachers, middleware.RequireCSRF(csrf))...)
	e.GET("/delete-course", h.DeleteCourse, teachers...)

	e.GET("/api/courses", h.LessonCourses, requireAuth)
	e.GET("/search-course", h.Search, requireAuth)
	e.GET("/classe-lessons", h.Autocomplete, requireAuth, auth.RequireRole(auth.RoleCollegian))
}
