package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Context keys for storing session data in Echo context. Other features use
// these keys (via the exported getter functions below) to access the
// authenticated account's identity.
const (
	contextKeySession   = "auth_session"
	contextKeyAccountID = "auth_account_id"
)

// RequireAuth returns middleware that validates the session cookie and
// injects session data into the request context. If the session is invalid
// or missing, it redirects browsers to the login page or returns 401 for
// API requests.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return handleUnauthenticated(c)
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				// Invalid or expired session -- clear the stale cookie.
				clearSessionCookie(c)
				return handleUnauthenticated(c)
			}

			// Store session data in context for downstream handlers.
			c.Set(contextKeySession, session)
			c.Set(contextKeyAccountID, session.AccountID)

			return next(c)
		}
	}
}

// RequireRole returns middleware that restricts a route group to the given
// roles. Must run after RequireAuth. A referent passes wherever a teacher
// does: both hold the teacher landing area.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
		if role == RoleTeacher {
			allowed[RoleTeacherReferent] = true
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := GetSession(c)
			if session == nil {
				return handleUnauthenticated(c)
			}
			if !allowed[session.Role] {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "Accès refusé",
				})
			}
			return next(c)
		}
	}
}

// handleUnauthenticated returns the appropriate response for unauthenticated
// requests: redirect for browsers, 401 JSON for API clients.
func handleUnauthenticated(c echo.Context) error {
	if isAPIRequest(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Authentification requise",
		})
	}

	return c.Redirect(http.StatusSeeOther, "/connexion")
}

// --- Exported getters for other features ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetAccountID retrieves the authenticated account's id from the Echo
// context. Returns zero if the request is not authenticated.
func GetAccountID(c echo.Context) int64 {
	id, ok := c.Get(contextKeyAccountID).(int64)
	if !ok {
		return 0
	}
	return id
}

// isAPIRequest returns true if the request targets the /api/ path.
func isAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return len(path) >= 4 && path[:4] == "/api"
}
