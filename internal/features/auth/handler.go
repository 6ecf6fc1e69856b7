package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/angembang/college-en-ligne/internal/apperror"
	"github.com/angembang/college-en-ligne/internal/middleware"
	"github.com/angembang/college-en-ligne/internal/templates/pages"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "college_session"

// Handler handles HTTP requests for authentication. Handlers are thin: they
// bind the request, call the service, and shape the response. The login and
// registration submissions answer JSON -- the front-end scripts read
// {success}, {error} and {message} fields and route on the role.
type Handler struct {
	service    AuthService
	sessionTTL time.Duration
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService, sessionTTL time.Duration) *Handler {
	return &Handler{service: service, sessionTTL: sessionTTL}
}

// LoginForm renders the login page (GET /connexion).
func (h *Handler) LoginForm(c echo.Context) error {
	csrfToken := middleware.GetCSRFToken(c)
	return middleware.Render(c, http.StatusOK, pages.Login(csrfToken, ""))
}

// Login processes the login submission (/check-login). The route accepts any
// method so the workflow's own method check stays the first failure branch.
func (h *Handler) Login(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		err := errInvalidRequest()
		return c.JSON(err.Code, map[string]any{"error": err.Message})
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "Requête invalide"})
	}

	input := LoginInput{
		Email:         req.Email,
		Password:      req.Password,
		CSRFSessionID: middleware.CSRFSessionID(c),
		CSRFToken:     req.CSRFToken,
	}

	token, session, err := h.service.Login(c.Request().Context(), input)
	if err != nil {
		return c.JSON(apperror.SafeCode(err), map[string]any{"error": apperror.SafeMessage(err)})
	}

	h.setSessionCookie(c, token)

	resp := map[string]any{
		"success": true,
		"role":    LandingRole(session.Role),
	}
	if session.ClassID != nil {
		resp["classId"] = *session.ClassID
	}
	return c.JSON(http.StatusOK, resp)
}

// RegisterForm renders the registration page (GET /inscription).
func (h *Handler) RegisterForm(c echo.Context) error {
	csrfToken := middleware.GetCSRFToken(c)
	return middleware.Render(c, http.StatusOK, pages.Register(csrfToken, ""))
}

// Register processes the registration submission (/check-register).
func (h *Handler) Register(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		err := errInvalidRequest()
		return c.JSON(err.Code, map[string]any{"success": false, "message": err.Message})
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Requête invalide"})
	}

	input := RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		RoleID:          req.RoleID,
		ClassID:         req.ClassID,
		LanguageID:      req.LanguageID,
		CSRFSessionID:   middleware.CSRFSessionID(c),
		CSRFToken:       req.CSRFToken,
	}

	if _, err := h.service.Register(c.Request().Context(), input); err != nil {
		return c.JSON(apperror.SafeCode(err), map[string]any{
			"success": false,
			"message": apperror.SafeMessage(err),
		})
	}

	return c.JSON(http.StatusCreated, map[string]any{"success": true})
}

// Logout destroys the session and clears the cookie (POST /logout).
func (h *Handler) Logout(c echo.Context) error {
	token := getSessionToken(c)
	if token != "" {
		// Destroy the session in Redis. Ignore errors -- the cookie
		// will be cleared regardless.
		_ = h.service.DestroySession(c.Request().Context(), token)
	}

	clearSessionCookie(c)
	return c.Redirect(http.StatusSeeOther, "/")
}

// --- Cookie helpers ---

// getSessionToken reads the session token from the cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure if behind TLS, and SameSite=Lax.
func (h *Handler) setSessionCookie(c echo.Context, token string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
