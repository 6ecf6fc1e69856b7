// Package middleware provides HTTP middleware for the Collège en ligne
// Echo server. csrf.go wires the session-stored anti-forgery token into
// the request pipeline.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/labstack/echo/v4"
)

// csrfCookieName is the cookie that carries the anonymous CSRF session id.
// The token itself never travels in a cookie: it is stored server-side and
// mirrored into forms, so validation compares a form value against state
// the server rendered for that session.
const csrfCookieName = "college_csrf_sid"

// CSRFFormField is the form field name the token is submitted under.
const CSRFFormField = "csrf-token"

// csrfSidBytes is the number of random bytes in a CSRF session id.
const csrfSidBytes = 32

// TokenStore is the contract the CSRF middleware needs from the token
// service. Implemented by the auth feature (Redis-backed). The middleware
// package defines the interface so it never imports feature types.
type TokenStore interface {
	// Issue returns the current token for the session id, generating and
	// storing a fresh one if none exists yet.
	Issue(ctx context.Context, sid string) (string, error)

	// Validate reports whether candidate matches the stored token for the
	// session id. Returns false (never an error) on any absence or mismatch.
	Validate(ctx context.Context, sid, candidate string) bool
}

// EnsureCSRF returns middleware that guarantees every request carries a CSRF
// session: it sets the sid cookie if missing, issues (or re-reads) the
// server-stored token, and exposes it via the Echo context for templates.
//
// Validation is NOT done here. The registration and login workflows check
// the token at a precise position in their validation order (after the
// required-field check), so they call the token service themselves. Other
// mutating routes use RequireCSRF below.
func EnsureCSRF(store TokenStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := csrfSessionID(c)
			if sid == "" {
				var err error
				sid, err = generateCSRFSessionID()
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF session")
				}
				c.SetCookie(&http.Cookie{
					Name:     csrfCookieName,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
					SameSite: http.SameSiteLaxMode,
				})
			}

			token, err := store.Issue(c.Request().Context(), sid)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue CSRF token")
			}

			c.Set("csrf_sid", sid)
			c.Set("csrf_token", token)

			return next(c)
		}
	}
}

// RequireCSRF returns middleware that rejects mutating requests whose
// submitted token does not match the server-stored one. Applied per-route
// on state-changing endpoints outside the auth workflows (lesson and
// course administration).
func RequireCSRF(store TokenStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isSafeMethod(c.Request().Method) {
				return next(c)
			}

			sid := CSRFSessionID(c)
			candidate := c.FormValue(CSRFFormField)
			if !store.Validate(c.Request().Context(), sid, candidate) {
				return echo.NewHTTPError(http.StatusForbidden, "Jeton CSRF invalide")
			}

			return next(c)
		}
	}
}

// isSafeMethod returns true for HTTP methods that should not change state.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

// csrfSessionID reads the CSRF session id cookie, or "" when absent.
func csrfSessionID(c echo.Context) string {
	cookie, err := c.Request().Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// generateCSRFSessionID creates a cryptographically random hex-encoded id.
func generateCSRFSessionID() (string, error) {
	b := make([]byte, csrfSidBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CSRFSessionID retrieves the CSRF session id from the Echo context.
// Handlers pass it to the token service when validating form submissions.
func CSRFSessionID(c echo.Context) string {
	if sid, ok := c.Get("csrf_sid").(string); ok {
		return sid
	}
	return csrfSessionID(c)
}

// GetCSRFToken retrieves the current CSRF token from the Echo context.
// Used by page templates to inject the token into forms.
func GetCSRFToken(c echo.Context) string {
	if token, ok := c.Get("csrf_token").(string); ok {
		return token
	}
	return ""
}
