// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance) and wires the feature packages together.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/angembang/college-en-ligne/internal/apperror"
	"github.com/angembang/college-en-ligne/internal/config"
	"github.com/angembang/college-en-ligne/internal/features/auth"
	"github.com/angembang/college-en-ligne/internal/features/courses"
	"github.com/angembang/college-en-ligne/internal/features/lessons"
	"github.com/angembang/college-en-ligne/internal/mailer"
	"github.com/angembang/college-en-ligne/internal/middleware"
	"github.com/angembang/college-en-ligne/internal/templates/pages"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all features.
	DB *sql.DB

	// Redis is the Redis client backing sessions, CSRF tokens and rate limits.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	csrf        *auth.CSRFService
	authService auth.AuthService
	authHandler *auth.Handler

	lessonsHandler *lessons.Handler
	coursesHandler *courses.Handler
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's. The rate limits on the auth
	// endpoints depend on it.
	middleware.TrustedProxies(e, []string{
		"127.0.0.0/8",    // Localhost
		"10.0.0.0/8",     // Docker default bridge
		"172.16.0.0/12",  // Docker bridge (alternate range)
		"192.168.0.0/16", // Common LAN
		"fd00::/8",       // IPv6 private
	})

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Echo:   e,
	}
	app.wireFeatures()

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	// Serve stored course attachments.
	e.Static("/media", cfg.Upload.MediaPath)

	return app
}

// wireFeatures builds the repositories, services and handlers. The lessons
// repository doubles as the class and language directory the registration
// workflow consults.
func (a *App) wireFeatures() {
	a.csrf = auth.NewCSRFService(a.Redis, a.Config.Session.TTL)

	lessonsRepo := lessons.NewRepository(a.DB)

	var mail mailer.MailSender
	if a.Config.SMTP.Host != "" {
		mail = mailer.NewSMTPSender(a.Config.SMTP)
	} else {
		mail = mailer.NewConsoleSender()
	}

	a.authService = auth.NewAuthService(
		auth.NewAccountRepository(a.DB),
		auth.NewRoleRepository(a.DB),
		lessonsRepo,
		lessonsRepo,
		a.csrf,
		mail,
		a.Redis,
		a.Config.Session.TTL,
		a.Config.BaseURL,
	)
	a.authHandler = auth.NewHandler(a.authService, a.Config.Session.TTL)

	a.lessonsHandler = lessons.NewHandler(lessons.NewService(lessonsRepo))

	coursesRepo := courses.NewRepository(a.DB)
	media := courses.NewMediaStore(a.Config.Upload.MediaPath, a.Config.Upload.MaxSize)
	a.coursesHandler = courses.NewHandler(courses.NewService(coursesRepo, media))
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- method, path, status, latency on every request.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- CSP, X-Frame-Options, X-Content-Type-Options, etc.
	a.Echo.Use(middleware.SecurityHeaders())

	// CSRF session -- gives every visitor a session id cookie and a stored
	// token so the auth forms can carry it. Validation happens inside the
	// workflows, at their fixed position in the check order.
	a.Echo.Use(middleware.EnsureCSRF(a.csrf))
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to HTTP responses: JSON for API requests, the error page for
// browser requests, and a login redirect on 401.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Une erreur est survenue."

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("reason", appErr.Reason),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	} else {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			code = echoErr.Code
			message = defaultErrorMessage(code)
		} else {
			// Truly unexpected error -- log it.
			slog.Error("unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
	}

	if isAPIRequest(c) {
		c.JSON(code, map[string]string{"error": message})
		return
	}

	// Browser 401 -- send the visitor to the login form.
	if code == http.StatusUnauthorized {
		c.Redirect(http.StatusSeeOther, "/connexion")
		return
	}

	middleware.Render(c, code, pages.ErrorPage(message))
}

// defaultErrorMessage returns a user-facing message for common HTTP status
// codes when the error carried none.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "La requête est invalide."
	case http.StatusUnauthorized:
		return "Veuillez vous connecter pour accéder à cette page."
	case http.StatusForbidden:
		return "Accès refusé"
	case http.StatusNotFound:
		return "La page demandée n'existe pas."
	case http.StatusMethodNotAllowed:
		return "Cette action n'est pas autorisée."
	case http.StatusTooManyRequests:
		return "Trop de requêtes. Veuillez réessayer plus tard."
	default:
		return "Une erreur est survenue."
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

// isAPIRequest returns true if the request expects a JSON response.
func isAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api") {
		return true
	}
	return strings.Contains(c.Request().Header.Get("Accept"), "application/json")
}
