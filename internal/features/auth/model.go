// Package auth handles accounts, registration, login, Redis sessions, and
// the anti-forgery token service for Collège en ligne. Four account kinds
// exist (principal, teacher, teacher referent, collegian), each persisted in
// its own table; the repository presents them behind one interface with a
// fixed lookup order so cross-table behavior stays deterministic.
package auth

import (
	"time"
)

// Role names as seeded in the roles table. User-facing, hence French.
const (
	RolePrincipal       = "Principal"
	RoleTeacher         = "Professeur"
	RoleTeacherReferent = "Professeur référent"
	RoleCollegian       = "Collégien"
)

// EntryLevel is the class level that does not require a foreign-language
// choice at registration (first year of collège).
const EntryLevel = "6ème"

// Role is a row of the roles table.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Account is the domain model shared by the four account tables. ClassID and
// LanguageID are only set for the roles whose table carries them.
type Account struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never expose in JSON responses.
	RoleID       int64  `json:"id_role"`
	ClassID      *int64 `json:"id_class,omitempty"`
	LanguageID   *int64 `json:"id_language,omitempty"`
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted by the registration form. The id
// fields stay strings here: the workflow distinguishes "not selected" from
// "selected but unknown", and each case has its own failure reason.
type RegisterRequest struct {
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	RoleID          string `json:"idRole" form:"idRole"`
	ClassID         string `json:"idClass" form:"idClass"`
	LanguageID      string `json:"idLanguage" form:"idLanguage"`
	CSRFToken       string `json:"-" form:"csrf-token"`
}

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	CSRFToken string `json:"-" form:"csrf-token"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the raw registration submission plus the CSRF session id
// of the requester. The service validates everything in workflow order.
type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	RoleID          string
	ClassID         string
	LanguageID      string

	CSRFSessionID string
	CSRFToken     string
}

// LoginInput is the raw login submission plus the CSRF session id.
type LoginInput struct {
	Email    string
	Password string

	CSRFSessionID string
	CSRFToken     string
}

// --- Session ---

// Session represents an authenticated session stored in Redis. The session
// token is the key (under "session:"), this struct is the JSON value. The
// CSRF token lives inside the session record and is not rotated during the
// session's lifetime.
type Session struct {
	AccountID int64     `json:"account_id"`
	Role      string    `json:"role"`
	ClassID   *int64    `json:"class_id,omitempty"`
	CSRFToken string    `json:"csrf_token"`
	CreatedAt time.Time `json:"created_at"`
}
