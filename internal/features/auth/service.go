package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angembang/college-en-ligne/internal/apperror"
	"github.com/angembang/college-en-ligne/internal/mailer"
	"github.com/angembang/college-en-ligne/internal/sanitize"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// ClassDirectory is the read contract auth needs from the class catalog.
// Implemented by the lessons repository; declared here so auth never imports
// feature types from lessons.
type ClassDirectory interface {
	// FindClassLevelByID returns the level string ("6ème".."3ème") for a
	// class id, or apperror.NotFound.
	FindClassLevelByID(ctx context.Context, id int64) (string, error)
}

// LanguageDirectory is the read contract auth needs from the language catalog.
type LanguageDirectory interface {
	LanguageExists(ctx context.Context, id int64) (bool, error)
}

// tokenValidator is the slice of the CSRF service the workflows need. The
// registration and login workflows validate the token at a precise position
// in their ordered checks, so they call this directly instead of relying on
// route middleware.
type tokenValidator interface {
	Validate(ctx context.Context, sid, candidate string) bool
}

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*Account, error)
	Login(ctx context.Context, input LoginInput) (token string, session *Session, err error)
	ValidateSession(ctx context.Context, token string) (*Session, error)
	DestroySession(ctx context.Context, token string) error
}

// authService implements AuthService with argon2id hashing and Redis sessions.
type authService struct {
	accounts   AccountRepository
	roles      RoleRepository
	classes    ClassDirectory
	languages  LanguageDirectory
	csrf       tokenValidator
	mail       mailer.MailSender
	redis      *redis.Client
	sessionTTL time.Duration
	baseURL    string
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(
	accounts AccountRepository,
	roles RoleRepository,
	classes ClassDirectory,
	languages LanguageDirectory,
	csrf *CSRFService,
	mail mailer.MailSender,
	rdb *redis.Client,
	sessionTTL time.Duration,
	baseURL string,
) AuthService {
	return &authService{
		accounts:   accounts,
		roles:      roles,
		classes:    classes,
		languages:  languages,
		csrf:       csrf,
		mail:       mail,
		redis:      rdb,
		sessionTTL: sessionTTL,
		baseURL:    baseURL,
	}
}

// Register runs the registration workflow. The checks run in a fixed order
// and the first failing one wins; no account row is written unless every
// check passed. The order is part of the user-facing contract (each branch
// has its own French message), so do not reorder for convenience.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	// 1. Required fields. The role, class, and language selectors have their
	// own dedicated messages further down.
	if input.FirstName == "" || input.LastName == "" || input.Email == "" ||
		input.Password == "" || input.ConfirmPassword == "" {
		return nil, errMissingRegisterFields()
	}

	// 2. Anti-forgery token, constant-time against the server-stored value.
	if !s.csrf.Validate(ctx, input.CSRFSessionID, input.CSRFToken) {
		return nil, errInvalidCSRF()
	}

	// 3. Password confirmation.
	if input.Password != input.ConfirmPassword {
		return nil, errPasswordMismatch()
	}

	// 4. Password policy.
	if !passwordAcceptable(input.Password) {
		return nil, errWeakPassword()
	}

	// 5. Role resolution.
	if input.RoleID == "" {
		return nil, errRoleNotSelected()
	}
	roleID, ok := parseID(input.RoleID)
	if !ok {
		return nil, errRoleNotFound()
	}
	role, err := s.roles.FindRoleByID(ctx, roleID)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return nil, errRoleNotFound()
		}
		return nil, apperror.NewInternal(fmt.Errorf("resolving role: %w", err))
	}

	// 6. One email, one account, across all four tables.
	email := strings.ToLower(strings.TrimSpace(input.Email))
	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, errAccountExists()
	}

	// 7. Role-specific requirements.
	account := &Account{
		FirstName: sanitize.Field(input.FirstName),
		LastName:  sanitize.Field(input.LastName),
		Email:     email,
		RoleID:    role.ID,
	}

	switch role.Name {
	case RolePrincipal, RoleTeacher:
		// No extra requirements.

	case RoleTeacherReferent:
		classID, _, err := s.requireClass(ctx, input.ClassID)
		if err != nil {
			return nil, err
		}
		account.ClassID = &classID

	case RoleCollegian:
		classID, level, err := s.requireClass(ctx, input.ClassID)
		if err != nil {
			return nil, err
		}
		account.ClassID = &classID

		languageID, err := s.requireLanguage(ctx, input.LanguageID, level)
		if err != nil {
			return nil, err
		}
		account.LanguageID = languageID

	default:
		return nil, errRoleNotHandled()
	}

	// 8. Hash and persist.
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}
	account.PasswordHash = hash

	if err := s.createByRole(ctx, role.Name, account); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating account: %w", err))
	}

	slog.Info("account registered",
		slog.Int64("account_id", account.ID),
		slog.String("role", role.Name),
		slog.String("email", account.Email),
	)

	// 9. Notify the new user by mail (principals excepted). The account is
	// already committed and is deliberately NOT rolled back on send failure;
	// the caller just learns the mail did not go out.
	if role.Name != RolePrincipal {
		body := mailer.WelcomeBody(account.FirstName, account.LastName, s.baseURL)
		if err := s.mail.SendMail(ctx, []string{account.Email}, mailer.WelcomeSubject, body); err != nil {
			slog.Warn("welcome mail failed",
				slog.Int64("account_id", account.ID),
				slog.Any("error", err),
			)
			return account, errNotificationFailed(err)
		}
	}

	return account, nil
}

// requireClass enforces the class selector: present, numeric, and existing.
// Returns the class id and its level.
func (s *authService) requireClass(ctx context.Context, raw string) (int64, string, error) {
	if raw == "" {
		return 0, "", errClassNotSelected()
	}
	classID, ok := parseID(raw)
	if !ok {
		return 0, "", errClassNotFound()
	}
	level, err := s.classes.FindClassLevelByID(ctx, classID)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return 0, "", errClassNotFound()
		}
		return 0, "", apperror.NewInternal(fmt.Errorf("resolving class: %w", err))
	}
	return classID, level, nil
}

// requireLanguage enforces the language selector for collegians. Entry-level
// classes carry no language requirement; a language given anyway is still
// validated and kept.
func (s *authService) requireLanguage(ctx context.Context, raw, level string) (*int64, error) {
	if raw == "" {
		if level == EntryLevel {
			return nil, nil
		}
		return nil, errLanguageNotSelected()
	}
	languageID, ok := parseID(raw)
	if !ok {
		return nil, errLanguageNotFound()
	}
	exists, err := s.languages.LanguageExists(ctx, languageID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("resolving language: %w", err))
	}
	if !exists {
		return nil, errLanguageNotFound()
	}
	return &languageID, nil
}

// createByRole dispatches the insert to the table matching the role.
func (s *authService) createByRole(ctx context.Context, roleName string, a *Account) error {
	switch roleName {
	case RolePrincipal:
		return s.accounts.CreatePrincipal(ctx, a)
	case RoleTeacher:
		return s.accounts.CreateTeacher(ctx, a)
	case RoleTeacherReferent:
		return s.accounts.CreateTeacherReferent(ctx, a)
	case RoleCollegian:
		return s.accounts.CreateCollegian(ctx, a)
	default:
		return fmt.Errorf("no table for role %q", roleName)
	}
}

// Login runs the login workflow: ordered checks, cross-table lookup with
// fixed precedence, argon2id verification, then session establishment.
//
// "No account" and "wrong password" stay distinct messages. That mirrors the
// behavior the front-end error handling was written against (the enumeration
// risk is accepted).
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *Session, error) {
	if input.Email == "" || input.Password == "" {
		return "", nil, errMissingLoginFields()
	}

	if !s.csrf.Validate(ctx, input.CSRFSessionID, input.CSRFToken) {
		return "", nil, errInvalidCSRF()
	}

	account, table, err := s.accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return "", nil, errAccountNotFound()
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("finding account: %w", err))
	}

	if !verifyPassword(input.Password, account.PasswordHash) {
		return "", nil, errInvalidPassword()
	}

	role, err := s.roles.FindRoleByID(ctx, account.RoleID)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return "", nil, errRoleNotHandled()
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("resolving role: %w", err))
	}
	switch role.Name {
	case RolePrincipal, RoleTeacher, RoleTeacherReferent, RoleCollegian:
		// Known role, proceed.
	default:
		return "", nil, errRoleNotHandled()
	}

	token, session, err := s.createSession(ctx, account, role.Name, input.CSRFToken)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	slog.Info("account logged in",
		slog.Int64("account_id", account.ID),
		slog.String("role", role.Name),
		slog.String("table", table),
	)

	return token, session, nil
}

// ValidateSession looks up a session token in Redis and returns the session
// data if it exists and hasn't expired.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	key := sessionKeyPrefix + token

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewUnauthorized("session expirée ou invalide")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	return &session, nil
}

// DestroySession removes a session from Redis, logging the user out. The
// whole record goes at once -- identity and CSRF token together.
func (s *authService) DestroySession(ctx context.Context, token string) error {
	key := sessionKeyPrefix + token

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}

	return nil
}

// createSession generates a random session token, stores the session record
// in Redis with the configured TTL, and returns the token. The CSRF token
// that authenticated this login is carried into the session unchanged (no
// rotation within a session).
func (s *authService) createSession(ctx context.Context, account *Account, roleName, csrfToken string) (string, *Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", nil, fmt.Errorf("generating session token: %w", err)
	}

	session := &Session{
		AccountID: account.ID,
		Role:      roleName,
		CSRFToken: csrfToken,
		CreatedAt: time.Now().UTC(),
	}
	// Collegians keep their class id in the session for lesson scoping.
	if roleName == RoleCollegian {
		session.ClassID = account.ClassID
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", nil, fmt.Errorf("marshaling session: %w", err)
	}

	key := sessionKeyPrefix + token
	if err := s.redis.Set(ctx, key, data, s.sessionTTL).Err(); err != nil {
		return "", nil, fmt.Errorf("storing session in Redis: %w", err)
	}

	return token, session, nil
}

// --- Helpers ---

// LandingRole maps an account's role to the role string the client routes
// on. Referents land in the same area as teachers, so both report
// "Professeur".
func LandingRole(roleName string) string {
	if roleName == RoleTeacherReferent {
		return RoleTeacher
	}
	return roleName
}

// parseID parses a positive numeric form id.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
