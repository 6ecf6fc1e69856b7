package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// csrfKeyPrefix is the Redis key prefix for pre-auth CSRF tokens. These
// cover the login and registration forms, where no authenticated session
// exists yet; once logged in, the token inside the session record takes over
// but keeps the same value for the lifetime of the CSRF session.
const csrfKeyPrefix = "csrf:"

// csrfTokenBytes is the number of random bytes in a CSRF token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const csrfTokenBytes = 32

// CSRFService issues and validates per-session anti-forgery tokens. The
// token is stored server-side only; forms carry a copy that must match.
//
// Tokens are NOT rotated or expired within a CSRF session. That is a known
// limitation of the security contract this application was built around;
// changing it would invalidate open forms mid-session.
type CSRFService struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCSRFService creates a CSRF token service backed by Redis. ttl bounds
// how long an idle pre-auth form stays submittable.
func NewCSRFService(rdb *redis.Client, ttl time.Duration) *CSRFService {
	return &CSRFService{redis: rdb, ttl: ttl}
}

// Issue returns the current token for the CSRF session id, generating and
// storing a fresh one if none exists yet. Re-issuing refreshes the TTL so a
// form left open on an active session does not go stale.
func (s *CSRFService) Issue(ctx context.Context, sid string) (string, error) {
	key := csrfKeyPrefix + sid

	token, err := s.redis.Get(ctx, key).Result()
	if err == nil && token != "" {
		if err := s.redis.Expire(ctx, key, s.ttl).Err(); err != nil {
			return "", fmt.Errorf("refreshing csrf token ttl: %w", err)
		}
		return token, nil
	}
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("reading csrf token: %w", err)
	}

	token, err = generateToken()
	if err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}

	if err := s.redis.Set(ctx, key, token, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing csrf token: %w", err)
	}

	return token, nil
}

// Validate reports whether candidate matches the stored token for the CSRF
// session id. Comparison is constant time. Any absence, emptiness, or store
// failure counts as a mismatch, never an error: a broken Redis must fail
// closed here.
func (s *CSRFService) Validate(ctx context.Context, sid, candidate string) bool {
	if sid == "" || candidate == "" {
		return false
	}

	stored, err := s.redis.Get(ctx, csrfKeyPrefix+sid).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("csrf token lookup failed", slog.Any("error", err))
		}
		return false
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// generateToken creates a cryptographically random hex-encoded token.
func generateToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
