package auth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/evcraddock/rentwise/internal/apperr"
	"github.com/evcraddock/rentwise/internal/identity"
)

// PrincipalResolver maps a raw bearer token to the principal it belongs to.
type PrincipalResolver interface {
	Resolve(ctx context.Context, rawKey string) (identity.Principal, error)
}

// rateLimiter tracks failed API key attempts per IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// prune drops attempts older than the window and returns what remains.
// Callers must hold rl.mu.
func (rl *rateLimiter) prune(ip string) []time.Time {
	cutoff := rl.now().Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

// limited reports whether ip has used up its failed attempts for the window.
func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip)) >= rateLimitMaxFail
}

// recordFailure records a failed attempt.
func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.attempts[ip] = append(rl.prune(ip), rl.now())
}

// RequireAPIKey is middleware that validates Bearer token auth for /api/ routes
// and stores the resolved principal in the request context.
// Non-API routes pass through untouched.
// Returns 401 for missing/invalid keys, 429 for rate-limited IPs.
func RequireAPIKey(keys PrincipalResolver, next http.Handler) http.Handler {
	limiter := newRateLimiter()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if limiter.limited(ip) {
			writeAuthError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		key := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		p, err := keys.Resolve(r.Context(), key)
		if errors.Is(err, apperr.ErrUnauthenticated) {
			limiter.recordFailure(ip)
			writeAuthError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "resolving api key", "error", err)
			writeAuthError(w, http.StatusInternalServerError, "internal error")
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), p)))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeAuthError writes the same {"error": ...} body the API handlers use.
func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
