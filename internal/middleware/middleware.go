// Package middleware provides HTTP middleware: request logging, security
// headers, rate limiting, and the two authorization gates.
package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/complaint-server/internal/auth"
	"github.com/civicdesk/complaint-server/internal/models"
)

// StructuredLogger returns a middleware that logs HTTP requests with zap
func StructuredLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.statusCode),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", r.Header.Get("X-Request-ID")),
			)
		})
	}
}

// SecurityHeaders sets baseline hardening headers on every response.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit implements a simple in-memory rate limiter using a sliding
// window keyed by client IP.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	type client struct {
		count    int
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	// Cleanup stale entries every 5 minutes
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > 2*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			mu.Lock()
			c, exists := clients[key]
			if !exists {
				clients[key] = &client{count: 1, lastSeen: time.Now()}
				mu.Unlock()
				next.ServeHTTP(w, r)
				return
			}

			if time.Since(c.lastSeen) > time.Minute {
				c.count = 1
				c.lastSeen = time.Now()
			} else {
				c.count++
			}

			if c.count > requestsPerMinute {
				mu.Unlock()
				http.Error(w, `{"error": "Rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}

// AdminValidator validates an admin credential and resolves its admin.
type AdminValidator interface {
	Validate(ctx context.Context, credential string) (*models.Admin, error)
}

// UserProvisioner upserts the citizen account behind a verified session.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, email, name string) (*models.User, error)
}

// RequireAdmin is the single authorization checkpoint for admin-scoped
// routes. Every admin operation except login mounts it, so no endpoint can
// skip the check. The resolved admin is placed in the request context.
func RequireAdmin(tokens AdminValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := adminCredential(r)
			if credential == "" {
				http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
				return
			}

			admin, err := tokens.Validate(r.Context(), credential)
			if err != nil {
				message := `{"error": "Invalid token"}`
				if errors.Is(err, auth.ErrAdminNotFound) {
					message = `{"error": "Admin not found"}`
				}
				http.Error(w, message, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithAdmin(r.Context(), admin)))
		})
	}
}

// RequireSession is the authorization checkpoint for citizen-scoped routes.
// It verifies the session issued by the external OAuth gateway and
// provisions the User row on first authenticated request.
func RequireSession(sessions auth.SessionVerifier, users UserProvisioner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessions.Verify(r)
			if err != nil {
				http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.EnsureUser(r.Context(), session.Email, session.Name)
			if err != nil {
				http.Error(w, `{"error": "Internal server error"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

type adminKey struct{}
type userKey struct{}

// ContextWithAdmin attaches a resolved admin identity to the context.
func ContextWithAdmin(ctx context.Context, admin *models.Admin) context.Context {
	return context.WithValue(ctx, adminKey{}, admin)
}

// ContextWithUser attaches a resolved citizen identity to the context.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// AdminFromContext returns the admin resolved by RequireAdmin.
func AdminFromContext(ctx context.Context) (*models.Admin, bool) {
	admin, ok := ctx.Value(adminKey{}).(*models.Admin)
	return admin, ok
}

// UserFromContext returns the citizen resolved by RequireSession.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey{}).(*models.User)
	return user, ok
}

// adminCredential pulls the admin token from the cookie set at login or,
// for API clients, the Authorization header.
func adminCredential(r *http.Request) string {
	if cookie, err := r.Cookie(auth.AdminCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
