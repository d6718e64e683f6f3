// Package auth implements the two identity schemes of the platform: a
// signed expiring bearer credential for the admin, and verification of the
// session issued by the external OAuth gateway for citizens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/civicdesk/complaint-server/internal/models"
)

// AdminCookie is the cookie carrying the admin credential.
const AdminCookie = "adminToken"

// adminTokenTTL matches the cookie max-age; the claim set enforces it too,
// so a replayed cookie past its window is rejected server-side.
const adminTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned when a credential is absent of meaning:
// unparseable, unsigned, expired, or missing its subject.
var ErrInvalidToken = errors.New("invalid token")

// ErrAdminNotFound is returned when a well-formed credential names an admin
// that no longer exists.
var ErrAdminNotFound = errors.New("admin not found")

// AdminFinder resolves an admin id to its row.
type AdminFinder interface {
	AdminByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
}

// TokenService issues and validates admin bearer credentials as HS256 JWTs
// with the admin id as subject and a seven-day expiry.
type TokenService struct {
	secret []byte
	admins AdminFinder
	secure bool
	now    func() time.Time
}

// NewTokenService creates a token service. secure controls the Secure
// attribute on the credential cookie and should be true in production.
func NewTokenService(secret string, admins AdminFinder, secure bool) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		admins: admins,
		secure: secure,
		now:    time.Now,
	}
}

// Issue produces a signed credential for a verified admin identity.
func (s *TokenService) Issue(admin *models.Admin) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   admin.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenTTL)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// Validate decodes and verifies a credential and resolves the admin it
// names. Returns ErrInvalidToken for anything unverifiable and
// ErrAdminNotFound for a verified credential naming a missing row.
func (s *TokenService) Validate(ctx context.Context, credential string) (*models.Admin, error) {
	if credential == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}

	adminID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	admin, err := s.admins.AdminByID(ctx, adminID)
	if err != nil {
		return nil, ErrAdminNotFound
	}
	return admin, nil
}

// SetCookie writes the credential as an HTTP-only cookie alongside the JSON
// response, so both browser and API clients can authenticate.
func (s *TokenService) SetCookie(w http.ResponseWriter, credential string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookie,
		Value:    credential,
		Path:     "/",
		MaxAge:   int(adminTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
