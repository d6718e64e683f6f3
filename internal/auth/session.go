package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie carrying the citizen session issued by the
// external OAuth gateway.
const SessionCookie = "sessionToken"

// ErrNoSession is returned when a request carries no citizen identity.
var ErrNoSession = errors.New("no session")

// Session is the identity the external OAuth collaborator hands us: the
// signed-in citizen's email plus a display name for provisioning.
type Session struct {
	Email string
	Name  string
}

// SessionVerifier extracts the authenticated citizen, if any, from an
// inbound request. OAuth provider flows, refresh and sign-out all live in
// the external gateway; this is the only capability the core consumes.
type SessionVerifier interface {
	Verify(r *http.Request) (*Session, error)
}

// JWTSessionVerifier verifies the HS256 session token minted by the OAuth
// gateway, carried as a cookie or bearer header.
type JWTSessionVerifier struct {
	secret []byte
}

// NewSessionVerifier creates a verifier sharing the gateway's secret.
func NewSessionVerifier(secret string) *JWTSessionVerifier {
	return &JWTSessionVerifier{secret: []byte(secret)}
}

// Verify returns the session identity or ErrNoSession when the request
// carries no credential. A credential that is present but unverifiable is
// ErrInvalidToken.
func (v *JWTSessionVerifier) Verify(r *http.Request) (*Session, error) {
	raw := sessionFromRequest(r)
	if raw == "" {
		return nil, ErrNoSession
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, ErrInvalidToken
	}
	name, _ := claims["name"].(string)

	return &Session{Email: email, Name: name}, nil
}

func sessionFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
