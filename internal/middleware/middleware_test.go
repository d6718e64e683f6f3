package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/complaint-server/internal/auth"
	"github.com/civicdesk/complaint-server/internal/models"
)

type fakeValidator struct {
	admin *models.Admin
	err   error
}

func (f *fakeValidator) Validate(_ context.Context, credential string) (*models.Admin, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.admin, nil
}

type fakeVerifier struct {
	session *auth.Session
	err     error
}

func (f *fakeVerifier) Verify(*http.Request) (*auth.Session, error) {
	return f.session, f.err
}

type fakeProvisioner struct {
	user *models.User
	err  error
}

func (f *fakeProvisioner) EnsureUser(_ context.Context, email, name string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func okHandler(t *testing.T, hit *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdminNoCredential(t *testing.T) {
	var hit bool
	gate := RequireAdmin(&fakeValidator{})(okHandler(t, &hit))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, hit)
}

func TestRequireAdminInvalidToken(t *testing.T) {
	var hit bool
	gate := RequireAdmin(&fakeValidator{err: auth.ErrInvalidToken})(okHandler(t, &hit))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	r.Header.Set("Authorization", "Bearer junk")

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
	assert.False(t, hit)
}

func TestRequireAdminUnknownAdmin(t *testing.T) {
	var hit bool
	gate := RequireAdmin(&fakeValidator{err: auth.ErrAdminNotFound})(okHandler(t, &hit))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	r.AddCookie(&http.Cookie{Name: auth.AdminCookie, Value: "orphaned"})

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin not found")
	assert.False(t, hit)
}

func TestRequireAdminPlacesAdminInContext(t *testing.T) {
	admin := &models.Admin{ID: uuid.New(), Name: "System Administrator", Email: "admin@city.gov"}

	var got *models.Admin
	gate := RequireAdmin(&fakeValidator{admin: admin})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = AdminFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	r.AddCookie(&http.Cookie{Name: auth.AdminCookie, Value: "valid"})

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, admin.ID, got.ID)
}

func TestRequireSessionNoIdentity(t *testing.T) {
	var hit bool
	gate := RequireSession(&fakeVerifier{err: auth.ErrNoSession}, &fakeProvisioner{})(okHandler(t, &hit))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/complaints", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, hit)
}

func TestRequireSessionProvisionsUser(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Asha", Email: "asha@example.com"}

	var got *models.User
	gate := RequireSession(
		&fakeVerifier{session: &auth.Session{Email: user.Email, Name: user.Name}},
		&fakeProvisioner{user: user},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/complaints", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
}

func TestRequireSessionProvisioningFailure(t *testing.T) {
	var hit bool
	gate := RequireSession(
		&fakeVerifier{session: &auth.Session{Email: "asha@example.com"}},
		&fakeProvisioner{err: errors.New("db down")},
	)(okHandler(t, &hit))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/complaints", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, hit)
}

func TestRateLimitBlocksAfterBudget(t *testing.T) {
	limited := RateLimit(3)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		limited.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	limited.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is unaffected.
	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.RemoteAddr = "10.0.0.2:1234"
	limited.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
}
