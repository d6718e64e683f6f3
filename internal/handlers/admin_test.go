package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicdesk/complaint-server/internal/middleware"
	"github.com/civicdesk/complaint-server/internal/models"
	"github.com/civicdesk/complaint-server/internal/services"
)

type fakeAdminAuth struct {
	admin    *models.Admin
	password string
}

func (f *fakeAdminAuth) Authenticate(_ context.Context, email, password string) (*models.Admin, error) {
	if f.admin == nil || f.admin.Email != email || f.password != password {
		return nil, services.ErrInvalidCredentials
	}
	return f.admin, nil
}

type fakeTokens struct {
	token string
}

func (f *fakeTokens) Issue(*models.Admin) (string, error) { return f.token, nil }

func (f *fakeTokens) SetCookie(w http.ResponseWriter, credential string) {
	http.SetCookie(w, &http.Cookie{Name: "adminToken", Value: credential, HttpOnly: true})
}

// fakeAuthorities keeps authorities in memory, keyed by email.
type fakeAuthorities struct {
	byEmail map[string]*models.Authority
}

func newFakeAuthorities() *fakeAuthorities {
	return &fakeAuthorities{byEmail: make(map[string]*models.Authority)}
}

func (f *fakeAuthorities) Create(_ context.Context, req *models.CreateAuthorityRequest) (*models.Authority, error) {
	if _, ok := f.byEmail[req.Email]; ok {
		return nil, services.ErrDuplicateEmail
	}
	authority := &models.Authority{
		ID:         uuid.New(),
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if req.Phone != "" {
		phone := req.Phone
		authority.Phone = &phone
	}
	f.byEmail[req.Email] = authority
	return authority, nil
}

func (f *fakeAuthorities) List(context.Context) ([]models.AuthorityWithCount, error) {
	list := []models.AuthorityWithCount{}
	for _, a := range f.byEmail {
		list = append(list, models.AuthorityWithCount{Authority: *a})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func newAdminHandler(auth *fakeAdminAuth, authorities *fakeAuthorities) *AdminHandler {
	return NewAdminHandler(auth, &fakeTokens{token: "issued-token"}, authorities, zap.NewNop().Sugar())
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload)))
	return rec
}

func TestLoginSuccess(t *testing.T) {
	admin := &models.Admin{ID: uuid.New(), Name: "System Administrator", Email: "admin@city.gov"}
	h := newAdminHandler(&fakeAdminAuth{admin: admin, password: "swordfish"}, newFakeAuthorities())

	rec := postJSON(t, h.Login, "/api/admin/login", models.LoginRequest{
		Email:    "admin@city.gov",
		Password: "swordfish",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string              `json:"token"`
		Admin models.AdminProfile `json:"admin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "issued-token", body.Token)
	assert.Equal(t, admin.ID, body.Admin.ID)
	assert.Equal(t, admin.Email, body.Admin.Email)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "adminToken", cookies[0].Name)
	assert.Equal(t, "issued-token", cookies[0].Value)
}

func TestLoginWrongPassword(t *testing.T) {
	admin := &models.Admin{ID: uuid.New(), Email: "admin@city.gov"}
	h := newAdminHandler(&fakeAdminAuth{admin: admin, password: "swordfish"}, newFakeAuthorities())

	rec := postJSON(t, h.Login, "/api/admin/login", models.LoginRequest{
		Email:    "admin@city.gov",
		Password: "guess",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestLoginMissingFields(t *testing.T) {
	h := newAdminHandler(&fakeAdminAuth{}, newFakeAuthorities())

	rec := postJSON(t, h.Login, "/api/admin/login", models.LoginRequest{Email: "admin@city.gov"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "required")
}

func TestVerifyEchoesAdminProfile(t *testing.T) {
	admin := &models.Admin{ID: uuid.New(), Name: "System Administrator", Email: "admin@city.gov", Password: "hash"}
	h := newAdminHandler(&fakeAdminAuth{}, newFakeAuthorities())

	r := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	r = r.WithContext(middleware.ContextWithAdmin(r.Context(), admin))

	rec := httptest.NewRecorder()
	h.Verify(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), admin.Email)
	assert.NotContains(t, rec.Body.String(), "hash")
}

func TestCreateAuthority(t *testing.T) {
	h := newAdminHandler(&fakeAdminAuth{}, newFakeAuthorities())

	rec := postJSON(t, h.CreateAuthority, "/api/admin/authorities", models.CreateAuthorityRequest{
		Name:       "Roads Dept",
		Email:      "roads@city.gov",
		Department: "ROADS",
		Phone:      "555-0100",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var authority models.Authority
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &authority))
	assert.True(t, authority.IsActive)
	assert.Equal(t, "ROADS", authority.Department)
	require.NotNil(t, authority.Phone)
	assert.Equal(t, "555-0100", *authority.Phone)
}

func TestCreateAuthorityMissingDepartment(t *testing.T) {
	h := newAdminHandler(&fakeAdminAuth{}, newFakeAuthorities())

	rec := postJSON(t, h.CreateAuthority, "/api/admin/authorities", models.CreateAuthorityRequest{
		Name:  "Roads Dept",
		Email: "roads@city.gov",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAuthorityDuplicateEmail(t *testing.T) {
	authorities := newFakeAuthorities()
	h := newAdminHandler(&fakeAdminAuth{}, authorities)

	req := models.CreateAuthorityRequest{Name: "Roads Dept", Email: "roads@city.gov", Department: "ROADS"}
	require.Equal(t, http.StatusCreated, postJSON(t, h.CreateAuthority, "/api/admin/authorities", req).Code)

	rec := postJSON(t, h.CreateAuthority, "/api/admin/authorities", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
	assert.Len(t, authorities.byEmail, 1)
}

func TestListAuthorities(t *testing.T) {
	authorities := newFakeAuthorities()
	h := newAdminHandler(&fakeAdminAuth{}, authorities)

	for _, req := range []models.CreateAuthorityRequest{
		{Name: "Water Board", Email: "water@city.gov", Department: "WATER"},
		{Name: "Roads Dept", Email: "roads@city.gov", Department: "ROADS"},
	} {
		require.Equal(t, http.StatusCreated, postJSON(t, h.CreateAuthority, "/api/admin/authorities", req).Code)
	}

	rec := httptest.NewRecorder()
	h.ListAuthorities(rec, httptest.NewRequest(http.MethodGet, "/api/admin/authorities", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var list []models.AuthorityWithCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Roads Dept", list[0].Name)
	assert.Equal(t, "Water Board", list[1].Name)
}
