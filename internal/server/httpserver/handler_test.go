package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/dmitrijs2005/financa/internal/common"
	"github.com/dmitrijs2005/financa/internal/logging"
	"github.com/dmitrijs2005/financa/internal/server/auth"
	"github.com/dmitrijs2005/financa/internal/server/models"
	"github.com/dmitrijs2005/financa/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// ---- fakes ----

type fakeUsers struct {
	createIn  services.CreateUserInput
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
	getID  int64

	updateID  int64
	updateIn  services.UpdateUserInput
	updateErr error

	deleteErr error

	loginOut *services.LoginResult
	loginErr error
}

func (f *fakeUsers) Create(ctx context.Context, in services.CreateUserInput) (*models.User, error) {
	f.createIn = in
	return f.createOut, f.createErr
}

func (f *fakeUsers) Get(ctx context.Context, id int64) (*models.User, error) {
	f.getID = id
	return f.getOut, f.getErr
}

func (f *fakeUsers) Update(ctx context.Context, id int64, in services.UpdateUserInput) (*models.User, error) {
	f.updateID = id
	f.updateIn = in
	return nil, f.updateErr
}

func (f *fakeUsers) Delete(ctx context.Context, id int64) error { return f.deleteErr }

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	return f.loginOut, f.loginErr
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f fakeVerifier) Parse(string) (*auth.Claims, error) { return f.claims, f.err }

// ---- helpers ----

func newServer(us UserService) *Server {
	return NewServer("127.0.0.1:0", logging.Nop{}, us, fakeVerifier{err: common.ErrInvalidToken})
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Error
}

var ana = &models.User{ID: 7, Name: "Ana", Email: "ana@x.com", PasswordHash: "$2a$08$secret-hash"}

// ---- tests ----

func TestPing_OK(t *testing.T) {
	rec := do(t, newServer(&fakeUsers{}).Handler(), http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateUser_Created(t *testing.T) {
	f := &fakeUsers{createOut: ana}
	rec := do(t, newServer(f).Handler(), http.MethodPost, "/api/users",
		map[string]string{"name": "Ana", "email": "ana@x.com", "password": "secret123"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/users/7", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"id":7,"name":"Ana","email":"ana@x.com"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "hash")
	assert.Equal(t, services.CreateUserInput{Name: "Ana", Email: "ana@x.com", Password: "secret123"}, f.createIn)
}

func TestCreateUser_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "malformed json", body: `{"name":`},
		{name: "missing password", body: map[string]string{"name": "Ana", "email": "ana@x.com"}},
		{name: "bad email", body: map[string]string{"name": "Ana", "email": "nope", "password": "p"}},
		{name: "missing name", body: map[string]string{"email": "ana@x.com", "password": "p"}},
		{name: "password over bcrypt limit", body: map[string]string{"name": "Ana", "email": "ana@x.com", "password": strings.Repeat("p", 80)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeUsers{createOut: ana}
			rec := do(t, newServer(f).Handler(), http.MethodPost, "/api/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, f.createIn.Email, "service must not be called")
		})
	}
}

func TestCreateUser_ValidationMessageNamesField(t *testing.T) {
	rec := do(t, newServer(&fakeUsers{}).Handler(), http.MethodPost, "/api/users",
		map[string]string{"name": "Ana", "email": "ana@x.com"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation error: password: required", errorOf(t, rec))
}

func TestCreateUser_ServiceOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "duplicate", err: common.ErrorAlreadyExists, code: http.StatusConflict, message: "already exists"},
		{name: "validation", err: common.ErrorValidation, code: http.StatusBadRequest, message: "validation error"},
		{name: "internal", err: common.ErrorInternal, code: http.StatusInternalServerError, message: "internal error"},
		{name: "raw store error is redacted", err: errors.New("pq: relation users does not exist"), code: http.StatusInternalServerError, message: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newServer(&fakeUsers{createErr: tt.err}).Handler(), http.MethodPost, "/api/users",
				map[string]string{"name": "Ana", "email": "ana@x.com", "password": "p"})
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.message, errorOf(t, rec))
		})
	}
}

func TestGetUser(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := &fakeUsers{getOut: ana}
		rec := do(t, newServer(f).Handler(), http.MethodGet, "/api/users/7", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(7), f.getID)
		assert.JSONEq(t, `{"id":7,"name":"Ana","email":"ana@x.com"}`, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		rec := do(t, newServer(&fakeUsers{getErr: common.ErrorNotFound}).Handler(), http.MethodGet, "/api/users/8", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "user not found", errorOf(t, rec))
	})

	for _, bad := range []string{"abc", "0", "-3"} {
		t.Run("bad id "+bad, func(t *testing.T) {
			rec := do(t, newServer(&fakeUsers{}).Handler(), http.MethodGet, "/api/users/"+bad, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	t.Run("no content", func(t *testing.T) {
		f := &fakeUsers{}
		rec := do(t, newServer(f).Handler(), http.MethodPut, "/api/users/7",
			map[string]any{"id": 7, "name": "Ana B", "email": "anab@x.com", "password": ""})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(7), f.updateID)
		require.NotNil(t, f.updateIn.ID)
		assert.Equal(t, int64(7), *f.updateIn.ID)
		assert.Equal(t, "", f.updateIn.Password)
	})

	t.Run("id optional", func(t *testing.T) {
		f := &fakeUsers{}
		rec := do(t, newServer(f).Handler(), http.MethodPut, "/api/users/7",
			map[string]any{"name": "Ana", "email": "ana@x.com"})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Nil(t, f.updateIn.ID)
	})

	t.Run("not found", func(t *testing.T) {
		rec := do(t, newServer(&fakeUsers{updateErr: common.ErrorNotFound}).Handler(), http.MethodPut, "/api/users/7",
			map[string]any{"name": "Ana", "email": "ana@x.com"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("password over bcrypt limit", func(t *testing.T) {
		f := &fakeUsers{}
		rec := do(t, newServer(f).Handler(), http.MethodPut, "/api/users/7",
			map[string]any{"name": "Ana", "email": "ana@x.com", "password": strings.Repeat("p", 80)})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation error: password: max=72", errorOf(t, rec))
		assert.Zero(t, f.updateID, "service must not be called")
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := do(t, newServer(&fakeUsers{}).Handler(), http.MethodPut, "/api/users/7", map[string]any{"name": "Ana"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	rec := do(t, newServer(&fakeUsers{}).Handler(), http.MethodDelete, "/api/users/7", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, newServer(&fakeUsers{deleteErr: common.ErrorNotFound}).Handler(), http.MethodDelete, "/api/users/7", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := &fakeUsers{loginOut: &services.LoginResult{Token: "tok", User: ana.Public()}}
		rec := do(t, newServer(f).Handler(), http.MethodPost, "/api/users/login",
			map[string]string{"email": "ana@x.com", "password": "secret123"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"token":"tok","user":{"id":7,"name":"Ana","email":"ana@x.com"}}`, rec.Body.String())
	})

	t.Run("unauthorized", func(t *testing.T) {
		rec := do(t, newServer(&fakeUsers{loginErr: common.ErrorUnauthorized}).Handler(), http.MethodPost, "/api/users/login",
			map[string]string{"email": "ana@x.com", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid email or password", errorOf(t, rec))
	})

	t.Run("missing password", func(t *testing.T) {
		rec := do(t, newServer(&fakeUsers{}).Handler(), http.MethodPost, "/api/users/login",
			map[string]string{"email": "ana@x.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMe(t *testing.T) {
	claims := &auth.Claims{Email: "ana@x.com", Name: "Ana"}
	claims.Subject = "7"

	f := &fakeUsers{getOut: ana}
	s := NewServer("127.0.0.1:0", logging.Nop{}, f, fakeVerifier{claims: claims})

	rec := do(t, s.Handler(), http.MethodGet, "/api/users/me", nil, "Authorization", "Bearer anything")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), f.getID)
	assert.JSONEq(t, `{"id":7,"name":"Ana","email":"ana@x.com"}`, rec.Body.String())

	rec = do(t, s.Handler(), http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
