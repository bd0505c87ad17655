package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/credential-auth/internal/application/auth"
	"github.com/baechuer/credential-auth/internal/domain"
	"github.com/baechuer/credential-auth/internal/infrastructure/memory"
	"github.com/baechuer/credential-auth/internal/infrastructure/security"
	"github.com/baechuer/credential-auth/internal/token"
	"github.com/baechuer/credential-auth/internal/transport/http/middleware"
	"github.com/baechuer/credential-auth/internal/transport/http/response"
)

// -------------------------
// Test wiring
// -------------------------

type testEnv struct {
	srv   http.Handler
	codec *token.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := token.NewCodec(token.Config{
		SigningKey: []byte(strings.Repeat("k", 64)),
		Issuer:     "credential-auth",
		Audience:   "credential-auth-clients",
		Lifetime:   time.Minute,
	})
	require.NoError(t, err)

	store := memory.NewCredentialStore(security.NewBcryptHasher(bcrypt.MinCost))
	svc := auth.NewService(store, codec, auth.Config{StoreTimeout: time.Second})
	h := NewAuthHandler(svc)

	r := chi.NewRouter()
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
	r.With(middleware.Auth(codec, response.WriteError)).Get("/api/auth/me", h.Me)

	return &testEnv{srv: r, codec: codec}
}

func (e *testEnv) do(t *testing.T, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.srv.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(out), rr.Body.String())
}

type authBody struct {
	Email    string `json:"email"`
	UserName string `json:"userName"`
	Token    string `json:"token"`
}

type errBody struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Meta    map[string]string `json:"meta"`
	} `json:"error"`
}

const aliceRegister = `{"username":"alice","email":"alice@example.com","password":"Password1!"}`

// -------------------------
// Register
// -------------------------

func TestRegister_Success_ReturnsTokenForNewUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/register", aliceRegister, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body authBody
	decodeBody(t, rr, &body)
	assert.Equal(t, "alice@example.com", body.Email)
	assert.Equal(t, "alice", body.UserName)

	claims, err := env.codec.Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.DisplayName)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, string(domain.RoleUser), claims.Role)
	assert.NotEmpty(t, claims.Subject)
}

func TestRegister_PolicyViolation_Returns400WithFieldReasons(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/register",
		`{"username":"alice","email":"not-an-email","password":"password"}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body errBody
	decodeBody(t, rr, &body)
	assert.Equal(t, domain.CodeValidationFailed, body.Error.Code)
	assert.Contains(t, body.Error.Meta, "email")
	assert.Contains(t, body.Error.Meta, "password")
}

func TestRegister_PasswordOverBcryptLimit_Returns400(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	pw := strings.Repeat("a", 70) + "1!!"
	rr := env.do(t, http.MethodPost, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"`+pw+`"}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

	var body errBody
	decodeBody(t, rr, &body)
	assert.Equal(t, domain.CodeValidationFailed, body.Error.Code)
	assert.Contains(t, body.Error.Meta["password"], "72 bytes")
}

func TestRegister_Duplicate_Returns409(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/auth/register", aliceRegister, nil).Code)

	rr := env.do(t, http.MethodPost, "/api/auth/register",
		`{"username":"ALICE","email":"other@example.com","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusConflict, rr.Code)

	var body errBody
	decodeBody(t, rr, &body)
	assert.Equal(t, domain.CodeCreateConflict, body.Error.Code)
}

func TestRegister_InvalidJSON_Returns400(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/register", `{"username":`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body errBody
	decodeBody(t, rr, &body)
	assert.Equal(t, domain.CodeInvalidJSON, body.Error.Code)
}

// -------------------------
// Login
// -------------------------

func TestLogin_ByUsernameAndEmail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/auth/register", aliceRegister, nil).Code)

	for _, id := range []string{"alice", "ALICE", "alice@example.com"} {
		rr := env.do(t, http.MethodPost, "/api/auth/login",
			`{"userName":"`+id+`","password":"Password1!"}`, nil)
		require.Equal(t, http.StatusOK, rr.Code, "identifier %s: %s", id, rr.Body.String())

		var body authBody
		decodeBody(t, rr, &body)
		assert.Equal(t, "alice", body.UserName)
		assert.Equal(t, "alice@example.com", body.Email)
		_, err := env.codec.Verify(body.Token)
		assert.NoError(t, err)
	}
}

func TestLogin_Failures_Return401WithDistinctMessages(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/auth/register", aliceRegister, nil).Code)

	cases := []struct {
		name, body, code, msg string
	}{
		{"unknown user", `{"userName":"bob","password":"Password1!"}`, domain.CodeUserNotFound, "Invalid Username or Mail"},
		{"wrong password", `{"userName":"alice","password":"Password2!"}`, domain.CodeWrongPassword, "Wrong Password"},
	}

	for _, tc := range cases {
		rr := env.do(t, http.MethodPost, "/api/auth/login", tc.body, nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code, tc.name)

		var body errBody
		decodeBody(t, rr, &body)
		assert.Equal(t, tc.code, body.Error.Code, tc.name)
		assert.Equal(t, tc.msg, body.Error.Message, tc.name)
	}
}

func TestLogin_MissingFields_Returns400(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/login", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body errBody
	decodeBody(t, rr, &body)
	assert.Contains(t, body.Error.Meta, "userName")
	assert.Contains(t, body.Error.Meta, "password")
}

// -------------------------
// Me
// -------------------------

func TestMe_WithIssuedToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/register", aliceRegister, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var reg authBody
	decodeBody(t, rr, &reg)

	rr = env.do(t, http.MethodGet, "/api/auth/me", "", map[string]string{"Authorization": "Bearer " + reg.Token})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var me map[string]string
	decodeBody(t, rr, &me)
	assert.Equal(t, "alice", me["userName"])
	assert.Equal(t, "User", me["role"])
	assert.NotEmpty(t, me["id"])
}

func TestMe_MissingOrBadToken_Returns401(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cases := map[string]map[string]string{
		domain.CodeTokenMissing:   nil,
		domain.CodeTokenMalformed: {"Authorization": "Bearer not.a.jwt"},
	}
	for code, hdr := range cases {
		rr := env.do(t, http.MethodGet, "/api/auth/me", "", hdr)
		require.Equal(t, http.StatusUnauthorized, rr.Code, code)

		var body errBody
		decodeBody(t, rr, &body)
		assert.Equal(t, code, body.Error.Code)
	}
}

func TestMe_WithoutAuthMiddleware_Returns401(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewAuthHandler(nil).Me(rr, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// -------------------------
// Service failures
// -------------------------

type failingService struct{ err error }

func (f failingService) Register(context.Context, auth.RegisterInput) (auth.Result, error) {
	return auth.Result{}, f.err
}

func (f failingService) Login(context.Context, auth.LoginInput) (auth.Result, error) {
	return auth.Result{}, f.err
}

func TestHandlers_MapServiceErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrCreateFailed(errors.New("disk full")), http.StatusInternalServerError},
		{domain.ErrRoleAssignFailed("User", errors.New("fk")), http.StatusInternalServerError},
		{domain.ErrStoreUnavailable(errors.New("timeout")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		h := NewAuthHandler(failingService{err: tc.err})

		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(aliceRegister)))
		assert.Equal(t, tc.status, rr.Code, "register %v", tc.err)

		rr = httptest.NewRecorder()
		h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"userName":"a","password":"b"}`)))
		assert.Equal(t, tc.status, rr.Code, "login %v", tc.err)
	}
}
