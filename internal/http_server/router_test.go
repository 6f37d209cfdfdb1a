package httpserver_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/LucasTS-42034/Progint/internal/auth"
	httpserver "github.com/LucasTS-42034/Progint/internal/http_server"
	"github.com/LucasTS-42034/Progint/internal/lib/hasher"
	"github.com/LucasTS-42034/Progint/internal/lib/jwt"
	"github.com/LucasTS-42034/Progint/internal/storage/file"
	"github.com/LucasTS-42034/Progint/internal/storage/memory"
	"github.com/LucasTS-42034/Progint/internal/users"
)

const testSecret = "router-test-secret-0123456789"

type store interface {
	auth.UserSaver
	auth.UserProvider
	users.Repository
}

type server struct {
	t       *testing.T
	handler http.Handler
	clock   *time.Time
}

func newServer(t *testing.T, st store, opts ...auth.Option) *server {
	t.Helper()

	log := slog.New(slog.DiscardHandler)

	h, err := hasher.New(hasher.Params{Algorithm: hasher.Bcrypt, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	now := time.Now()
	s := &server{t: t, clock: &now}

	tokens, err := jwt.NewIssuer(testSecret, jwt.WithClock(func() time.Time { return *s.clock }))
	require.NoError(t, err)

	authService := auth.New(log, st, st, h, tokens, time.Hour, opts...)
	userService := users.New(log, st, nil)

	s.handler = httpserver.NewRouter(log, authService, userService, tokens)

	return s
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

type errorBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Code   string `json:"code"`
}

func (s *server) registerAndLogin(name, email, password string) string {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/register", "", map[string]string{"name": name, "email": email, "password": password})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	token := decode[struct {
		Token string `json:"token"`
	}](s.t, rec).Token
	require.NotEmpty(s.t, token)

	return token
}

func TestEndToEnd(t *testing.T) {
	backends := map[string]func(t *testing.T) store{
		"memory": func(*testing.T) store { return memory.New() },
		"file": func(t *testing.T) store {
			s, err := file.New(filepath.Join(t.TempDir(), "users.json"))
			require.NoError(t, err)
			return s
		},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newServer(t, newStore(t))

			rec := s.do(http.MethodPost, "/register", "", `{"name":"Ana","email":"ana@x.com","password":"s3cret"}`)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "password")
			assert.NotContains(t, rec.Body.String(), "s3cret")

			rec = s.do(http.MethodPost, "/login", "", `{"email":"ana@x.com","password":"s3cret"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			token := decode[map[string]any](t, rec)["token"].(string)
			require.NotEmpty(t, token)

			rec = s.do(http.MethodGet, "/", token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "password")

			list := decode[[]map[string]any](t, rec)
			require.Len(t, list, 1)
			assert.Equal(t, "Ana", list[0]["name"])
			assert.Equal(t, "ana@x.com", list[0]["email"])
			assert.Len(t, list[0], 3)

			rec = s.do(http.MethodGet, "/", "", nil)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthenticated", decode[errorBody](t, rec).Code)

			rec = s.do(http.MethodDelete, "/99999", token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, decode[map[string]any](t, rec)["message"], "not found")

			rec = s.do(http.MethodGet, "/", token, nil)
			assert.Len(t, decode[[]map[string]any](t, rec), 1)
		})
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newServer(t, memory.New())

	cases := map[string]string{
		"bad json":       `{"name":`,
		"missing name":   `{"email":"a@x.com","password":"p"}`,
		"blank name":     `{"name":"   ","email":"a@x.com","password":"p"}`,
		"bad email":      `{"name":"A","email":"nope","password":"p"}`,
		"empty password": `{"name":"A","email":"a@x.com","password":""}`,
		"long password":  `{"name":"A","email":"a@x.com","password":"` + strings.Repeat("x", 80) + `"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/register", "", body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			e := decode[errorBody](t, rec)
			assert.Equal(t, "Error", e.Status)
			assert.Equal(t, "invalid_request", e.Code)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	st := memory.New()
	s := newServer(t, st)

	body := map[string]string{"name": "Ana", "email": "ana@x.com", "password": "s3cret"}

	rec := s.do(http.MethodPost, "/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	body["email"] = "ANA@x.com"
	rec = s.do(http.MethodPost, "/register", "", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duplicate_email", decode[errorBody](t, rec).Code)

	all, err := st.Users(t.Context())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLogin_Errors(t *testing.T) {
	s := newServer(t, memory.New())
	s.registerAndLogin("Ana", "ana@x.com", "s3cret")

	rec := s.do(http.MethodPost, "/login", "", map[string]string{"email": "bob@x.com", "password": "s3cret"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Code)

	rec = s.do(http.MethodPost, "/login", "", map[string]string{"email": "ana@x.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode[errorBody](t, rec).Code)

	rec = s.do(http.MethodPost, "/login", "", map[string]string{"email": "ana@x.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_PasswordPastBcryptLimit(t *testing.T) {
	s := newServer(t, memory.New())

	password := strings.Repeat("p", 72)
	s.registerAndLogin("Ana", "ana@x.com", password)

	rec := s.do(http.MethodPost, "/login", "", map[string]string{"email": "ana@x.com", "password": password + "extra"})
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
	assert.Equal(t, "invalid_credentials", decode[errorBody](t, rec).Code)
}

func TestLogin_UnifiedErrors(t *testing.T) {
	s := newServer(t, memory.New(), auth.WithUnifiedLoginErrors(true))
	s.registerAndLogin("Ana", "ana@x.com", "s3cret")

	unknown := s.do(http.MethodPost, "/login", "", map[string]string{"email": "bob@x.com", "password": "s3cret"})
	wrong := s.do(http.MethodPost, "/login", "", map[string]string{"email": "ana@x.com", "password": "wrong"})

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestGate(t *testing.T) {
	s := newServer(t, memory.New())
	token := s.registerAndLogin("Ana", "ana@x.com", "s3cret")

	other, err := jwt.NewIssuer("some-other-secret-0123456789")
	require.NoError(t, err)
	foreign, err := other.Issue(1, "ana@x.com", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"no header", "", http.StatusUnauthorized, "unauthenticated"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "unauthenticated"},
		{"basic scheme", "Basic YW5hOnMzY3JldA==", http.StatusUnauthorized, "unauthenticated"},
		{"garbage token", "Bearer not-a-token", http.StatusForbidden, "forbidden"},
		{"foreign secret", "Bearer " + foreign, http.StatusForbidden, "forbidden"},
		{"tampered", "Bearer " + token[:len(token)-4] + "AAAA", http.StatusForbidden, "forbidden"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.code != "" {
				assert.Equal(t, tc.code, decode[errorBody](t, rec).Code)
			}
		})
	}
}

func TestGate_ExpiredToken(t *testing.T) {
	s := newServer(t, memory.New())
	token := s.registerAndLogin("Ana", "ana@x.com", "s3cret")

	*s.clock = s.clock.Add(2 * time.Hour)

	rec := s.do(http.MethodGet, "/", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_expired", decode[errorBody](t, rec).Code)

	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		rec = s.do(method, "/1", token, `{"name":"X"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, method)
	}
}

func TestUpdate(t *testing.T) {
	st := memory.New()
	s := newServer(t, st)
	token := s.registerAndLogin("Ana", "ana@x.com", "s3cret")

	ana, err := st.User(t.Context(), "ana@x.com")
	require.NoError(t, err)
	path := "/" + jsonNumber(ana.ID)

	rec := s.do(http.MethodPut, path, token, `{"name":"Ana Maria"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}](t, rec)
	assert.Equal(t, "user updated", body.Message)
	assert.Equal(t, "Ana Maria", body.User["name"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(http.MethodPut, path, token, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := st.User(t.Context(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)

	rec = s.do(http.MethodPut, "/99999", token, `{"name":"X"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Code)

	rec = s.do(http.MethodPut, "/abc", token, `{"name":"X"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPut, path, token, `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete(t *testing.T) {
	st := memory.New()
	s := newServer(t, st)
	token := s.registerAndLogin("Ana", "ana@x.com", "s3cret")

	ana, err := st.User(t.Context(), "ana@x.com")
	require.NoError(t, err)
	path := "/" + jsonNumber(ana.ID)

	rec := s.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user removed", decode[map[string]any](t, rec)["message"])

	rec = s.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user not found, nothing removed", decode[map[string]any](t, rec)["message"])

	rec = s.do(http.MethodDelete, "/abc", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Tokens stay valid until they expire, even for a removed account.
	rec = s.do(http.MethodGet, "/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]map[string]any](t, rec))
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newServer(t, memory.New())

	rec := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/no/such/route", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
