package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/precinctdesk/go-auth"
)

type httpFixture struct {
	app    *fiber.App
	store  *memoryStore
	tokens *auth.JWTTokenService
}

func newHTTPFixture(t *testing.T, opts ...auth.HTTPOption) httpFixture {
	t.Helper()
	store := newMemoryStore()
	tokens := newTokenService(t)
	auther := auth.NewAuthenticator(
		auth.NewAccountRegistry(store, auth.WithRegistryLogger(quietLogger{})),
		tokens,
	).WithLogger(quietLogger{})

	opts = append([]auth.HTTPOption{auth.WithHTTPLogger(quietLogger{})}, opts...)
	controller := auth.NewHTTPController(auther, tokens, nil, opts...)

	app := auth.NewFiberApp(quietLogger{})
	controller.RegisterRoutes(app)

	return httpFixture{app: app, store: store, tokens: tokens}
}

func (f httpFixture) do(t *testing.T, method, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func signupBody() map[string]any {
	return map[string]any{
		"name":     "Alice",
		"email":    "a@x.com",
		"mobile":   "5551234",
		"password": "secret1",
		"role":     "officer",
	}
}

func TestHTTPSignup(t *testing.T) {
	f := newHTTPFixture(t)

	resp, body := f.do(t, http.MethodPost, "/auth/signup", signupBody(), "")
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Signup Successful", body["message"])
	assert.Equal(t, "officer", body["role"])
	assert.NotEmpty(t, body["token"])

	resp, body = f.do(t, http.MethodPost, "/auth/signup", signupBody(), "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists", body["message"])
	assert.Equal(t, 1, f.store.inserts)
}

func TestHTTPSignupValidation(t *testing.T) {
	f := newHTTPFixture(t)

	payload := signupBody()
	payload["role"] = "admin"
	payload["password"] = "abc"

	resp, body := f.do(t, http.MethodPost, "/auth/signup", payload, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation error", body["message"])

	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, map[string]any{"field": "password", "message": "Password must be at least 6 characters long"}, errs[0])
	assert.Equal(t, map[string]any{"field": "role", "message": "Role must be either officer or investigator"}, errs[1])
	assert.Zero(t, f.store.inserts)
}

func TestHTTPSignupLongPassword(t *testing.T) {
	f := newHTTPFixture(t)

	payload := signupBody()
	payload["password"] = strings.Repeat("x", 80)

	resp, body := f.do(t, http.MethodPost, "/auth/signup", payload, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation error", body["message"])
	assert.Equal(t, []any{
		map[string]any{"field": "password", "message": "Password must be at most 72 bytes long"},
	}, body["errors"])
	assert.Zero(t, f.store.inserts)

	payload["password"] = strings.Repeat("x", auth.MaxPasswordBytes)
	resp, _ = f.do(t, http.MethodPost, "/auth/signup", payload, "")
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestHTTPSignupMalformedBody(t *testing.T) {
	f := newHTTPFixture(t)

	resp, body := f.do(t, http.MethodPost, "/auth/signup", "{not json", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation error", body["message"])
}

func TestHTTPSignupStrictMobile(t *testing.T) {
	f := newHTTPFixture(t, auth.WithMobileRegion("US"))

	resp, body := f.do(t, http.MethodPost, "/auth/signup", signupBody(), "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation error", body["message"])

	payload := signupBody()
	payload["mobile"] = "+1 650-253-0000"
	resp, _ = f.do(t, http.MethodPost, "/auth/signup", payload, "")
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestHTTPLogin(t *testing.T) {
	f := newHTTPFixture(t)
	f.do(t, http.MethodPost, "/auth/signup", signupBody(), "")

	resp, body := f.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email":    "a@x.com",
		"password": "secret1",
	}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "officer", body["role"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "officer", user["role"])
	assert.NotEmpty(t, user["id"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "password_hash")
}

func TestHTTPLoginFailuresShareBody(t *testing.T) {
	f := newHTTPFixture(t)
	f.do(t, http.MethodPost, "/auth/signup", signupBody(), "")

	unknownResp, unknownBody := f.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email":    "nobody@x.com",
		"password": "secret1",
	}, "")
	wrongResp, wrongBody := f.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email":    "a@x.com",
		"password": "wrong-password",
	}, "")

	assert.Equal(t, fiber.StatusBadRequest, unknownResp.StatusCode)
	assert.Equal(t, unknownResp.StatusCode, wrongResp.StatusCode)
	assert.Equal(t, unknownBody, wrongBody)
	assert.Equal(t, map[string]any{"success": false, "message": "Invalid email or password"}, wrongBody)
}

func TestHTTPLogoutAndValidate(t *testing.T) {
	f := newHTTPFixture(t)
	_, body := f.do(t, http.MethodPost, "/auth/signup", signupBody(), "")
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	resp, body := f.do(t, http.MethodGet, "/auth/validate", nil, token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	assert.Equal(t, "officer", user["role"])
	assert.NotEmpty(t, user["id"])

	resp, body = f.do(t, http.MethodPost, "/auth/logout", nil, token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"success": true, "message": "Logged out successfully"}, body)

	resp, _ = f.do(t, http.MethodGet, "/auth/validate", nil, token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "logout is stateless")

	resp, body = f.do(t, http.MethodPost, "/auth/logout", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authorized, no token", body["message"])
}

func TestHTTPHealth(t *testing.T) {
	f := newHTTPFixture(t)
	resp, body := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	app := auth.NewFiberApp(quietLogger{})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return auth.AsInternal(assert.AnError, "db exploded at 10.0.0.5")
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return assert.AnError
	})
	app.Get("/config", func(c *fiber.Ctx) error {
		return auth.NewConfigurationError("secret missing")
	})

	for _, path := range []string{"/boom", "/plain", "/config"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode, path)

		body := decodeBody(t, resp)
		assert.Equal(t, map[string]any{"success": false, "message": "Internal server error"}, body, path)
	}
}

func TestErrorHandlerFiberErrors(t *testing.T) {
	app := auth.NewFiberApp(quietLogger{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.True(t, strings.Contains(body["message"].(string), "/missing"))
}
