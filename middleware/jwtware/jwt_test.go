package jwtware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/precinctdesk/go-auth/middleware/jwtware"
)

type testIdentity struct {
	id   string
	role string
}

func (i testIdentity) GetID() string   { return i.id }
func (i testIdentity) GetRole() string { return i.role }

type ctxKey struct{}

var errBadToken = errors.New("bad token")

// validator accepts exactly one token
func validator(valid string, identity testIdentity) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(token string) (jwtware.Identity, error) {
		if token != valid {
			return nil, errBadToken
		}
		return identity, nil
	})
}

func newApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		identity, ok := c.Locals("user").(jwtware.Identity)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(identity.GetID() + ":" + identity.GetRole())
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, setup func(*http.Request)) (int, string) {
	t.Helper()
	return doRequestTo(t, app, "/protected", setup)
}

// doRequestTo sends a GET to target, which may carry a query string
func doRequestTo(t *testing.T, app *fiber.App, target string, setup func(*http.Request)) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if setup != nil {
		setup(req)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestJWTWare_BasicHeaderExtraction(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: validator("good-token", testIdentity{id: "u1", role: "officer"}),
	})

	status, body := doRequest(t, app, func(r *http.Request) {
		r.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "u1:officer", body)

	status, body = doRequest(t, app, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, jwtware.ErrJWTMissingOrMalformed.Error(), body)

	status, body = doRequest(t, app, func(r *http.Request) {
		r.Header.Set(fiber.HeaderAuthorization, "Bearer forged")
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", body)
}

func TestJWTWare_MalformedHeaders(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: validator("good-token", testIdentity{id: "u1", role: "officer"}),
	})

	for _, header := range []string{
		"good-token",
		"Bearer",
		"Bearer ",
		"Basic good-token",
		"Bearergood-token",
	} {
		t.Run(header, func(t *testing.T) {
			status, body := doRequest(t, app, func(r *http.Request) {
				r.Header.Set(fiber.HeaderAuthorization, header)
			})
			assert.Equal(t, fiber.StatusUnauthorized, status)
			assert.Equal(t, jwtware.ErrJWTMissingOrMalformed.Error(), body)
		})
	}
}

func TestJWTWare_SchemeIsCaseInsensitive(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: validator("good-token", testIdentity{id: "u1", role: "officer"}),
	})

	status, _ := doRequest(t, app, func(r *http.Request) {
		r.Header.Set(fiber.HeaderAuthorization, "bearer good-token")
	})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestJWTWare_QueryAndCookieLookup(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: validator("good-token", testIdentity{id: "u2", role: "investigator"}),
		TokenLookup:    "header:Authorization,query:auth_token,cookie:jwt",
	})

	status, body := doRequestTo(t, app, "/protected?auth_token=good-token", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "u2:investigator", body)

	status, _ = doRequestTo(t, app, "/protected?auth_token=other-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = doRequest(t, app, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "jwt", Value: "good-token"})
	})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestJWTWare_CustomErrorHandlerReceivesCause(t *testing.T) {
	var got error
	app := newApp(jwtware.Config{
		TokenValidator: validator("good-token", testIdentity{id: "u1", role: "officer"}),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			got = err
			return c.SendStatus(fiber.StatusTeapot)
		},
	})

	status, _ := doRequest(t, app, func(r *http.Request) {
		r.Header.Set(fiber.HeaderAuthorization, "Bearer forged")
	})
	assert.Equal(t, fiber.StatusTeapot, status)
	assert.ErrorIs(t, got, errBadToken)
}

func TestJWTWare_FilterSkipsValidation(t *testing.T) {
	app := fiber.New()
	app.Get("/protected", jwtware.New(jwtware.Config{
		TokenValidator: validator("good-token", testIdentity{}),
		Filter: func(c *fiber.Ctx) bool {
			return c.Query("skip") == "1"
		},
	}), func(c *fiber.Ctx) error {
		return c.SendString("open")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected?skip=1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTWare_ListenersAndContextEnricher(t *testing.T) {
	var seen []string
	app := fiber.New()
	app.Get("/protected", jwtware.New(jwtware.Config{
		TokenValidator: validator("good-token", testIdentity{id: "u1", role: "officer"}),
		ValidationListeners: []jwtware.ValidationListener{
			nil,
			func(c *fiber.Ctx, identity jwtware.Identity) error {
				seen = append(seen, identity.GetID())
				return nil
			},
		},
		ContextEnricher: func(ctx context.Context, identity jwtware.Identity) context.Context {
			return context.WithValue(ctx, ctxKey{}, identity.GetRole())
		},
	}), func(c *fiber.Ctx) error {
		role, _ := c.UserContext().Value(ctxKey{}).(string)
		return c.SendString(role)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "officer", string(body))
	assert.Equal(t, []string{"u1"}, seen)
}

func TestJWTWare_ListenerErrorRejects(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: validator("good-token", testIdentity{id: "u1", role: "officer"}),
		ValidationListeners: []jwtware.ValidationListener{
			func(c *fiber.Ctx, identity jwtware.Identity) error {
				return errors.New("listener says no")
			},
		},
	})

	status, _ := doRequest(t, app, func(r *http.Request) {
		r.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGetDefaultConfigPanicsWithoutValidator(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{})
	})
}

func TestGetExtractorsSkipsUnknownSources(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization,bogus:x,nocolon,cookie:jwt")
	assert.Len(t, extractors, 2)
}
