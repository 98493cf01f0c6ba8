package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// DefaultContextKey is the fiber Locals key the gate stores the identity under
const DefaultContextKey = "user"

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentity sets the authenticated identity in the given context
func WithIdentity(ctx context.Context, identity AuthenticatedIdentity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity in the context
func IdentityFromContext(ctx context.Context) (AuthenticatedIdentity, bool) {
	if ctx == nil {
		return AuthenticatedIdentity{}, false
	}
	raw, ok := ctx.Value(identityCtxKey).(AuthenticatedIdentity)
	return raw, ok
}

// IdentityFromFiber reads the identity the gate left in the request Locals.
// An empty key falls back to DefaultContextKey.
func IdentityFromFiber(c *fiber.Ctx, key string) (AuthenticatedIdentity, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	raw := c.Locals(key)
	if raw == nil {
		return IdentityFromContext(c.UserContext())
	}
	identity, ok := raw.(AuthenticatedIdentity)
	return identity, ok
}
