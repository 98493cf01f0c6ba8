package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/precinctdesk/go-auth/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// gateValidator exposes a TokenValidator to jwtware
type gateValidator struct {
	validator TokenValidator
}

func (g gateValidator) Validate(tokenString string) (jwtware.Identity, error) {
	identity, err := g.validator.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// ContextEnricherAdapter stores the identity in the standard context for
// handlers that only see context.Context.
func ContextEnricherAdapter(c context.Context, identity jwtware.Identity) context.Context {
	authIdentity, ok := identity.(AuthenticatedIdentity)
	if !ok {
		return c
	}
	return WithIdentity(c, authIdentity)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}

// NewGate builds the request gate. A missing or malformed header fails with
// ErrMissingToken and any verification failure with ErrInvalidToken. The
// gate does not look at roles. Listeners run after verification.
func NewGate(validator TokenValidator, cfg Config, logger Logger, listeners ...ValidationListener) fiber.Handler {
	logger = normalizeLogger(logger)

	gateCfg := jwtware.Config{
		TokenValidator:  gateValidator{validator: validator},
		ContextEnricher: ContextEnricherAdapter,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				logger.Debug("gate rejected request", "reason", "missing token", "path", c.Path())
				return ErrMissingToken
			}
			logger.Debug("gate rejected request", "reason", "invalid token", "path", c.Path())
			return ErrInvalidToken
		},
	}
	if cfg != nil {
		gateCfg.ContextKey = cfg.GetContextKey()
		gateCfg.TokenLookup = cfg.GetTokenLookup()
		gateCfg.AuthScheme = cfg.GetAuthScheme()
	}
	RegisterValidationListeners(&gateCfg, listeners...)

	return jwtware.New(gateCfg)
}

// RequireRole allows the request through only when the identity the gate
// attached has one of roles. It must be mounted after the gate.
func RequireRole(contextKey string, roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromFiber(c, contextKey)
		if !ok || identity.IsZero() {
			return ErrMissingToken
		}
		for _, r := range roles {
			if identity.Role == r {
				return c.Next()
			}
		}
		return ErrRoleNotAllowed
	}
}
