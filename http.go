package auth

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// HTTPController exposes the workflows over fiber
type HTTPController struct {
	auther       *Auther
	gate         fiber.Handler
	logger       Logger
	contextKey   string
	mobileRegion string
	listeners    []ValidationListener
}

// HTTPOption configures an HTTPController
type HTTPOption func(*HTTPController)

// WithHTTPLogger sets the logger
func WithHTTPLogger(logger Logger) HTTPOption {
	return func(h *HTTPController) {
		h.logger = normalizeLogger(logger)
	}
}

// WithMobileRegion enables strict mobile validation for the region, e.g. "US"
func WithMobileRegion(region string) HTTPOption {
	return func(h *HTTPController) {
		h.mobileRegion = region
	}
}

// WithGateListeners runs listeners after each successful token check
func WithGateListeners(listeners ...ValidationListener) HTTPOption {
	return func(h *HTTPController) {
		h.listeners = append(h.listeners, listeners...)
	}
}

// NewHTTPController builds the controller and its gate. cfg may be nil, in
// which case the gate reads "Authorization: Bearer <token>".
func NewHTTPController(auther *Auther, validator TokenValidator, cfg Config, opts ...HTTPOption) *HTTPController {
	h := &HTTPController{
		auther:     auther,
		logger:     defLogger{},
		contextKey: DefaultContextKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if cfg != nil && cfg.GetContextKey() != "" {
		h.contextKey = cfg.GetContextKey()
	}

	h.gate = NewGate(validator, cfg, h.logger, h.listeners...)
	return h
}

// Gate returns the request gate so other routes can be protected with it
func (h *HTTPController) Gate() fiber.Handler {
	return h.gate
}

// ContextKey is where the gate stores the identity
func (h *HTTPController) ContextKey() string {
	return h.contextKey
}

// RegisterRoutes mounts the auth routes and the health check on r
func (h *HTTPController) RegisterRoutes(r fiber.Router) {
	r.Get("/healthz", h.Health)

	group := r.Group("/auth")
	group.Post("/signup", h.Signup)
	group.Post("/login", h.Login)
	group.Post("/logout", h.gate, h.Logout)
	group.Get("/validate", h.gate, h.Validate)
}

func (h *HTTPController) Signup(c *fiber.Ctx) error {
	payload := new(SignupPayload)
	if err := c.BodyParser(payload); err != nil {
		h.logger.Debug("signup parse payload", "error", err)
		return invalidBody()
	}

	if err := payload.Validate(h.mobileRegion); err != nil {
		return ToValidationError(err)
	}

	res, err := h.auther.Signup(c.UserContext(), payload.Message())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Signup Successful",
		"token":   res.Token,
		"role":    res.Role,
	})
}

func (h *HTTPController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)
	if err := c.BodyParser(payload); err != nil {
		h.logger.Debug("login parse payload", "error", err)
		return invalidBody()
	}

	if err := payload.Validate(); err != nil {
		return ToValidationError(err)
	}

	res, err := h.auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"token":   res.Token,
		"role":    res.Role,
		"user":    res.Profile,
	})
}

func (h *HTTPController) Logout(c *fiber.Ctx) error {
	identity, ok := IdentityFromFiber(c, h.contextKey)
	if !ok {
		return ErrIdentityNotFound
	}

	if err := h.auther.Logout(c.UserContext(), identity); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (h *HTTPController) Validate(c *fiber.Ctx) error {
	identity, ok := IdentityFromFiber(c, h.contextKey)
	if !ok {
		return ErrIdentityNotFound
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    h.auther.Introspect(identity),
	})
}

func (h *HTTPController) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

func invalidBody() error {
	return NewValidationError(FieldError{Field: "body", Message: "Invalid request body"})
}

// NewFiberApp returns a fiber app whose error handler renders auth errors
func NewFiberApp(logger Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "authd",
		DisableStartupMessage: true,
		ErrorHandler:          NewErrorHandler(logger),
	})
}

// NewErrorHandler renders every error as {success:false, message, errors?}.
// Internal failures are logged with their metadata and rendered with a
// generic message.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	logger = normalizeLogger(logger)
	return func(c *fiber.Ctx, err error) error {
		status, body := errorResponse(err)

		if status >= fiber.StatusInternalServerError {
			var meta any
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				meta = richErr.Metadata
			}
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
				"metadata", print.MaybePrettyJSON(meta),
			)
		} else {
			logger.Debug("request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
		}

		return c.Status(status).JSON(body)
	}
}

func errorResponse(err error) (int, fiber.Map) {
	internal := fiber.Map{"success": false, "message": MessageInternal}

	var fiberErr *fiber.Error
	if goerrors.As(err, &fiberErr) {
		if fiberErr.Code >= fiber.StatusInternalServerError {
			return fiberErr.Code, internal
		}
		return fiberErr.Code, fiber.Map{"success": false, "message": fiberErr.Message}
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError, internal
	}

	status := richErr.Code
	if status < fiber.StatusBadRequest || status >= fiber.StatusInternalServerError ||
		richErr.Category == goerrors.CategoryInternal {
		return fiber.StatusInternalServerError, internal
	}

	body := fiber.Map{"success": false, "message": richErr.Message}
	if fields, ok := richErr.Metadata["errors"]; ok {
		body["errors"] = fields
	}
	return status, body
}
