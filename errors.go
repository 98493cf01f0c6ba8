package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidRole      = "INVALID_ROLE"
	TextCodeDuplicateAccount = "DUPLICATE_ACCOUNT"
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeInvalidToken     = "INVALID_TOKEN"
	TextCodeMissingToken     = "MISSING_TOKEN"
	TextCodeValidation       = "VALIDATION_ERROR"
	TextCodeConfiguration    = "CONFIGURATION_ERROR"
	TextCodeHashingFailure   = "HASHING_FAILURE"
	TextCodeInternal         = "INTERNAL_ERROR"
	TextCodeEmptyPassword    = "EMPTY_PASSWORD"
	TextCodePasswordTooLong  = "PASSWORD_TOO_LONG"
	TextCodeIdentityNotFound = "IDENTITY_NOT_FOUND"
	TextCodeRoleNotAllowed   = "ROLE_NOT_ALLOWED"
)

// MessageInternal is the only message callers see for unexpected failures
const MessageInternal = "Internal server error"

// MessagePasswordTooLong is shared by the hasher and request validation
const MessagePasswordTooLong = "Password must be at most 72 bytes long"

// ErrInvalidRole is returned when a registration names a role outside the set
var ErrInvalidRole = errors.New("Invalid role", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidRole).
	WithCode(errors.CodeBadRequest)

// ErrDuplicateAccount is returned when the email is already registered
var ErrDuplicateAccount = errors.New("User already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
// Callers must not be able to tell the two apart.
var ErrInvalidCredentials = errors.New("Invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeBadRequest)

// ErrInvalidToken covers forged, malformed and expired tokens alike
var ErrInvalidToken = errors.New("Invalid or expired token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrMissingToken is returned when no bearer token can be extracted
var ErrMissingToken = errors.New("Not authorized, no token", errors.CategoryAuth).
	WithTextCode(TextCodeMissingToken).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrPasswordTooLong is returned when a password exceeds what bcrypt can hash
var ErrPasswordTooLong = errors.New(MessagePasswordTooLong, errors.CategoryValidation).
	WithTextCode(TextCodePasswordTooLong).
	WithCode(errors.CodeBadRequest)

// ErrIdentityNotFound is returned when a handler runs without an identity
// attached to the request, which means the gate was not mounted.
var ErrIdentityNotFound = errors.New("identity not found in request", errors.CategoryInternal).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeInternal)

// ErrRoleNotAllowed is returned by RequireRole for an authenticated caller
// whose role is not in the allowed set.
var ErrRoleNotAllowed = errors.New("Forbidden", errors.CategoryAuthz).
	WithTextCode(TextCodeRoleNotAllowed).
	WithCode(errors.CodeForbidden)

// NewConfigurationError reports a startup configuration problem
func NewConfigurationError(message string) *errors.Error {
	return errors.New(message, errors.CategoryInternal).
		WithTextCode(TextCodeConfiguration).
		WithCode(errors.CodeInternal)
}

// NewHashingFailure wraps an entropy or bcrypt failure
func NewHashingFailure(err error) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, "failed to hash password").
		WithTextCode(TextCodeHashingFailure).
		WithCode(errors.CodeInternal)
}

// FieldError describes a single failed field rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError builds a request validation error carrying field issues
func NewValidationError(fields ...FieldError) *errors.Error {
	return errors.New("Validation error", errors.CategoryValidation).
		WithTextCode(TextCodeValidation).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{
			"errors": fields,
		})
}

// AsInternal wraps anything that is not already a rich error so the
// boundary renders it as a generic failure.
func AsInternal(err error, message string) *errors.Error {
	if err == nil {
		return nil
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}
	return errors.Wrap(err, errors.CategoryInternal, message).
		WithTextCode(TextCodeInternal).
		WithCode(errors.CodeInternal)
}

// HasTextCode reports whether err is a rich error with the given text code
func HasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsTokenExpiredError will check for expired tokens reported by the jwt parser
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsDuplicateKeyError matches unique constraint violations from sqlite and
// postgres drivers, raw or already categorized as a conflict.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Category == errors.CategoryConflict {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
