package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is a leveled logger. args are alternating key value pairs
// following msg, as in Info("login failed", "error", err). A trailing key
// with no value is logged on its own.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// PasswordAuthenticator hashes and verifies passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) bool
}

// AccountStore is the datastore contract the registry needs.
// FindByEmail returns a nil account and a nil error when nothing matches.
// Insert must be atomic per record and report a taken email as
// ErrDuplicateAccount.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Insert(ctx context.Context, account *Account) (*Account, error)
}

// TokenIssuer signs bearer tokens for an account
type TokenIssuer interface {
	Issue(accountID string, role Role) (string, error)
}

// TokenValidator validates tokens and extracts the identity they carry
type TokenValidator interface {
	Verify(tokenString string) (AuthenticatedIdentity, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthenticatedIdentity, error)

// Verify satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Verify(tokenString string) (AuthenticatedIdentity, error) {
	if f == nil {
		return AuthenticatedIdentity{}, ErrInvalidToken
	}
	return f(tokenString)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTH " + line(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] AUTH " + line(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTH " + line(msg, args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTH " + line(msg, args))
}

// line renders a message followed by key=value pairs
func line(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(msg, "\n"))
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	b.WriteString("\n")
	return b.String()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
