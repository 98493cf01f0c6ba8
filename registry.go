package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// RegisterAccountMessage carries the fields of a new account as received.
// Password is plaintext and is never stored.
type RegisterAccountMessage struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// AccountRegistry creates accounts with a whitelisted role and a unique email
type AccountRegistry struct {
	store     AccountStore
	hasher    PasswordAuthenticator
	logger    Logger
	timeout   time.Duration
	hashedIDs bool
}

// RegistryOption configures an AccountRegistry
type RegistryOption func(*AccountRegistry)

// WithRegistryLogger sets the logger
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *AccountRegistry) {
		r.logger = normalizeLogger(logger)
	}
}

// WithPasswordHasher replaces the bcrypt hasher
func WithPasswordHasher(hasher PasswordAuthenticator) RegistryOption {
	return func(r *AccountRegistry) {
		if hasher != nil {
			r.hasher = hasher
		}
	}
}

// WithHashedIDs derives account ids from the email instead of a random uuid
func WithHashedIDs(enabled bool) RegistryOption {
	return func(r *AccountRegistry) {
		r.hashedIDs = enabled
	}
}

// DefaultRegistryTimeout bounds a registration when no timeout is set
const DefaultRegistryTimeout = 10 * time.Second

// WithRegistryTimeout bounds a single registration
func WithRegistryTimeout(d time.Duration) RegistryOption {
	return func(r *AccountRegistry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewAccountRegistry(store AccountStore, opts ...RegistryOption) *AccountRegistry {
	r := &AccountRegistry{
		store:   store,
		hasher:  BcryptHasher{},
		logger:  defLogger{},
		timeout: DefaultRegistryTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register validates the role, rejects a taken email, hashes the password
// and persists the account. Nothing is written when any check fails.
func (r *AccountRegistry) Register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	role, ok := ParseRole(msg.Role)
	if !ok {
		r.logger.Debug("registration rejected", "reason", "invalid role", "role", msg.Role)
		return nil, ErrInvalidRole
	}

	email := strings.TrimSpace(msg.Email)

	existing, err := r.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, AsInternal(err, "failed to look up account")
	}
	if existing != nil {
		r.logger.Debug("registration rejected", "reason", "duplicate email")
		return nil, ErrDuplicateAccount
	}

	hash, err := r.hasher.HashPassword(msg.Password)
	if err != nil {
		return nil, AsInternal(err, "failed to hash password")
	}

	account := &Account{
		Name:         strings.TrimSpace(msg.Name),
		Email:        email,
		Mobile:       strings.TrimSpace(msg.Mobile),
		PasswordHash: hash,
		Role:         role,
	}

	if r.hashedIDs {
		if id, err := hashid.NewUUID(email); err == nil {
			account.ID = id
		}
	}

	created, err := r.store.Insert(ctx, account)
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) || IsDuplicateKeyError(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, AsInternal(err, "failed to create account")
	}

	return created, nil
}

// FindByEmail returns nil, nil when no account matches
func (r *AccountRegistry) FindByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := r.store.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, AsInternal(err, "failed to look up account")
	}
	return account, nil
}
