package auth

import (
	"context"
	"strings"
	"time"
)

// SignupResult is handed back after a successful registration
type SignupResult struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// LoginResult is handed back after a successful login
type LoginResult struct {
	Token   string  `json:"token"`
	Role    Role    `json:"role"`
	Profile Profile `json:"user"`
}

// Auther runs the signup, login, logout and introspect workflows
type Auther struct {
	registry     *AccountRegistry
	hasher       PasswordAuthenticator
	tokens       TokenIssuer
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(registry *AccountRegistry, tokens TokenIssuer) *Auther {
	return &Auther{
		registry:     registry,
		hasher:       BcryptHasher{},
		tokens:       tokens,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithPasswordVerifier replaces the bcrypt verifier used at login
func (s *Auther) WithPasswordVerifier(hasher PasswordAuthenticator) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// Signup registers the account and issues its first token
func (s *Auther) Signup(ctx context.Context, msg RegisterAccountMessage) (SignupResult, error) {
	account, err := s.registry.Register(ctx, msg)
	if err != nil {
		s.logger.Info("signup failed", "error", err)
		s.emitAuthEvent(ctx, ActivityEventSignupFailure, "", "", map[string]any{
			"error": err.Error(),
		})
		return SignupResult{}, err
	}

	token, err := s.tokens.Issue(account.ID.String(), account.Role)
	if err != nil {
		s.logger.Error("signup token issue error", "account_id", account.ID, "error", err)
		return SignupResult{}, AsInternal(err, "failed to issue token")
	}

	s.logger.Info("signup succeeded", "account_id", account.ID, "role", account.Role)
	s.emitAuthEvent(ctx, ActivityEventSignupSuccess, account.ID.String(), account.Role, nil)

	return SignupResult{Token: token, Role: account.Role}, nil
}

// Login checks the credentials and issues a token. An unknown email and a
// wrong password return the same ErrInvalidCredentials.
func (s *Auther) Login(ctx context.Context, email, password string) (LoginResult, error) {
	account, err := s.registry.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("login lookup error", "error", err)
		return LoginResult{}, err
	}

	// unknown emails still pay for a bcrypt compare
	hash := dummyPasswordHash()
	if account != nil {
		hash = account.PasswordHash
	}
	matched := s.hasher.VerifyPassword(password, hash)

	if account == nil || !matched {
		s.logger.Info("login failed", "error", ErrInvalidCredentials)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", "", map[string]any{
			"error": ErrInvalidCredentials.Error(),
		})
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID.String(), account.Role)
	if err != nil {
		s.logger.Error("login token issue error", "account_id", account.ID, "error", err)
		return LoginResult{}, AsInternal(err, "failed to issue token")
	}

	s.logger.Info("login succeeded", "account_id", account.ID, "role", account.Role)
	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, account.ID.String(), account.Role, nil)

	return LoginResult{
		Token:   token,
		Role:    account.Role,
		Profile: account.Profile(),
	}, nil
}

// Logout acknowledges the request. Tokens stay valid until they expire;
// the client is expected to discard its copy.
func (s *Auther) Logout(ctx context.Context, identity AuthenticatedIdentity) error {
	if identity.IsZero() {
		return ErrIdentityNotFound
	}
	s.emitAuthEvent(ctx, ActivityEventLogout, identity.ID, identity.Role, nil)
	return nil
}

// Introspect returns the identity attached by the gate unchanged
func (s *Auther) Introspect(identity AuthenticatedIdentity) AuthenticatedIdentity {
	return identity
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, accountID string, role Role, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		AccountID:  strings.TrimSpace(accountID),
		Role:       role,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err)
	}
}
