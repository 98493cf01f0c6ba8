package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiration is the lifetime of every issued token
const DefaultTokenExpiration = 30 * 24 * time.Hour

// JWTTokenService issues and verifies HS256 bearer tokens. The signing key
// is fixed at construction and only read afterwards.
type JWTTokenService struct {
	signingKey      []byte
	tokenExpiration time.Duration
	issuer          string
	audience        jwt.ClaimStrings
	now             func() time.Time
	logger          Logger
}

var (
	_ TokenIssuer    = (*JWTTokenService)(nil)
	_ TokenValidator = (*JWTTokenService)(nil)
)

// TokenServiceOption configures a JWTTokenService
type TokenServiceOption func(*JWTTokenService)

// WithTokenExpiration overrides the token lifetime
func WithTokenExpiration(d time.Duration) TokenServiceOption {
	return func(ts *JWTTokenService) {
		if d > 0 {
			ts.tokenExpiration = d
		}
	}
}

// WithIssuer sets the iss claim and requires it on verification
func WithIssuer(issuer string) TokenServiceOption {
	return func(ts *JWTTokenService) {
		ts.issuer = issuer
	}
}

// WithAudience sets the aud claim and requires it on verification
func WithAudience(audience ...string) TokenServiceOption {
	return func(ts *JWTTokenService) {
		if len(audience) > 0 {
			ts.audience = append(jwt.ClaimStrings(nil), audience...)
		}
	}
}

// WithClock replaces time.Now for both issuance and verification
func WithClock(now func() time.Time) TokenServiceOption {
	return func(ts *JWTTokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *JWTTokenService) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService creates a token service. A missing signing key is a
// configuration error: we never issue unsigned tokens.
func NewTokenService(signingKey []byte, opts ...TokenServiceOption) (*JWTTokenService, error) {
	if len(strings.TrimSpace(string(signingKey))) == 0 {
		return nil, NewConfigurationError("token signing key is required")
	}

	ts := &JWTTokenService{
		signingKey:      append([]byte(nil), signingKey...),
		tokenExpiration: DefaultTokenExpiration,
		now:             time.Now,
		logger:          defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// NewTokenServiceFromConfig builds the service from a Config
func NewTokenServiceFromConfig(cfg Config, logger Logger) (*JWTTokenService, error) {
	if cfg == nil {
		return nil, NewConfigurationError("auth config is required")
	}

	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		WithTokenExpiration(cfg.GetTokenExpiration()),
		WithIssuer(cfg.GetIssuer()),
		WithAudience(cfg.GetAudience()...),
		WithTokenLogger(logger),
	)
}

// Issue signs a token carrying the account id and role
func (ts *JWTTokenService) Issue(accountID string, role Role) (string, error) {
	if accountID == "" {
		return "", AsInternal(fmt.Errorf("empty account id"), "cannot issue a token without an account id")
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   accountID,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.tokenExpiration)),
		},
		UID:      accountID,
		UserRole: string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", AsInternal(err, "failed to sign JWT")
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the identity the token
// carries. Segments must be canonical base64url, so padding bits in the
// last character cannot be altered. Every failure collapses into
// ErrInvalidToken.
func (ts *JWTTokenService) Verify(tokenString string) (AuthenticatedIdentity, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience[0]))
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("token verification failed", "expired", IsTokenExpiredError(err), "error", err)
		return AuthenticatedIdentity{}, ErrInvalidToken
	}

	if !token.Valid {
		return AuthenticatedIdentity{}, ErrInvalidToken
	}

	identity, ok := claims.Identity()
	if !ok {
		ts.logger.Debug("token claims missing id or carrying an unknown role")
		return AuthenticatedIdentity{}, ErrInvalidToken
	}

	return identity, nil
}

// TokenExpiration returns the configured lifetime
func (ts *JWTTokenService) TokenExpiration() time.Duration {
	return ts.tokenExpiration
}
