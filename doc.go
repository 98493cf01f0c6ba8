// Package auth provides account signup, credential login and bearer token
// verification for a two-role application (officers and investigators).
//
// Accounts:
//   - AccountRegistry validates the role, rejects taken emails and stores a
//     bcrypt hash of the password. Storage sits behind AccountStore; the bun
//     backed implementation is NewAccountsRepository and its schema is
//     applied with Migrate.
//
// Tokens:
//   - JWTTokenService signs HS256 tokens carrying the account id and role and
//     expiring after 30 days. Verification reports every failure, tampered,
//     expired or malformed, as ErrInvalidToken.
//
// HTTP:
//   - HTTPController mounts /auth/signup, /auth/login, /auth/logout and
//     /auth/validate on a fiber router. NewGate guards routes with a bearer
//     token and RequireRole narrows them to a set of roles.
//
// Activity sinks:
//   - ActivitySink receives signup, login and logout events. Sinks run best
//     effort: errors are logged and never fail the request.
package auth
