// Package auth provides authentication and route-level authorization for taskgate.
//
// # Tokens
//
// Clients authenticate with a bearer JWT obtained from /api/auth/login.
// Tokens are signed with HS512 and carry sub (the user's email), iat and exp.
// By default the signing key is 512 random bits generated at startup, so a
// restart invalidates every outstanding token. Operators who need tokens to
// survive restarts set auth.jwt_secret (at least 32 bytes).
//
//	codec, err := NewProcessCodec()
//	token, err := codec.Issue("alice@example.com", time.Hour)
//	subject, err := codec.Verify(token)
//
// Every verification failure is reported as apperr.InvalidToken; callers
// cannot tell an expired token from a forged one.
//
// # Request Flow
//
// The AccessGate classifies each path. Public paths run without touching the
// Authorization header. Protected paths run the Pipeline, which verifies the
// token and resolves the subject to a Principal through the store. The
// Pipeline never rejects; if it leaves no Principal in the context, the gate
// answers 401 before any handler runs.
//
// Handlers read the identity with FromContext. The
// Principal lives only in the request context and is rebuilt from the store
// on every request, so role changes apply immediately.
package auth
