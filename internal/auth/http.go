// ABOUTME: HTTP authentication pipeline turning a bearer token into a Principal
// ABOUTME: Never rejects a request; rejection belongs to the AccessGate

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/taskgate/internal/apperr"
)

const bearerPrefix = "Bearer "

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Pipeline establishes the request's identity, if any.
type Pipeline struct {
	codec    TokenCodec
	resolver PrincipalResolver
	metrics  *Metrics
	logger   *slog.Logger
}

// NewPipeline creates a pipeline. metrics may be nil.
func NewPipeline(codec TokenCodec, resolver PrincipalResolver, metrics *Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		codec:    codec,
		resolver: resolver,
		metrics:  metrics,
		logger:   logger.With("component", "auth"),
	}
}

// Authenticate returns r with the resolved Principal attached, or r unchanged
// when no valid credential is offered.
func (p *Pipeline) Authenticate(r *http.Request) *http.Request {
	token, reason := extractBearerToken(r.Header.Get("Authorization"))
	if reason != "" {
		p.metrics.record(OutcomeAnonymous)
		return r
	}

	subject, err := p.codec.Verify(token)
	if err != nil {
		p.metrics.record(OutcomeInvalidToken)
		p.logger.Debug("bearer token rejected", "path", r.URL.Path, "error", errors.Unwrap(err))
		return r
	}

	principal, err := p.resolver.Resolve(r.Context(), subject)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknownPrincipal {
			p.metrics.record(OutcomeUnknownPrincipal)
			p.logger.Debug("token subject no longer exists", "path", r.URL.Path)
		} else {
			p.metrics.record(OutcomeResolveError)
			p.logger.Error("resolving principal", "path", r.URL.Path, "error", err)
		}
		return r
	}

	p.metrics.record(OutcomeAuthenticated)
	return r.WithContext(WithPrincipal(r.Context(), principal))
}
