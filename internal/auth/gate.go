// ABOUTME: Access gate classifying routes as public or protected
// ABOUTME: Rejects anonymous requests to protected routes before handlers run

package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// Decision is the gate's route classification.
type Decision int

const (
	Protected Decision = iota
	Public
)

func (d Decision) String() string {
	if d == Public {
		return "public"
	}
	return "protected"
}

// DefaultPublicPatterns are reachable without a principal. A trailing "/**"
// matches the prefix and every path beneath it; anything else is exact.
var DefaultPublicPatterns = []string{
	"/api/auth/**",
	"/api/user/showAll",
	"/v3/api-docs",
	"/v3/api-docs/**",
	"/swagger-ui/**",
	"/webjars/**",
	"/swagger-ui.html",
}

// Authenticator establishes identity on a request without rejecting it.
type Authenticator interface {
	Authenticate(r *http.Request) *http.Request
}

// AccessGate makes the final allow/reject decision per request.
type AccessGate struct {
	authn    Authenticator
	exact    map[string]struct{}
	prefixes []string
	logger   *slog.Logger
}

// NewAccessGate compiles publicPatterns. The pattern set is fixed after construction.
func NewAccessGate(authn Authenticator, publicPatterns []string, logger *slog.Logger) *AccessGate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &AccessGate{
		authn:  authn,
		exact:  make(map[string]struct{}),
		logger: logger.With("component", "access_gate"),
	}
	for _, pattern := range publicPatterns {
		if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
			g.prefixes = append(g.prefixes, prefix)
			continue
		}
		g.exact[pattern] = struct{}{}
	}
	return g
}

// Classify reports whether path needs a principal.
func (g *AccessGate) Classify(path string) Decision {
	if _, ok := g.exact[path]; ok {
		return Public
	}
	for _, prefix := range g.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return Public
		}
	}
	return Protected
}

// Middleware lets public requests through untouched and requires a principal
// on everything else.
func (g *AccessGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Classify(r.URL.Path) == Public {
			next.ServeHTTP(w, r)
			return
		}

		r = g.authn.Authenticate(r)
		if FromContext(r.Context()) == nil {
			g.logger.Debug("rejected anonymous request", "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
