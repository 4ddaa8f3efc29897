package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"jobsearch.app/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// authenticate resolves the bearer token to a principal. Each request either
// reaches next with the principal attached or is rejected, never both.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			respondError(w, r, err)
			return
		}
		principal, err := a.gate.Authenticate(r.Context(), token)
		if err != nil {
			respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireRole admits requests whose principal holds one of roles.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var principal *auth.Principal
			if p, ok := auth.PrincipalFromContext(r.Context()); ok {
				principal = &p
			}
			if err := auth.Authorize(principal, roles...); err != nil {
				respondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// protect wraps h in the auth gate and, when roles are given, the role gate.
func (a *API) protect(h http.HandlerFunc, roles ...auth.Role) http.Handler {
	var handler http.Handler = h
	if len(roles) > 0 {
		handler = RequireRole(roles...)(handler)
	}
	return a.authenticate(handler)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("missing bearer token: %w", auth.ErrUnauthenticated)
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", fmt.Errorf("invalid authorization scheme: %w", auth.ErrInvalidToken)
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", fmt.Errorf("missing bearer token: %w", auth.ErrUnauthenticated)
	}
	return token, nil
}

// principal returns the identity attached by authenticate.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}
