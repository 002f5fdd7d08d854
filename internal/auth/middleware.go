package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// Middleware enforces bearer-token authentication and method-based scopes.
type Middleware struct {
	Config  Config
	Skipper Skipper
}

// NewMiddleware constructs a middleware with optional skipper.
func NewMiddleware(cfg Config, skipper Skipper) Middleware {
	return Middleware{Config: cfg, Skipper: skipper}
}

// PublicPaths skips authentication for the landing page, static assets, health and metrics.
func PublicPaths(r *http.Request) bool {
	path := r.URL.Path
	return path == "/" || path == "/healthz" || path == "/metrics" || strings.HasPrefix(path, "/public/")
}

// Wrap wraps an http.Handler with authentication. Safe methods need exercises:read, everything else exercises:write.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || (m.Skipper != nil && m.Skipper(r)) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			token = ""
		}

		claims, err := Parse(token, m.Config)
		if err != nil {
			message := "invalid bearer token"
			if errors.Is(err, ErrMissingToken) {
				message = "missing bearer token"
			}
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", message)
			return
		}

		required := ScopeExercisesWrite
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			required = ScopeExercisesRead
		}
		if !claims.HasScope(required) && !claims.HasScope(ScopeExercisesWrite) {
			writeAuthError(w, http.StatusForbidden, "forbidden", "scope "+required+" required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"type": code, "message": message})
}
