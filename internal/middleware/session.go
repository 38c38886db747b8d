package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/subtech/mina-dashboard/internal/session"
)

type contextKey string

const ClaimsContextKey contextKey = "session_claims"

// GetClaims returns the claims attached by RequireSession. Opaque tokens
// yield an empty Claims value.
func GetClaims(ctx context.Context) (*session.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*session.Claims)
	return c, ok
}

func WithClaims(ctx context.Context, c *session.Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, c)
}

func writeJSONError(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// RequireSession answers 401 with a redirect hint unless the store holds a
// valid token.
func RequireSession(store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.HasValidToken(r.Context(), store) {
				writeJSONError(w, http.StatusUnauthorized, map[string]string{"error": "Sin autenticación", "redirect": "/"})
				return
			}
			claims, err := session.CurrentClaims(r.Context(), store)
			if err != nil {
				claims = &session.Claims{}
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin must run after RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		if !ok || !c.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
