package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/benjoco/sitescope/internal/domain"
)

type ctxKey struct{}

// devUser is the acting account when no API keys are configured.
const devUser = domain.UserID("dev")

func readAuth(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if k := r.Header.Get("X-API-Key"); k != "" {
		return strings.TrimSpace(k)
	}
	return ""
}

// UserFrom returns the account resolved by RequireUser for this request.
func UserFrom(r *http.Request) domain.UserID {
	if u, ok := r.Context().Value(ctxKey{}).(domain.UserID); ok {
		return u
	}
	return devUser
}

// RequireUser maps the presented API key to its account and stores it
// on the request context. With no keys configured every request runs
// as a shared dev account (handy for local dev).
func RequireUser(keys map[string]domain.UserID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := keys[readAuth(r)]
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
