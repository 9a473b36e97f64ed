package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const (
	tokenKey contextKey = "bearer_token"
	userKey  contextKey = "basic_user"
)

// BearerMiddleware requires an "Authorization: Bearer <token>" header.
// If token is empty any bearer value is accepted; otherwise it must match.
func BearerMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, prefix) {
				Unauthorized(w, "Bearer")
				return
			}
			bearerValue := strings.TrimSpace(authHeader[len(prefix):])
			if bearerValue == "" || (token != "" && !equal(bearerValue, token)) {
				Unauthorized(w, "Bearer")
				return
			}
			ctx := context.WithValue(r.Context(), tokenKey, bearerValue)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BasicAuthMiddleware takes the expected credentials from the {user} and
// {passwd} URL parameters and checks them against the request's basic auth.
func BasicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantUser := chi.URLParam(r, "user")
		wantPass := chi.URLParam(r, "passwd")
		if wantUser == "" {
			BadRequest(w, "user is required")
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !equal(user, wantUser) || !equal(pass, wantPass) {
			Unauthorized(w, `Basic realm="Fake Realm"`)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetToken retrieves the bearer token stored by BearerMiddleware.
func GetToken(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

// GetUser retrieves the user stored by BasicAuthMiddleware.
func GetUser(ctx context.Context) string {
	v, _ := ctx.Value(userKey).(string)
	return v
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
