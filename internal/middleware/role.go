package middleware

import (
	"context"
	"net/http"

	"modaflow/internal/domain"
)

type roleContextKey struct{}

// Role reads the X-Role header into the request context. Missing or unknown
// values become domain.RoleNone.
func Role(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := domain.ParseRole(r.Header.Get("X-Role"))
		next.ServeHTTP(w, r.WithContext(ContextWithRole(r.Context(), role)))
	})
}

// RequireRole rejects requests whose role is not one of allowed. The deny
// handler writes the response.
func RequireRole(deny http.HandlerFunc, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			for _, a := range allowed {
				if role == a {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, r)
		})
	}
}

func RoleFromContext(ctx context.Context) domain.Role {
	if v, ok := ctx.Value(roleContextKey{}).(domain.Role); ok {
		return v
	}
	return domain.RoleNone
}

func ContextWithRole(ctx context.Context, role domain.Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}
