package middleware

import (
	"context"
	"net/http"

	"github.com/gatherbase/server/internal/api/respond"
	"github.com/gatherbase/server/internal/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticate validates the bearer token from the Authorization header and
// attaches the verified claims to the request context. Missing, malformed,
// expired, and wrongly-signed tokens all yield 401.
func Authenticate(manager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "Authentication required", err)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "Invalid or expired token", err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin denies requests whose verified claims do not carry the admin
// role. Must be composed after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			respond.Error(w, r, http.StatusUnauthorized, "Authentication required", auth.ErrMissingToken)
			return
		}
		if !auth.IsAdmin(claims.Role) {
			respond.Error(w, r, http.StatusForbidden, "Admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
