package auth

import (
	"net/http"
	"strings"

	"github.com/keystone-ppm/keystone/internal/platform/httpx"
	"github.com/keystone-ppm/keystone/internal/shared"
)

// BearerMiddleware verifies the Authorization header and stores the actor
// identity in the request context. Downstream permission checks and
// handlers read the identity from there and never touch the token again.
func BearerMiddleware(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			claims, err := tokens.ParseAccess(raw)
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), shared.Identity{
				UserID:   claims.Subject,
				TenantID: claims.TenantID,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
