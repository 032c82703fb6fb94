package authz

import (
	"log/slog"
	"net/http"

	"github.com/keystone-ppm/keystone/internal/platform/httpx"
	"github.com/keystone-ppm/keystone/internal/shared"
)

// Middleware wires coarse permission checks into HTTP handlers. It gates
// category-level operations only; instance-level operations additionally
// consult ResolveAccess inside the handler with the record's ownership facts.
type Middleware struct {
	Logger *slog.Logger
	// Denials, when set, counts refused checks (per role) for metrics.
	Denials DenialCounter
}

// DenialCounter receives one tick per refused permission check.
type DenialCounter interface {
	CountDenial(role string)
}

// RequireAny allows the request through when the actor's role holds at
// least one of the permissions. Missing identity yields 401, missing
// permission 403.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if HasAny(Role(id.Role), perms...) {
				next.ServeHTTP(w, r)
				return
			}
			m.logDenied(r, id, perms)
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}

// RequireAll allows the request through only when the actor's role holds
// every permission.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if HasAll(Role(id.Role), perms...) {
				next.ServeHTTP(w, r)
				return
			}
			m.logDenied(r, id, perms)
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}

// RequirePermission is shorthand for a single-permission gate.
func (m Middleware) RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return m.RequireAny(perm)
}

func (m Middleware) logDenied(r *http.Request, id shared.Identity, perms []Permission) {
	if m.Denials != nil {
		m.Denials.CountDenial(id.Role)
	}
	if m.Logger == nil {
		return
	}
	m.Logger.Warn("permission denied",
		slog.String("path", r.URL.Path),
		slog.String("user_id", id.UserID),
		slog.String("tenant_id", id.TenantID),
		slog.String("role", id.Role),
		slog.Any("required", perms),
	)
}
