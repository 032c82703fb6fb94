package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keystone-ppm/keystone/internal/shared"
)

type denialRecorder struct {
	roles []string
}

func (d *denialRecorder) CountDenial(role string) {
	d.roles = append(d.roles, role)
}

func serveWith(t *testing.T, mw func(http.Handler) http.Handler, id *shared.Identity) *httptest.ResponseRecorder {
	t.Helper()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if id != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequirePermissionAllows(t *testing.T) {
	mw := Middleware{}
	rec := serveWith(t, mw.RequirePermission(PermViewProject), &shared.Identity{
		UserID: "u1", TenantID: "t1", Role: "viewer",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequirePermissionDenies(t *testing.T) {
	mw := Middleware{}
	rec := serveWith(t, mw.RequirePermission(PermDeleteProject), &shared.Identity{
		UserID: "u1", TenantID: "t1", Role: "viewer",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient permissions")
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	mw := Middleware{}
	rec := serveWith(t, mw.RequirePermission(PermViewProject), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAny(t *testing.T) {
	mw := Middleware{}

	// manage_users or invite_users: pmo_admin holds both, resource neither.
	rec := serveWith(t, mw.RequireAny(PermManageUsers, PermInviteUsers), &shared.Identity{Role: "pmo_admin"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serveWith(t, mw.RequireAny(PermManageUsers, PermInviteUsers), &shared.Identity{Role: "resource"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAll(t *testing.T) {
	mw := Middleware{}

	rec := serveWith(t, mw.RequireAll(PermViewProject, PermEnterTime), &shared.Identity{Role: "resource"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// viewer reads projects but cannot log time.
	rec = serveWith(t, mw.RequireAll(PermViewProject, PermEnterTime), &shared.Identity{Role: "viewer"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnknownRoleDenied(t *testing.T) {
	mw := Middleware{}
	rec := serveWith(t, mw.RequirePermission(PermViewProject), &shared.Identity{Role: "superuser"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDenialsCounted(t *testing.T) {
	recorder := &denialRecorder{}
	mw := Middleware{Denials: recorder}

	serveWith(t, mw.RequirePermission(PermDeleteProject), &shared.Identity{Role: "viewer"})
	serveWith(t, mw.RequirePermission(PermViewProject), &shared.Identity{Role: "viewer"})

	assert.Equal(t, []string{"viewer"}, recorder.roles)
}
