package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveAccessAdminsAlwaysFull(t *testing.T) {
	cases := []AccessRequest{
		{ResourceType: ResourceProject, ActorID: "u1", OwnerID: "u2"},
		{ResourceType: ResourcePortfolio},
		{ResourceType: ResourceType("task")},
		{},
		{ResourceType: ResourceProject, ActorID: "u1", ResourceID: "p1", ProjectGrants: []string{"p9"}},
	}
	for _, role := range []Role{RoleAdmin, RolePMOAdmin} {
		for _, req := range cases {
			req.Role = role
			assert.Equalf(t, Full, ResolveAccess(req), "role %s req %+v", role, req)
		}
	}
}

func TestResolveAccessPortfolioManager(t *testing.T) {
	tests := []struct {
		name string
		req  AccessRequest
		want AccessLevel
	}{
		{
			name: "own portfolio",
			req:  AccessRequest{ResourceType: ResourcePortfolio, ActorID: "u1", OwnerID: "u1", ResourceID: "pf1"},
			want: Full,
		},
		{
			name: "granted portfolio without ownership",
			req:  AccessRequest{ResourceType: ResourcePortfolio, ActorID: "u1", OwnerID: "u2", ResourceID: "pf1", PortfolioGrants: []string{"pf1"}},
			want: Full,
		},
		{
			name: "foreign portfolio",
			req:  AccessRequest{ResourceType: ResourcePortfolio, ActorID: "u1", OwnerID: "u2", ResourceID: "pf1"},
			want: ReadOnly,
		},
		{
			name: "own project capped at read-write",
			req:  AccessRequest{ResourceType: ResourceProject, ActorID: "u1", OwnerID: "u1", ResourceID: "p1"},
			want: ReadWrite,
		},
		{
			name: "granted project",
			req:  AccessRequest{ResourceType: ResourceProject, ActorID: "u1", OwnerID: "u2", ResourceID: "p1", ProjectGrants: []string{"p1"}},
			want: ReadWrite,
		},
		{
			name: "foreign project",
			req:  AccessRequest{ResourceType: ResourceProject, ActorID: "u1", OwnerID: "u2", ResourceID: "p1"},
			want: ReadOnly,
		},
		{
			name: "unknown resource type",
			req:  AccessRequest{ResourceType: ResourceType("task"), ActorID: "u1", OwnerID: "u1", ResourceID: "t1"},
			want: NoAccess,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Role = RolePortfolioManager
			assert.Equal(t, tc.want, ResolveAccess(tc.req))
		})
	}
}

func TestResolveAccessProjectManager(t *testing.T) {
	tests := []struct {
		name string
		req  AccessRequest
		want AccessLevel
	}{
		{
			name: "owner match",
			req:  AccessRequest{ResourceType: ResourceProject, ActorID: "u1", OwnerID: "u1"},
			want: Full,
		},
		{
			name: "grant match without ownership",
			req:  AccessRequest{ResourceType: ResourceProject, ActorID: "u1", OwnerID: "u2", ResourceID: "p7", ProjectGrants: []string{"p7"}},
			want: Full,
		},
		{
			name: "neither owner nor grant",
			req:  AccessRequest{ResourceType: ResourceProject, ActorID: "u1", OwnerID: "u2", ResourceID: "p7"},
			want: ReadOnly,
		},
		{
			name: "portfolio is always read-only",
			req:  AccessRequest{ResourceType: ResourcePortfolio, ActorID: "u1", OwnerID: "u1", ResourceID: "pf1", PortfolioGrants: []string{"pf1"}},
			want: ReadOnly,
		},
		{
			name: "unknown resource type",
			req:  AccessRequest{ResourceType: ResourceType("report"), ActorID: "u1"},
			want: NoAccess,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Role = RoleProjectManager
			assert.Equal(t, tc.want, ResolveAccess(tc.req))
		})
	}
}

func TestResolveAccessFinanceIsBlanketReadWrite(t *testing.T) {
	// Finance skips every per-instance check. Broader than portfolio_manager
	// on an unowned resource; the table is literal, not monotone.
	for _, rt := range []ResourceType{ResourcePortfolio, ResourceProject, ResourceType("budget"), ResourceType("")} {
		req := AccessRequest{Role: RoleFinance, ResourceType: rt, ActorID: "u1", OwnerID: "u2"}
		assert.Equalf(t, ReadWrite, ResolveAccess(req), "resource type %q", rt)
	}
}

func TestResolveAccessResourceRole(t *testing.T) {
	granted := AccessRequest{Role: RoleResource, ResourceType: ResourceProject, ActorID: "u1", ResourceID: "p1", ProjectGrants: []string{"p1", "p2"}}
	assert.Equal(t, ReadWrite, ResolveAccess(granted))

	ungranted := AccessRequest{Role: RoleResource, ResourceType: ResourceProject, ActorID: "u1", ResourceID: "p3", ProjectGrants: []string{"p1", "p2"}}
	assert.Equal(t, ReadOnly, ResolveAccess(ungranted))

	// Portfolio grants never apply to the resource role.
	portfolio := AccessRequest{Role: RoleResource, ResourceType: ResourcePortfolio, ActorID: "u1", ResourceID: "pf1", PortfolioGrants: []string{"pf1"}}
	assert.Equal(t, ReadOnly, ResolveAccess(portfolio))
}

func TestResolveAccessViewer(t *testing.T) {
	tests := []struct {
		name string
		req  AccessRequest
		want AccessLevel
	}{
		{
			name: "ungranted portfolio",
			req:  AccessRequest{ResourceType: ResourcePortfolio, ActorID: "u1", OwnerID: "u2", ResourceID: "pf1"},
			want: NoAccess,
		},
		{
			name: "granted portfolio",
			req:  AccessRequest{ResourceType: ResourcePortfolio, ActorID: "u1", ResourceID: "pf1", PortfolioGrants: []string{"pf1"}},
			want: ReadOnly,
		},
		{
			name: "granted project",
			req:  AccessRequest{ResourceType: ResourceProject, ActorID: "u1", ResourceID: "p1", ProjectGrants: []string{"p1"}},
			want: ReadOnly,
		},
		{
			name: "ownership alone grants nothing to viewers",
			req:  AccessRequest{ResourceType: ResourceProject, ActorID: "u1", OwnerID: "u1", ResourceID: "p1"},
			want: NoAccess,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Role = RoleViewer
			assert.Equal(t, tc.want, ResolveAccess(tc.req))
		})
	}
}

func TestResolveAccessEmptyOwnerNeverMatches(t *testing.T) {
	// An unset owner id must not match any actor, including an empty one.
	req := AccessRequest{Role: RoleProjectManager, ResourceType: ResourceProject, ActorID: "u1", OwnerID: "", ResourceID: "p1"}
	assert.Equal(t, ReadOnly, ResolveAccess(req))

	req.ActorID = ""
	assert.Equal(t, ReadOnly, ResolveAccess(req))
}

func TestResolveAccessUnknownRole(t *testing.T) {
	assert.Equal(t, NoAccess, ResolveAccess(AccessRequest{Role: Role("superuser"), ResourceType: ResourceProject, ActorID: "u1", OwnerID: "u1"}))
	assert.Equal(t, NoAccess, ResolveAccess(AccessRequest{}))
}

func TestResolveAccessNilGrantsAreEmpty(t *testing.T) {
	req := AccessRequest{Role: RoleViewer, ResourceType: ResourceProject, ActorID: "u1", ResourceID: "p1"}
	assert.Equal(t, NoAccess, ResolveAccess(req))
}

func TestAccessLevelOrdering(t *testing.T) {
	assert.True(t, Full.AtLeast(ReadWrite))
	assert.True(t, ReadWrite.AtLeast(ReadOnly))
	assert.True(t, ReadOnly.AtLeast(NoAccess))
	assert.False(t, ReadOnly.AtLeast(ReadWrite))
	assert.False(t, NoAccess.AtLeast(ReadOnly))
}

func TestAccessLevelString(t *testing.T) {
	assert.Equal(t, "full", Full.String())
	assert.Equal(t, "read_write", ReadWrite.String())
	assert.Equal(t, "read_only", ReadOnly.String())
	assert.Equal(t, "no_access", NoAccess.String())
}
