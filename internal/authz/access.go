package authz

// ResourceType identifies the kind of resource an access decision is about.
type ResourceType string

// Resource types the resolver understands. Anything else falls through to
// NoAccess for every role except admin and pmo_admin.
const (
	ResourcePortfolio ResourceType = "portfolio"
	ResourceProject   ResourceType = "project"
)

// AccessLevel is the graded outcome of a per-instance access decision.
// Levels are ordered: Full implies ReadWrite implies ReadOnly.
type AccessLevel int

const (
	NoAccess AccessLevel = iota
	ReadOnly
	ReadWrite
	Full
)

// String returns the wire name of the level.
func (l AccessLevel) String() string {
	switch l {
	case Full:
		return "full"
	case ReadWrite:
		return "read_write"
	case ReadOnly:
		return "read_only"
	default:
		return "no_access"
	}
}

// AtLeast reports whether the level grants at minimum the given level.
func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return l >= min
}

// AccessRequest carries the facts the resolver combines: the actor's role
// and identity, the resource being touched, its ownership, and the actor's
// explicit grant lists. Zero values mean "fact absent", which biases the
// decision toward the non-owner branch rather than erroring.
type AccessRequest struct {
	Role         Role
	ResourceType ResourceType
	ActorID      string
	ResourceID   string

	// OwnerID is the resource's manager id (portfolio_manager_id or
	// project_manager_id). Empty means ownership is unset and matches
	// no actor.
	OwnerID string

	// PortfolioGrants and ProjectGrants are the explicit access lists
	// carried on the acting user's record.
	PortfolioGrants []string
	ProjectGrants   []string
}

// ResolveAccess computes the graded access level for one resource instance.
// It is a total function: every input combination yields a level and the
// caller treats NoAccess as a hard deny.
//
// Priority order, first match wins:
//
//	admin, pmo_admin    -> Full, unconditionally
//	portfolio_manager   -> portfolio: Full on grant or ownership, else ReadOnly
//	                       project:   ReadWrite on grant or ownership, else ReadOnly
//	project_manager     -> project:   Full on grant or ownership, else ReadOnly
//	                       portfolio: ReadOnly
//	finance             -> ReadWrite for any resource type (no instance check;
//	                       intentionally broad, kept as shipped)
//	resource            -> project on grant: ReadWrite, else ReadOnly
//	viewer              -> ReadOnly on granted portfolio/project, else NoAccess
//	anything else       -> NoAccess
//
// Ownership and grant membership are alternatives: either alone suffices.
func ResolveAccess(req AccessRequest) AccessLevel {
	if req.Role == RoleAdmin || req.Role == RolePMOAdmin {
		return Full
	}

	granted := func(grants []string) bool {
		if req.ResourceID == "" {
			return false
		}
		for _, id := range grants {
			if id == req.ResourceID {
				return true
			}
		}
		return false
	}
	owns := req.OwnerID != "" && req.ActorID == req.OwnerID

	switch req.Role {
	case RolePortfolioManager:
		switch req.ResourceType {
		case ResourcePortfolio:
			if granted(req.PortfolioGrants) || owns {
				return Full
			}
			return ReadOnly
		case ResourceProject:
			if granted(req.ProjectGrants) || owns {
				return ReadWrite
			}
			return ReadOnly
		}

	case RoleProjectManager:
		switch req.ResourceType {
		case ResourceProject:
			if granted(req.ProjectGrants) || owns {
				return Full
			}
			return ReadOnly
		case ResourcePortfolio:
			return ReadOnly
		}

	case RoleFinance:
		return ReadWrite

	case RoleResource:
		if req.ResourceType == ResourceProject && granted(req.ProjectGrants) {
			return ReadWrite
		}
		return ReadOnly

	case RoleViewer:
		if (req.ResourceType == ResourcePortfolio && granted(req.PortfolioGrants)) ||
			(req.ResourceType == ResourceProject && granted(req.ProjectGrants)) {
			return ReadOnly
		}
	}

	return NoAccess
}
