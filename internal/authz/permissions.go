package authz

// rolePermissions is the fixed role-to-permission assignment. It is built
// once at process start and never mutated afterwards; there is no runtime
// setter. Every role's set is spelled out explicitly so the table can be
// audited line by line when a new permission is introduced.
var rolePermissions = map[Role]map[Permission]struct{}{
	// Full platform administration.
	RoleAdmin: permissionSet(
		PermManageTenant,
		PermViewTenant,
		PermManageUsers,
		PermViewUsers,
		PermInviteUsers,
		PermCreatePortfolio,
		PermEditPortfolio,
		PermDeletePortfolio,
		PermViewPortfolio,
		PermManagePortfolioMembers,
		PermCreateProject,
		PermEditProject,
		PermDeleteProject,
		PermViewProject,
		PermManageProjectMembers,
		PermApproveProjectChanges,
		PermManageResources,
		PermViewResources,
		PermAssignResources,
		PermViewResourceUtilization,
		PermManageBudgets,
		PermViewBudgets,
		PermApproveBudgets,
		PermViewFinancialReports,
		PermApproveTime,
		PermViewTimeReports,
		PermManageRisks,
		PermViewRisks,
		PermViewReports,
		PermCreateReports,
		PermExportData,
		PermViewAuditLogs,
		PermManageIntegrations,
	),

	// PMO-level administration: no tenant management, no deletes,
	// no budget ownership, no audit/integration surface.
	RolePMOAdmin: permissionSet(
		PermViewTenant,
		PermManageUsers,
		PermViewUsers,
		PermInviteUsers,
		PermCreatePortfolio,
		PermEditPortfolio,
		PermViewPortfolio,
		PermManagePortfolioMembers,
		PermCreateProject,
		PermEditProject,
		PermViewProject,
		PermManageProjectMembers,
		PermApproveProjectChanges,
		PermManageResources,
		PermViewResources,
		PermAssignResources,
		PermViewResourceUtilization,
		PermViewBudgets,
		PermApproveBudgets,
		PermViewFinancialReports,
		PermApproveTime,
		PermViewTimeReports,
		PermManageRisks,
		PermViewRisks,
		PermViewReports,
		PermCreateReports,
		PermExportData,
	),

	// Portfolio oversight and management.
	RolePortfolioManager: permissionSet(
		PermViewUsers,
		PermCreatePortfolio,
		PermEditPortfolio,
		PermViewPortfolio,
		PermManagePortfolioMembers,
		PermCreateProject,
		PermEditProject,
		PermViewProject,
		PermManageProjectMembers,
		PermViewResources,
		PermAssignResources,
		PermViewResourceUtilization,
		PermManageBudgets,
		PermViewBudgets,
		PermViewFinancialReports,
		PermApproveTime,
		PermViewTimeReports,
		PermManageRisks,
		PermViewRisks,
		PermViewReports,
		PermCreateReports,
		PermExportData,
	),

	// Project execution and management.
	RoleProjectManager: permissionSet(
		PermViewUsers,
		PermViewPortfolio,
		PermEditProject,
		PermViewProject,
		PermManageProjectMembers,
		PermViewResources,
		PermAssignResources,
		PermViewResourceUtilization,
		PermViewBudgets,
		PermViewFinancialReports,
		PermApproveTime,
		PermViewTimeReports,
		PermManageRisks,
		PermViewRisks,
		PermViewReports,
		PermCreateReports,
	),

	// Task execution and time tracking.
	RoleResource: permissionSet(
		PermViewProject,
		PermEnterTime,
		PermViewRisks,
		PermViewReports,
	),

	// Budget oversight and financial tracking.
	RoleFinance: permissionSet(
		PermViewUsers,
		PermViewPortfolio,
		PermViewProject,
		PermManageBudgets,
		PermViewBudgets,
		PermApproveBudgets,
		PermViewFinancialReports,
		PermViewTimeReports,
		PermViewRisks,
		PermViewReports,
		PermCreateReports,
		PermExportData,
	),

	// Read-only access to authorized content.
	RoleViewer: permissionSet(
		PermViewPortfolio,
		PermViewProject,
		PermViewResources,
		PermViewBudgets,
		PermViewRisks,
		PermViewReports,
	),
}

func permissionSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// PermissionsFor returns every permission granted to the role, in catalog
// order. An unrecognised role yields an empty slice, never an error.
func PermissionsFor(role Role) []Permission {
	set, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	perms := make([]Permission, 0, len(set))
	for _, p := range Permissions() {
		if _, granted := set[p]; granted {
			perms = append(perms, p)
		}
	}
	return perms
}

// HasPermission reports whether the role is granted the permission.
// Unknown roles and unknown permissions fail closed.
func HasPermission(role Role, perm Permission) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, granted := set[perm]
	return granted
}

// HasAny reports whether the role holds at least one of the permissions.
// An empty permission list is never satisfied.
func HasAny(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether the role holds every one of the permissions.
// An empty permission list is vacuously satisfied.
func HasAll(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}
