// Package authz implements the static role-based access-control model:
// a closed permission catalog, a fixed role-to-permission map, coarse
// permission checks, and the per-instance access-level resolver.
//
// Everything in this package is pure and immutable after process start,
// so all functions are safe for unbounded concurrent use.
package authz

// Role is one of the fixed set of user roles. A user holds exactly one
// role at a time; the role arrives with the verified token claims.
type Role string

// All recognised roles. The zero value and any other string are treated
// as unknown and grant nothing.
const (
	RoleAdmin            Role = "admin"
	RolePMOAdmin         Role = "pmo_admin"
	RolePortfolioManager Role = "portfolio_manager"
	RoleProjectManager   Role = "project_manager"
	RoleResource         Role = "resource"
	RoleFinance          Role = "finance"
	RoleViewer           Role = "viewer"
)

// Roles lists every recognised role.
func Roles() []Role {
	return []Role{
		RoleAdmin,
		RolePMOAdmin,
		RolePortfolioManager,
		RoleProjectManager,
		RoleResource,
		RoleFinance,
		RoleViewer,
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePMOAdmin, RolePortfolioManager, RoleProjectManager,
		RoleResource, RoleFinance, RoleViewer:
		return true
	}
	return false
}

// Permission is an opaque named capability. Permission names are a
// versioned contract with every caller that checks them by name.
type Permission string

// Tenant management permissions.
const (
	PermManageTenant Permission = "manage_tenant"
	PermViewTenant   Permission = "view_tenant"
)

// User management permissions.
const (
	PermManageUsers Permission = "manage_users"
	PermViewUsers   Permission = "view_users"
	PermInviteUsers Permission = "invite_users"
)

// Portfolio management permissions.
const (
	PermCreatePortfolio        Permission = "create_portfolio"
	PermEditPortfolio          Permission = "edit_portfolio"
	PermDeletePortfolio        Permission = "delete_portfolio"
	PermViewPortfolio          Permission = "view_portfolio"
	PermManagePortfolioMembers Permission = "manage_portfolio_members"
)

// Project management permissions.
const (
	PermCreateProject         Permission = "create_project"
	PermEditProject           Permission = "edit_project"
	PermDeleteProject         Permission = "delete_project"
	PermViewProject           Permission = "view_project"
	PermManageProjectMembers  Permission = "manage_project_members"
	PermApproveProjectChanges Permission = "approve_project_changes"
)

// Resource management permissions.
const (
	PermManageResources         Permission = "manage_resources"
	PermViewResources           Permission = "view_resources"
	PermAssignResources         Permission = "assign_resources"
	PermViewResourceUtilization Permission = "view_resource_utilization"
)

// Financial management permissions.
const (
	PermManageBudgets        Permission = "manage_budgets"
	PermViewBudgets          Permission = "view_budgets"
	PermApproveBudgets       Permission = "approve_budgets"
	PermViewFinancialReports Permission = "view_financial_reports"
)

// Time tracking permissions.
const (
	PermEnterTime       Permission = "enter_time"
	PermApproveTime     Permission = "approve_time"
	PermViewTimeReports Permission = "view_time_reports"
)

// Risk management permissions.
const (
	PermManageRisks Permission = "manage_risks"
	PermViewRisks   Permission = "view_risks"
)

// Reporting permissions.
const (
	PermViewReports   Permission = "view_reports"
	PermCreateReports Permission = "create_reports"
	PermExportData    Permission = "export_data"
)

// System administration permissions.
const (
	PermViewAuditLogs      Permission = "view_audit_logs"
	PermManageIntegrations Permission = "manage_integrations"
)

// Permissions lists the full closed catalog.
func Permissions() []Permission {
	return []Permission{
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
		PermEnterTime,
		PermApproveTime,
		PermViewTimeReports,
		PermManageRisks,
		PermViewRisks,
		PermViewReports,
		PermCreateReports,
		PermExportData,
		PermViewAuditLogs,
		PermManageIntegrations,
	}
}
