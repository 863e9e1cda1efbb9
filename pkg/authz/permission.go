package authz

import (
	"sort"
	"strings"
)

// Permission names a single capability. Values are "<resource>.<action>".
type Permission string

const Wildcard Permission = "*"

const (
	EmployeesRead        Permission = "employees.read"
	EmployeesPromote     Permission = "employees.promote"
	EmployeesDemote      Permission = "employees.demote"
	EmployeesManageUnits Permission = "employees.manage_units"
	EmployeesTerminate   Permission = "employees.terminate"

	ApplicationsRead     Permission = "applications.read"
	ApplicationsProcess  Permission = "applications.process"
	ApplicationsComplete Permission = "applications.complete"
	ApplicationsReject   Permission = "applications.reject"
	ApplicationsDelete   Permission = "applications.delete"
	RecruitmentConfigure Permission = "recruitment.configure"

	AcademyRead           Permission = "academy.read"
	AcademyManageProgress Permission = "academy.manage_progress"
	AcademyRequestUprank  Permission = "academy.request_uprank"
	AcademyProcessUprank  Permission = "academy.process_uprank"
	AcademyConductExam    Permission = "academy.conduct_exam"
	AcademyConfigure      Permission = "academy.configure"

	TreasuryRead     Permission = "treasury.read"
	TreasuryDeposit  Permission = "treasury.deposit"
	TreasuryWithdraw Permission = "treasury.withdraw"
	TreasuryExport   Permission = "treasury.export"

	SanctionsRead   Permission = "sanctions.read"
	SanctionsCreate Permission = "sanctions.create"
	SanctionsManage Permission = "sanctions.manage"
	SanctionsRevoke Permission = "sanctions.revoke"

	IncentivesRead Permission = "incentives.read"

	RolesManage Permission = "roles.manage"
)

var known = map[Permission]struct{}{}

func init() {
	for _, p := range All() {
		known[p] = struct{}{}
	}
}

// All returns every concrete permission, sorted.
func All() []Permission {
	out := []Permission{
		EmployeesRead, EmployeesPromote, EmployeesDemote, EmployeesManageUnits, EmployeesTerminate,
		ApplicationsRead, ApplicationsProcess, ApplicationsComplete, ApplicationsReject, ApplicationsDelete,
		RecruitmentConfigure,
		AcademyRead, AcademyManageProgress, AcademyRequestUprank, AcademyProcessUprank, AcademyConductExam, AcademyConfigure,
		TreasuryRead, TreasuryDeposit, TreasuryWithdraw, TreasuryExport,
		SanctionsRead, SanctionsCreate, SanctionsManage, SanctionsRevoke,
		IncentivesRead,
		RolesManage,
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParsePermission normalizes a policy value. Unknown names are rejected so
// typos in policy files never silently grant nothing.
func ParsePermission(raw string) (Permission, bool) {
	p := Permission(strings.ToLower(strings.TrimSpace(raw)))
	if p == Wildcard {
		return p, true
	}
	_, ok := known[p]
	return p, ok
}
