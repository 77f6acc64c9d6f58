package auth

// Role is a staff role within a practice. The set is closed; role strings
// arriving from storage or tokens that are not listed here resolve to an
// empty permission set.
type Role string

const (
	RoleTenantOwner Role = "TENANT_OWNER"
	RoleClinician   Role = "CLINICIAN"
	RoleTechnician  Role = "TECHNICIAN"
	RoleAssistant   Role = "ASSISTANT"
	RoleFrontDesk   Role = "FRONT_DESK"
)

var validRoles = map[Role]bool{
	RoleTenantOwner: true,
	RoleClinician:   true,
	RoleTechnician:  true,
	RoleAssistant:   true,
	RoleFrontDesk:   true,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return validRoles[r]
}

// Permission is an atomic capability tag checked by the guard.
type Permission string

const (
	PermManagePractice   Permission = "MANAGE_PRACTICE"
	PermManageStaff      Permission = "MANAGE_STAFF"
	PermCreatePatient    Permission = "CREATE_PATIENT"
	PermEditPatient      Permission = "EDIT_PATIENT"
	PermViewPatient      Permission = "VIEW_PATIENT"
	PermCreatePlan       Permission = "CREATE_PLAN"
	PermEditPlan         Permission = "EDIT_PLAN"
	PermActivatePlan     Permission = "ACTIVATE_PLAN"
	PermViewPlan         Permission = "VIEW_PLAN"
	PermRecordObs        Permission = "RECORD_OBSERVATION"
	PermViewObservations Permission = "VIEW_OBSERVATIONS"
	PermManageTemplates  Permission = "MANAGE_TEMPLATES"
	PermViewReports      Permission = "VIEW_REPORTS"
)

// AllPermissions returns the full capability universe. The tenant owner's
// effective set is always this, never a table entry.
func AllPermissions() []Permission {
	return []Permission{
		PermManagePractice,
		PermManageStaff,
		PermCreatePatient,
		PermEditPatient,
		PermViewPatient,
		PermCreatePlan,
		PermEditPlan,
		PermActivatePlan,
		PermViewPlan,
		PermRecordObs,
		PermViewObservations,
		PermManageTemplates,
		PermViewReports,
	}
}

// PermissionSet is a set of granted permissions.
type PermissionSet map[Permission]bool

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Permission) bool {
	return s[p]
}

func newSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = true
	}
	return s
}

// Profiles maps each role to its granted permission set. Built once at
// startup and treated as immutable afterwards.
type Profiles map[Role]PermissionSet

// DefaultProfiles returns the built-in role-to-permission table.
//
// The TENANT_OWNER entry exists only for completeness; Resolve overrides it
// with the full universe.
func DefaultProfiles() Profiles {
	return Profiles{
		RoleTenantOwner: newSet(AllPermissions()...),
		RoleClinician: newSet(
			PermCreatePatient, PermEditPatient, PermViewPatient,
			PermCreatePlan, PermEditPlan, PermActivatePlan, PermViewPlan,
			PermRecordObs, PermViewObservations,
			PermManageTemplates, PermViewReports,
		),
		RoleTechnician: newSet(
			PermViewPatient, PermViewPlan,
			PermRecordObs, PermViewObservations,
		),
		RoleAssistant: newSet(
			PermViewPatient, PermViewPlan, PermViewObservations,
		),
		RoleFrontDesk: newSet(
			PermCreatePatient, PermEditPatient, PermViewPatient,
		),
	}
}

// Resolve returns the effective permission set for a role. The tenant owner
// always receives the full universe regardless of the table contents. An
// unknown role resolves to an empty set: a configuration defect denies, it
// never silently allows.
func (p Profiles) Resolve(role Role) PermissionSet {
	if role == RoleTenantOwner {
		return newSet(AllPermissions()...)
	}
	set, ok := p[role]
	if !ok {
		return PermissionSet{}
	}
	return set
}
