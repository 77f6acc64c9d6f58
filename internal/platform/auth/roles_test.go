package auth

import (
	"testing"
)

func TestDefaultProfiles_StableAcrossCalls(t *testing.T) {
	p := DefaultProfiles()
	first := p.Resolve(RoleTechnician)
	second := p.Resolve(RoleTechnician)

	if len(first) != len(second) {
		t.Fatalf("expected stable resolution, got %d then %d permissions", len(first), len(second))
	}
	for perm := range first {
		if !second.Has(perm) {
			t.Errorf("permission %s missing on second resolution", perm)
		}
	}
}

func TestResolve_OwnerGetsFullUniverse(t *testing.T) {
	// Even with a deliberately crippled table entry, the owner resolves to
	// the full universe.
	p := Profiles{
		RoleTenantOwner: newSet(PermViewPatient),
	}

	set := p.Resolve(RoleTenantOwner)
	for _, perm := range AllPermissions() {
		if !set.Has(perm) {
			t.Errorf("owner missing %s", perm)
		}
	}
	if len(set) != len(AllPermissions()) {
		t.Errorf("expected %d permissions, got %d", len(AllPermissions()), len(set))
	}
}

func TestResolve_UnknownRoleIsEmpty(t *testing.T) {
	p := DefaultProfiles()
	set := p.Resolve(Role("JANITOR"))
	if len(set) != 0 {
		t.Errorf("expected empty set for unknown role, got %v", set)
	}
	if set.Has(PermViewPatient) {
		t.Error("unknown role must not be granted anything")
	}
}

func TestResolve_TechnicianCannotCreatePatients(t *testing.T) {
	set := DefaultProfiles().Resolve(RoleTechnician)
	if set.Has(PermCreatePatient) {
		t.Error("technician must not hold CREATE_PATIENT")
	}
	if !set.Has(PermRecordObs) {
		t.Error("technician should hold RECORD_OBSERVATION")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleTenantOwner, RoleClinician, RoleTechnician, RoleAssistant, RoleFrontDesk} {
		if !r.Valid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if Role("SUPERUSER").Valid() {
		t.Error("unexpected valid role SUPERUSER")
	}
}

func TestAllPermissions_Closed(t *testing.T) {
	seen := map[Permission]bool{}
	for _, p := range AllPermissions() {
		if seen[p] {
			t.Errorf("duplicate permission %s", p)
		}
		seen[p] = true
	}
	if len(seen) != 13 {
		t.Errorf("expected 13 permissions, got %d", len(seen))
	}
}
