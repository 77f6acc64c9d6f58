package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetpms/vetpms/internal/platform/auth"
	"github.com/vetpms/vetpms/pkg/apperr"
)

type mockRepo struct{ store map[uuid.UUID]*Member }

func newMockRepo() *mockRepo { return &mockRepo{store: make(map[uuid.UUID]*Member)} }

func (m *mockRepo) Create(_ context.Context, mem *Member) error {
	for _, existing := range m.store {
		if existing.Subject == mem.Subject {
			return apperr.Conflict("staff member with that subject already exists")
		}
	}
	mem.ID = uuid.New()
	cp := *mem
	m.store[mem.ID] = &cp
	return nil
}
func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Member, error) {
	mem, ok := m.store[id]
	if !ok {
		return nil, apperr.NotFound("staff member not found")
	}
	cp := *mem
	return &cp, nil
}

func (m *mockRepo) GetBySubject(_ context.Context, subject string) (*Member, error) {
	for _, mem := range m.store {
		if mem.Subject == subject {
			cp := *mem
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("staff member not found")
}

func (m *mockRepo) Update(_ context.Context, mem *Member) error {
	if _, ok := m.store[mem.ID]; !ok {
		return apperr.NotFound("staff member not found")
	}
	cp := *mem
	m.store[mem.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Member, int, error) {
	var r []*Member
	for _, mem := range m.store {
		r = append(r, mem)
	}
	return r, len(r), nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func seedMember(t *testing.T, svc *Service, subject string, role auth.Role) *Member {
	t.Helper()
	m := &Member{Subject: subject, Email: subject + "@clinic.example", FirstName: "Ada", LastName: "Vet", Role: role}
	if err := svc.Create(context.Background(), m); err != nil {
		t.Fatalf("seed %s: %v", subject, err)
	}
	return m
}

func ownerCaller(id string) *auth.Caller {
	return &auth.Caller{PrincipalID: id, TenantID: "riverside", Role: auth.RoleTenantOwner}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()

	cases := []Member{
		{Email: "a@b.c", FirstName: "A", LastName: "B", Role: auth.RoleClinician},                          // no subject
		{Subject: "s1", Email: "a@b.c", Role: auth.RoleClinician},                                         // no name
		{Subject: "s2", Email: "not-an-email", FirstName: "A", LastName: "B", Role: auth.RoleClinician},   // bad email
		{Subject: "s3", Email: "a@b.c", FirstName: "A", LastName: "B", Role: auth.Role("SUPERUSER")},      // bad role
	}
	for i, m := range cases {
		mem := m
		if err := svc.Create(context.Background(), &mem); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestCreate_StartsActive(t *testing.T) {
	svc, _ := newTestService()
	m := seedMember(t, svc, "sub-1", auth.RoleTechnician)
	if !m.Active {
		t.Error("expected new member active")
	}
}

func TestChangeRole_SelfModificationRejected(t *testing.T) {
	svc, _ := newTestService()
	m := seedMember(t, svc, "sub-1", auth.RoleClinician)

	caller := &auth.Caller{PrincipalID: m.ID.String(), Role: auth.RoleTenantOwner}
	_, err := svc.ChangeRole(context.Background(), caller, m.ID, auth.RoleTechnician)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestChangeRole_OwnerRoleNeverTargeted(t *testing.T) {
	svc, _ := newTestService()
	member := seedMember(t, svc, "sub-1", auth.RoleClinician)
	owner := seedMember(t, svc, "sub-owner", auth.RoleTenantOwner)

	// Assigning the owner role is rejected.
	if _, err := svc.ChangeRole(context.Background(), ownerCaller(uuid.NewString()), member.ID, auth.RoleTenantOwner); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error assigning owner role, got %v", err)
	}

	// Changing the owner's role is rejected.
	if _, err := svc.ChangeRole(context.Background(), ownerCaller(uuid.NewString()), owner.ID, auth.RoleClinician); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error demoting owner, got %v", err)
	}
}

func TestChangeRole_Succeeds(t *testing.T) {
	svc, repo := newTestService()
	m := seedMember(t, svc, "sub-1", auth.RoleAssistant)

	updated, err := svc.ChangeRole(context.Background(), ownerCaller(uuid.NewString()), m.ID, auth.RoleTechnician)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Role != auth.RoleTechnician {
		t.Errorf("expected TECHNICIAN, got %s", updated.Role)
	}
	stored, _ := repo.GetByID(context.Background(), m.ID)
	if stored.Role != auth.RoleTechnician {
		t.Error("expected role change persisted")
	}
}

func TestUpdate_CannotSmuggleRoleOrStatus(t *testing.T) {
	svc, repo := newTestService()
	m := seedMember(t, svc, "sub-1", auth.RoleAssistant)

	edit := *m
	edit.Role = auth.RoleTenantOwner
	edit.Active = false
	edit.FirstName = "Renamed"
	if err := svc.Update(context.Background(), &edit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), m.ID)
	if stored.Role != auth.RoleAssistant {
		t.Errorf("role must be unchanged, got %s", stored.Role)
	}
	if !stored.Active {
		t.Error("active flag must be unchanged")
	}
	if stored.FirstName != "Renamed" {
		t.Error("expected name update applied")
	}
}

func TestDeactivate(t *testing.T) {
	svc, repo := newTestService()
	m := seedMember(t, svc, "sub-1", auth.RoleTechnician)

	if err := svc.Deactivate(context.Background(), ownerCaller(uuid.NewString()), m.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), m.ID)
	if stored.Active {
		t.Error("expected member inactive")
	}

	// Repeat is a no-op.
	if err := svc.Deactivate(context.Background(), ownerCaller(uuid.NewString()), m.ID); err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
}

func TestDeactivate_OwnerAndSelfRejected(t *testing.T) {
	svc, _ := newTestService()
	owner := seedMember(t, svc, "sub-owner", auth.RoleTenantOwner)
	m := seedMember(t, svc, "sub-1", auth.RoleTechnician)

	if err := svc.Deactivate(context.Background(), ownerCaller(uuid.NewString()), owner.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for owner, got %v", err)
	}
	if err := svc.Deactivate(context.Background(), ownerCaller(m.ID.String()), m.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for self, got %v", err)
	}
}

func TestDirectory_FindBySubject(t *testing.T) {
	svc, repo := newTestService()
	m := seedMember(t, svc, "sub-1", auth.RoleClinician)
	m.TenantID = "riverside"
	if err := repo.Update(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir := NewDirectory(repo)
	p, err := dir.FindBySubject(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != m.ID.String() || p.Role != auth.RoleClinician || !p.Active {
		t.Errorf("unexpected principal: %+v", p)
	}

	if _, err := dir.FindBySubject(context.Background(), "sub-ghost"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
