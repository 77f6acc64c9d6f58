package patient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vetpms/vetpms/pkg/apperr"
)

type mockRepo struct{ store map[uuid.UUID]*Patient }

func newMockRepo() *mockRepo { return &mockRepo{store: make(map[uuid.UUID]*Patient)} }

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, apperr.NotFound("patient not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.store[p.ID]; !ok {
		return apperr.NotFound("patient not found")
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var r []*Patient
	for _, p := range m.store {
		if p.Active {
			r = append(r, p)
		}
	}
	return r, len(r), nil
}
func (m *mockRepo) Search(_ context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	var r []*Patient
	for _, p := range m.store {
		if p.Active && strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			r = append(r, p)
		}
	}
	return r, len(r), nil
}

func validPatient() *Patient {
	return &Patient{Name: "Rex", Species: "canine", Breed: "labrador", Sex: SexMaleNeutered, OwnerName: "Jo Smith"}
}

func TestCreate_Valid(t *testing.T) {
	svc := NewService(newMockRepo())
	p := validPatient()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Active {
		t.Error("expected new patient active")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())

	missingName := validPatient()
	missingName.Name = ""
	missingSpecies := validPatient()
	missingSpecies.Species = ""
	missingOwner := validPatient()
	missingOwner.OwnerName = ""
	badSex := validPatient()
	badSex.Sex = Sex("HERMAPHRODITE")
	future := time.Now().Add(48 * time.Hour)
	futureBirth := validPatient()
	futureBirth.BirthDate = &future

	for name, p := range map[string]*Patient{
		"missing name": missingName, "missing species": missingSpecies,
		"missing owner": missingOwner, "bad sex": badSex, "future birth date": futureBirth,
	} {
		if err := svc.Create(context.Background(), p); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestCreate_SexDefaultsToUnknown(t *testing.T) {
	svc := NewService(newMockRepo())
	p := validPatient()
	p.Sex = ""
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Sex != SexUnknown {
		t.Errorf("expected UNKNOWN, got %s", p.Sex)
	}
}

func TestUpdate_PreservesActiveFlag(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := validPatient()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Deactivate(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edit := *p
	edit.Active = true
	edit.Name = "Rexford"
	if err := svc.Update(context.Background(), &edit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), p.ID)
	if stored.Active {
		t.Error("update must not reactivate a deactivated patient")
	}
	if stored.Name != "Rexford" {
		t.Error("expected rename applied")
	}
}

func TestDeactivate_Idempotent(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := validPatient()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Deactivate(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Deactivate(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}

	if _, total, _ := svc.List(context.Background(), 20, 0); total != 0 {
		t.Errorf("expected deactivated patient hidden from listings, total=%d", total)
	}
}

func TestDeactivate_Unknown(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Deactivate(context.Background(), uuid.New()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	names := []string{"Rex", "Trex", "Bella"}
	for _, n := range names {
		p := validPatient()
		p.Name = n
		if err := svc.Create(context.Background(), p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	results, total, err := svc.Search(context.Background(), "rex", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Errorf("expected 2 matches, got %d", total)
	}
}
