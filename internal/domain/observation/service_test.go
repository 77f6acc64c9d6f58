package observation

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetpms/vetpms/internal/platform/auth"
	"github.com/vetpms/vetpms/pkg/apperr"
)

// mockStore backs both repositories and mirrors the constraint-backed
// insert: InsertNoteTemplate is a no-op when a NOTE template already exists.
type mockStore struct {
	templates map[uuid.UUID]*Template
	records   map[uuid.UUID]*Record
	planIDs   []uuid.UUID
	seq       int
}

func newMockStore(planIDs ...uuid.UUID) *mockStore {
	return &mockStore{templates: make(map[uuid.UUID]*Template), records: make(map[uuid.UUID]*Record), planIDs: planIDs}
}

func (m *mockStore) stamp() time.Time {
	m.seq++
	return time.Unix(int64(m.seq), 0)
}

func (m *mockStore) CreateTemplate(_ context.Context, t *Template) error {
	t.ID = uuid.New()
	t.CreatedAt = m.stamp()
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockStore) GetTemplate(_ context.Context, id uuid.UUID) (*Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, apperr.NotFound("observation template not found")
	}
	cp := *t
	return &cp, nil
}

func (m *mockStore) UpdateTemplate(_ context.Context, t *Template) error {
	existing, ok := m.templates[t.ID]
	if !ok {
		return apperr.NotFound("observation template not found")
	}
	cp := *t
	cp.CreatedAt = existing.CreatedAt
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockStore) ListTemplates(_ context.Context, limit, offset int) ([]*Template, int, error) {
	var r []*Template
	for _, t := range m.templates {
		r = append(r, t)
	}
	return r, len(r), nil
}

func (m *mockStore) ListTemplatesByPlan(_ context.Context, planID uuid.UUID) ([]*Template, error) {
	var r []*Template
	for _, t := range m.templates {
		if t.PlanID == planID {
			r = append(r, t)
		}
	}
	return r, nil
}
func (m *mockStore) NoteTemplates(_ context.Context) ([]*Template, error) {
	var r []*Template
	for _, t := range m.templates {
		if t.DataType == TypeNote {
			r = append(r, t)
		}
	}
	sort.Slice(r, func(i, j int) bool { return r[i].CreatedAt.Before(r[j].CreatedAt) })
	return r, nil
}
func (m *mockStore) InsertNoteTemplate(ctx context.Context, t *Template) error {
	existing, _ := m.NoteTemplates(ctx)
	if len(existing) > 0 {
		return nil
	}
	t.DataType = TypeNote
	return m.CreateTemplate(ctx, t)
}
func (m *mockStore) FirstPlanID(_ context.Context) (uuid.UUID, error) {
	if len(m.planIDs) == 0 {
		return uuid.Nil, apperr.NotFound("no monitoring plan exists to attach the note template to")
	}
	return m.planIDs[0], nil
}

func (m *mockStore) CreateRecord(_ context.Context, r *Record) error {
	r.ID = uuid.New()
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *mockStore) GetRecord(_ context.Context, id uuid.UUID) (*Record, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, apperr.NotFound("observation record not found")
	}
	cp := *r
	return &cp, nil
}

func (m *mockStore) ListRecords(_ context.Context, limit, offset int) ([]*Record, int, error) {
	var r []*Record
	for _, rec := range m.records {
		r = append(r, rec)
	}
	return r, len(r), nil
}

func (m *mockStore) ListRecordsByTemplate(_ context.Context, tid uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var r []*Record
	for _, rec := range m.records {
		if rec.TemplateID == tid {
			r = append(r, rec)
		}
	}
	return r, len(r), nil
}

func newTestService(store *mockStore) *Service {
	return NewService(store, store, zerolog.Nop())
}

func recordingCaller() *auth.Caller {
	return &auth.Caller{PrincipalID: uuid.NewString(), TenantID: "riverside", Role: auth.RoleTechnician}
}

func seedTemplate(t *testing.T, svc *Service, tpl *Template) *Template {
	t.Helper()
	if tpl.PlanID == uuid.Nil {
		tpl.PlanID = uuid.New()
	}
	if err := svc.CreateTemplate(context.Background(), tpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	return tpl
}

func TestCreateTemplate_Validation(t *testing.T) {
	svc := newTestService(newMockStore())
	planID := uuid.New()

	cases := map[string]*Template{
		"missing name":        {DataType: TypeNumeric, PlanID: planID},
		"unknown type":        {Name: "x", DataType: DataType("VIDEO"), PlanID: planID},
		"missing plan":        {Name: "x", DataType: TypeNumeric},
		"enum without opts":   {Name: "x", DataType: TypeEnumeration, PlanID: planID},
		"enum empty option":   {Name: "x", DataType: TypeEnumeration, PlanID: planID, Options: []string{""}},
		"enum dup option":     {Name: "x", DataType: TypeEnumeration, PlanID: planID, Options: []string{"A", "A"}},
		"inverted bounds":     {Name: "x", DataType: TypeNumeric, PlanID: planID, MinValue: fptr(10), MaxValue: fptr(0)},
		"bounds on enum":      {Name: "x", DataType: TypeEnumeration, PlanID: planID, Options: []string{"A"}, MinValue: fptr(0)},
		"bounds on text":      {Name: "x", DataType: TypeText, PlanID: planID, MaxValue: fptr(5)},
		"options on numeric":  {Name: "x", DataType: TypeNumeric, PlanID: planID, Options: []string{"A"}},
		"note type by hand":   {Name: "x", DataType: TypeNote, PlanID: planID},
	}
	for name, tpl := range cases {
		if err := svc.CreateTemplate(context.Background(), tpl); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestUpdateTemplate_TypeAndPlanArePinned(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	tpl := seedTemplate(t, svc, &Template{Name: "pain score", DataType: TypeNumeric, MinValue: fptr(0), MaxValue: fptr(10)})

	edit := &Template{ID: tpl.ID, Name: "pain score v2", DataType: TypeBoolean, PlanID: uuid.New(), MinValue: fptr(0), MaxValue: fptr(5)}
	if err := svc.UpdateTemplate(context.Background(), edit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := store.templates[tpl.ID]
	if stored.DataType != TypeNumeric {
		t.Errorf("data type must not change, got %s", stored.DataType)
	}
	if stored.PlanID != tpl.PlanID {
		t.Error("plan binding must not change")
	}
	if stored.MaxValue == nil || *stored.MaxValue != 5 {
		t.Error("constraint edit should persist")
	}
}

func TestRecordValue_ValidatesAgainstTemplate(t *testing.T) {
	svc := newTestService(newMockStore())
	tpl := seedTemplate(t, svc, &Template{Name: "pain score", DataType: TypeNumeric, MinValue: fptr(0), MaxValue: fptr(10)})
	caller := recordingCaller()

	rec, err := svc.RecordValue(context.Background(), caller, &Record{TemplateID: tpl.ID, Value: 7.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.RecordedBy != caller.PrincipalID {
		t.Errorf("recorded_by should come from the caller, got %q", rec.RecordedBy)
	}
	if rec.RecordedAt.IsZero() {
		t.Error("recorded_at should default to now")
	}

	if _, err := svc.RecordValue(context.Background(), caller, &Record{TemplateID: tpl.ID, Value: 11.0}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.RecordValue(context.Background(), caller, &Record{TemplateID: uuid.New(), Value: 5.0}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for unknown template, got %v", err)
	}
}

func TestRecordValue_LaterTemplateEditDoesNotInvalidateHistory(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	tpl := seedTemplate(t, svc, &Template{Name: "weight", DataType: TypeNumeric, MinValue: fptr(0), MaxValue: fptr(100)})

	rec, err := svc.RecordValue(context.Background(), recordingCaller(), &Record{TemplateID: tpl.ID, Value: 80.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Tighten the bound below the recorded value.
	edit := &Template{ID: tpl.ID, Name: "weight", MinValue: fptr(0), MaxValue: fptr(50)}
	if err := svc.UpdateTemplate(context.Background(), edit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetRecord(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("historical record must survive: %v", err)
	}
	if got.Value != 80.0 {
		t.Errorf("historical value must be untouched, got %v", got.Value)
	}

	// New recordings use the tightened constraint.
	if _, err := svc.RecordValue(context.Background(), recordingCaller(), &Record{TemplateID: tpl.ID, Value: 80.0}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error under new bound, got %v", err)
	}
}

func TestEnsureNoteTemplate_CreatesOnce(t *testing.T) {
	planID := uuid.New()
	store := newMockStore(planID)
	svc := newTestService(store)

	first, err := svc.EnsureNoteTemplate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.DataType != TypeNote {
		t.Errorf("expected NOTE template, got %s", first.DataType)
	}
	if first.PlanID != planID {
		t.Error("bootstrap should attach to the earliest plan")
	}

	second, err := svc.EnsureNoteTemplate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Error("repeated bootstrap must return the same template")
	}
	if len(store.templates) != 1 {
		t.Errorf("expected exactly one template, got %d", len(store.templates))
	}
}

func TestEnsureNoteTemplate_NoPlan(t *testing.T) {
	svc := newTestService(newMockStore())

	if _, err := svc.EnsureNoteTemplate(context.Background()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found without a plan, got %v", err)
	}
}

func TestEnsureNoteTemplate_DuplicatesResolveToEarliest(t *testing.T) {
	store := newMockStore(uuid.New())
	svc := newTestService(store)

	// Two NOTE templates predating the unique constraint.
	older := &Template{Name: "Clinical note", DataType: TypeNote, PlanID: store.planIDs[0]}
	store.CreateTemplate(context.Background(), older)
	newer := &Template{Name: "Clinical note", DataType: TypeNote, PlanID: store.planIDs[0]}
	store.CreateTemplate(context.Background(), newer)

	got, err := svc.EnsureNoteTemplate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != older.ID {
		t.Error("earliest-created template must win")
	}
}

func TestEnsureNoteTemplate_RaceLoserConvergesOnWinner(t *testing.T) {
	planID := uuid.New()
	store := newMockStore(planID)
	svc := newTestService(store)

	// Simulate losing the race: a competing bootstrap lands between our
	// empty read and our insert. The constraint swallows our insert and we
	// must return the winner's row.
	winner := &Template{Name: "Clinical note", DataType: TypeNote, PlanID: planID}
	store.CreateTemplate(context.Background(), winner)

	loser := &Template{PlanID: planID, Name: "Clinical note", DataType: TypeNote}
	if err := store.InsertNoteTemplate(context.Background(), loser); err != nil {
		t.Fatalf("constraint-backed insert must not error: %v", err)
	}

	got, err := svc.EnsureNoteTemplate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != winner.ID {
		t.Error("loser must converge on the surviving row")
	}
	if len(store.templates) != 1 {
		t.Errorf("expected exactly one template, got %d", len(store.templates))
	}
}

func TestRecordNote_BootstrapsAndRecords(t *testing.T) {
	store := newMockStore(uuid.New())
	svc := newTestService(store)

	rec, err := svc.RecordNote(context.Background(), recordingCaller(), "bright and alert, incision clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tpl, err := svc.GetTemplate(context.Background(), rec.TemplateID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.DataType != TypeNote {
		t.Errorf("note should record against the NOTE template, got %s", tpl.DataType)
	}

	if _, err := svc.RecordNote(context.Background(), recordingCaller(), ""); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for empty note, got %v", err)
	}
}
