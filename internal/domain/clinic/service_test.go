package clinic

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

// -- In-memory store --

// memStore mimics the Postgres schema closely enough for service and handler
// tests: serial ids, NOW() timestamps, the username unique index and the
// patient/appointment foreign keys.
type memStore struct {
	mu           sync.Mutex
	clock        time.Time
	users        []*User
	patients     []*Patient
	appointments []*Appointment
	treatments   []*Treatment
}

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) patientExists(id *int32) bool {
	if id == nil {
		return true
	}
	for _, p := range m.patients {
		if p.ID == *id {
			return true
		}
	}
	return false
}

func (m *memStore) appointmentExists(id *int32) bool {
	if id == nil {
		return true
	}
	for _, a := range m.appointments {
		if a.ID == *id {
			return true
		}
	}
	return false
}

func fkViolation(op string) error {
	return &StorageError{Op: op, Kind: KindInvalidReference, Err: errors.New("foreign key violation")}
}

func applyText(dst *string, f Field[string]) {
	if f.Set && !f.Null {
		*dst = f.Value
	}
}

func applyOpt[T any](dst **T, f Field[T]) {
	if f.Set {
		*dst = f.Ptr()
	}
}

func applyOptTime(dst **time.Time, f Field[Timestamp]) {
	if !f.Set {
		return
	}
	if f.Null {
		*dst = nil
		return
	}
	t := f.Value.Time
	*dst = &t
}

type mockUserRepo struct{ *memStore }

func (m mockUserRepo) GetByID(_ context.Context, id int32) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m mockUserRepo) Create(_ context.Context, in InsertUser) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == in.Username {
			return nil, &StorageError{Op: "create user", Kind: KindConflict, Err: errors.New("duplicate key")}
		}
	}
	u := &User{ID: int32(len(m.users) + 1), Username: in.Username, Password: in.Password}
	m.users = append(m.users, u)
	cp := *u
	return &cp, nil
}

type mockPatientRepo struct{ *memStore }

func (m mockPatientRepo) GetByID(_ context.Context, id int32) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m mockPatientRepo) GetByEmail(_ context.Context, email string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m mockPatientRepo) Create(_ context.Context, in InsertPatient) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	p := &Patient{
		ID:             int32(len(m.patients) + 1),
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		DateOfBirth:    in.DateOfBirth.TimePtr(),
		Address:        in.Address,
		MedicalHistory: in.MedicalHistory,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.patients = append(m.patients, p)
	cp := *p
	return &cp, nil
}

func (m mockPatientRepo) Update(_ context.Context, id int32, patch PatientPatch) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.ID != id {
			continue
		}
		applyText(&p.Name, patch.Name)
		applyText(&p.Email, patch.Email)
		applyText(&p.Phone, patch.Phone)
		applyOptTime(&p.DateOfBirth, patch.DateOfBirth)
		applyOpt(&p.Address, patch.Address)
		applyOpt(&p.MedicalHistory, patch.MedicalHistory)
		p.UpdatedAt = m.tick()
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m mockPatientRepo) List(_ context.Context) ([]*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Patient{}
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type mockAppointmentRepo struct{ *memStore }

func (m mockAppointmentRepo) GetByID(_ context.Context, id int32) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m mockAppointmentRepo) Create(_ context.Context, in InsertAppointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.patientExists(in.PatientID) {
		return nil, fkViolation("create appointment")
	}
	now := m.tick()
	a := &Appointment{
		ID:              int32(len(m.appointments) + 1),
		PatientID:       in.PatientID,
		AppointmentDate: in.AppointmentDate.Time,
		AppointmentTime: in.AppointmentTime,
		Service:         in.Service,
		Status:          *in.Status,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.appointments = append(m.appointments, a)
	cp := *a
	return &cp, nil
}

func (m mockAppointmentRepo) Update(_ context.Context, id int32, patch AppointmentPatch) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if patch.PatientID.Set && !patch.PatientID.Null && !m.patientExists(patch.PatientID.Ptr()) {
		return nil, fkViolation("update appointment")
	}
	for _, a := range m.appointments {
		if a.ID != id {
			continue
		}
		applyOpt(&a.PatientID, patch.PatientID)
		if patch.AppointmentDate.Set && !patch.AppointmentDate.Null {
			a.AppointmentDate = patch.AppointmentDate.Value.Time
		}
		applyText(&a.AppointmentTime, patch.AppointmentTime)
		applyText(&a.Service, patch.Service)
		applyText(&a.Status, patch.Status)
		applyOpt(&a.Notes, patch.Notes)
		a.UpdatedAt = m.tick()
		cp := *a
		return &cp, nil
	}
	return nil, ErrNotFound
}

func sortAppointments(items []*Appointment) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].AppointmentDate.Equal(items[j].AppointmentDate) {
			return items[i].AppointmentDate.After(items[j].AppointmentDate)
		}
		return items[i].ID > items[j].ID
	})
}

func (m mockAppointmentRepo) List(_ context.Context) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Appointment{}
	for _, a := range m.appointments {
		cp := *a
		out = append(out, &cp)
	}
	sortAppointments(out)
	return out, nil
}

func (m mockAppointmentRepo) ListByPatient(_ context.Context, patientID int32) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Appointment{}
	for _, a := range m.appointments {
		if a.PatientID != nil && *a.PatientID == patientID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortAppointments(out)
	return out, nil
}

type mockTreatmentRepo struct{ *memStore }

func (m mockTreatmentRepo) GetByID(_ context.Context, id int32) (*Treatment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.treatments {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m mockTreatmentRepo) Create(_ context.Context, in InsertTreatment) (*Treatment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.patientExists(in.PatientID) || !m.appointmentExists(in.AppointmentID) {
		return nil, fkViolation("create treatment")
	}
	now := m.tick()
	t := &Treatment{
		ID:            int32(len(m.treatments) + 1),
		PatientID:     in.PatientID,
		AppointmentID: in.AppointmentID,
		TreatmentName: in.TreatmentName,
		Description:   in.Description,
		Cost:          in.Cost,
		Status:        *in.Status,
		StartDate:     in.StartDate.TimePtr(),
		CompletedDate: in.CompletedDate.TimePtr(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.treatments = append(m.treatments, t)
	cp := *t
	return &cp, nil
}

func (m mockTreatmentRepo) Update(_ context.Context, id int32, patch TreatmentPatch) (*Treatment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.treatments {
		if t.ID != id {
			continue
		}
		applyOpt(&t.PatientID, patch.PatientID)
		applyOpt(&t.AppointmentID, patch.AppointmentID)
		applyText(&t.TreatmentName, patch.TreatmentName)
		applyOpt(&t.Description, patch.Description)
		applyOpt(&t.Cost, patch.Cost)
		applyText(&t.Status, patch.Status)
		applyOptTime(&t.StartDate, patch.StartDate)
		applyOptTime(&t.CompletedDate, patch.CompletedDate)
		t.UpdatedAt = m.tick()
		cp := *t
		return &cp, nil
	}
	return nil, ErrNotFound
}

func sortTreatments(items []*Treatment) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func (m mockTreatmentRepo) List(_ context.Context) ([]*Treatment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Treatment{}
	for _, t := range m.treatments {
		cp := *t
		out = append(out, &cp)
	}
	sortTreatments(out)
	return out, nil
}

func (m mockTreatmentRepo) ListByPatient(_ context.Context, patientID int32) ([]*Treatment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Treatment{}
	for _, t := range m.treatments {
		if t.PatientID != nil && *t.PatientID == patientID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sortTreatments(out)
	return out, nil
}

func newTestService() (*Service, *memStore) {
	m := newMemStore()
	store := &Storage{
		Users:        mockUserRepo{m},
		Patients:     mockPatientRepo{m},
		Appointments: mockAppointmentRepo{m},
		Treatments:   mockTreatmentRepo{m},
	}
	return NewServiceFromStorage(store), m
}

func strPtr(s string) *string { return &s }
func i32Ptr(n int32) *int32 { return &n }

func mustTimestamp(t *testing.T, s string) *Timestamp {
	t.Helper()
	ts, err := ParseTimestamp(s)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q): %v", s, err)
	}
	return &ts
}

func createTestPatient(t *testing.T, svc *Service, name string) *Patient {
	t.Helper()
	p, err := svc.CreatePatient(context.Background(), InsertPatient{
		Name:  name,
		Email: name + "@example.com",
		Phone: "555-0100",
	})
	if err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	return p
}

// -- Users --

func TestService_CreateUser(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, InsertUser{Username: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 1 || u.Password != "secret" {
		t.Errorf("unexpected user: %+v", u)
	}

	got, err := svc.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected id %d, got %d", u.ID, got.ID)
	}
	if _, err := svc.GetUser(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_CreateUser_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, InsertUser{Username: "admin", Password: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.CreateUser(ctx, InsertUser{Username: "admin", Password: "b"})
	var se *StorageError
	if !errors.As(err, &se) || se.Kind != KindConflict {
		t.Fatalf("expected conflict StorageError, got %v", err)
	}
}

func TestService_CreateUser_RequiresUsername(t *testing.T) {
	svc, m := newTestService()

	_, err := svc.CreateUser(context.Background(), InsertUser{Username: "  ", Password: "x"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "username" {
		t.Fatalf("expected username ValidationError, got %v", err)
	}
	if len(m.users) != 0 {
		t.Error("expected no user to be stored")
	}
}

// -- Patients --

func TestService_CreatePatient(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := InsertPatient{
		Name:        "Ada Lovelace",
		Email:       "ada@example.com",
		Phone:       "123",
		DateOfBirth: mustTimestamp(t, "1815-12-10"),
		Address:     strPtr("12 St James's Square"),
	}
	p, err := svc.CreatePatient(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 1 {
		t.Errorf("expected id 1, got %d", p.ID)
	}
	if p.Name != in.Name || p.Email != in.Email || p.Phone != in.Phone {
		t.Errorf("fields not preserved: %+v", p)
	}
	if p.DateOfBirth == nil || !p.DateOfBirth.Equal(in.DateOfBirth.Time) {
		t.Errorf("expected date of birth %v, got %v", in.DateOfBirth, p.DateOfBirth)
	}
	if p.MedicalHistory != nil {
		t.Errorf("expected nil medical history, got %v", *p.MedicalHistory)
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Errorf("expected createdAt == updatedAt, got %v / %v", p.CreatedAt, p.UpdatedAt)
	}

	got, err := svc.GetPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if got.Name != p.Name || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("fetched patient differs: %+v vs %+v", got, p)
	}
}

func TestService_CreatePatient_MissingEmail(t *testing.T) {
	svc, m := newTestService()

	_, err := svc.CreatePatient(context.Background(), InsertPatient{Name: "A", Phone: "1"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "email" {
		t.Errorf("expected email field, got %q", ve.Field)
	}
	if len(m.patients) != 0 {
		t.Error("expected no patient to be stored")
	}
}

func TestService_GetPatient_NotFound(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.GetPatient(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_GetPatientByEmail(t *testing.T) {
	svc, _ := newTestService()
	p := createTestPatient(t, svc, "grace")

	got, err := svc.GetPatientByEmail(context.Background(), "grace@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected id %d, got %d", p.ID, got.ID)
	}
}

func TestService_UpdatePatient_ChangesOnlyGivenField(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	p := createTestPatient(t, svc, "alan")

	updated, err := svc.UpdatePatient(ctx, p.ID, PatientPatch{Phone: NewField("999")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Phone != "999" {
		t.Errorf("expected phone 999, got %s", updated.Phone)
	}
	if updated.Name != p.Name || updated.Email != p.Email {
		t.Errorf("unexpected change to other fields: %+v", updated)
	}
	if !updated.CreatedAt.Equal(p.CreatedAt) {
		t.Error("createdAt must not change")
	}
	if !updated.UpdatedAt.After(p.UpdatedAt) {
		t.Errorf("expected updatedAt to advance, got %v <= %v", updated.UpdatedAt, p.UpdatedAt)
	}
}

func TestService_UpdatePatient_NullClearsOptional(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	p, err := svc.CreatePatient(ctx, InsertPatient{
		Name: "B", Email: "b@x.com", Phone: "1", Address: strPtr("somewhere"),
	})
	if err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	updated, err := svc.UpdatePatient(ctx, p.ID, PatientPatch{Address: NullField[string]()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Address != nil {
		t.Errorf("expected address cleared, got %q", *updated.Address)
	}
}

func TestService_UpdatePatient_RejectsBlankRequired(t *testing.T) {
	svc, _ := newTestService()
	p := createTestPatient(t, svc, "carol")

	_, err := svc.UpdatePatient(context.Background(), p.ID, PatientPatch{Name: NewField(" ")})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Fatalf("expected name ValidationError, got %v", err)
	}
}

func TestService_UpdatePatient_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.UpdatePatient(context.Background(), 7, PatientPatch{Phone: NewField("1")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListPatients_NewestFirst(t *testing.T) {
	svc, _ := newTestService()
	createTestPatient(t, svc, "first")
	createTestPatient(t, svc, "second")
	createTestPatient(t, svc, "third")

	items, err := svc.ListPatients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 patients, got %d", len(items))
	}
	if items[0].Name != "third" || items[2].Name != "first" {
		t.Errorf("unexpected order: %s, %s, %s", items[0].Name, items[1].Name, items[2].Name)
	}
}

// -- Appointments --

func TestService_CreateAppointment_DefaultStatus(t *testing.T) {
	svc, _ := newTestService()
	p := createTestPatient(t, svc, "dora")

	a, err := svc.CreateAppointment(context.Background(), InsertAppointment{
		PatientID:       &p.ID,
		AppointmentDate: mustTimestamp(t, "2026-04-01T14:30:00Z"),
		AppointmentTime: "14:30",
		Service:         "Cleaning",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != AppointmentScheduled {
		t.Errorf("expected status %q, got %q", AppointmentScheduled, a.Status)
	}
	if a.PatientID == nil || *a.PatientID != p.ID {
		t.Errorf("expected patient id %d, got %v", p.ID, a.PatientID)
	}
}

func TestService_Create_EmptyStatusStoredAsSent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.CreateAppointment(ctx, InsertAppointment{
		AppointmentDate: mustTimestamp(t, "2026-04-01"),
		AppointmentTime: "09:00",
		Service:         "Consultation",
		Status:          strPtr(""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != "" {
		t.Errorf("expected explicit empty status to be kept, got %q", a.Status)
	}

	tr, err := svc.CreateTreatment(ctx, InsertTreatment{TreatmentName: "Filling", Status: strPtr("")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Status != "" {
		t.Errorf("expected explicit empty status to be kept, got %q", tr.Status)
	}
}

func TestService_CreateAppointment_KeepsOpenStatus(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.CreateAppointment(context.Background(), InsertAppointment{
		AppointmentDate: mustTimestamp(t, "2026-04-01"),
		AppointmentTime: "09:00",
		Service:         "Consultation",
		Status:          strPtr("rescheduled"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != "rescheduled" {
		t.Errorf("expected status to be stored as given, got %q", a.Status)
	}
	if a.PatientID != nil {
		t.Errorf("expected nil patient id, got %d", *a.PatientID)
	}
}

func TestService_CreateAppointment_RequiresDate(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateAppointment(context.Background(), InsertAppointment{
		AppointmentTime: "09:00",
		Service:         "Consultation",
	})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "appointmentDate" {
		t.Fatalf("expected appointmentDate ValidationError, got %v", err)
	}
}

func TestService_CreateAppointment_UnknownPatient(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateAppointment(context.Background(), InsertAppointment{
		PatientID:       i32Ptr(404),
		AppointmentDate: mustTimestamp(t, "2026-04-01"),
		AppointmentTime: "09:00",
		Service:         "Consultation",
	})
	var se *StorageError
	if !errors.As(err, &se) || se.Kind != KindInvalidReference {
		t.Fatalf("expected invalid_reference StorageError, got %v", err)
	}
}

func TestService_ListAppointmentsByPatient(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	alice := createTestPatient(t, svc, "alice")
	bob := createTestPatient(t, svc, "bob")

	for _, tc := range []struct {
		patient *Patient
		date    string
	}{
		{alice, "2026-05-01"},
		{bob, "2026-05-02"},
		{alice, "2026-06-01"},
		{alice, "2026-04-01"},
	} {
		if _, err := svc.CreateAppointment(ctx, InsertAppointment{
			PatientID:       &tc.patient.ID,
			AppointmentDate: mustTimestamp(t, tc.date),
			AppointmentTime: "10:00",
			Service:         "Checkup",
		}); err != nil {
			t.Fatalf("CreateAppointment: %v", err)
		}
	}

	items, err := svc.ListAppointmentsByPatient(ctx, alice.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 appointments, got %d", len(items))
	}
	for i, want := range []string{"2026-06-01", "2026-05-01", "2026-04-01"} {
		if got := items[i].AppointmentDate.Format("2006-01-02"); got != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got)
		}
		if *items[i].PatientID != alice.ID {
			t.Errorf("position %d: wrong patient %d", i, *items[i].PatientID)
		}
	}

	empty, err := svc.ListAppointmentsByPatient(ctx, 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestService_UpdateAppointment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a, err := svc.CreateAppointment(ctx, InsertAppointment{
		AppointmentDate: mustTimestamp(t, "2026-04-01"),
		AppointmentTime: "09:00",
		Service:         "Consultation",
		Notes:           strPtr("first visit"),
	})
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}

	updated, err := svc.UpdateAppointment(ctx, a.ID, AppointmentPatch{Status: NewField(AppointmentCompleted)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != AppointmentCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}
	if updated.Notes == nil || *updated.Notes != "first visit" {
		t.Errorf("notes should be unchanged, got %v", updated.Notes)
	}

	if _, err := svc.UpdateAppointment(ctx, a.ID, AppointmentPatch{Status: NullField[string]()}); err == nil {
		t.Error("expected null status to be rejected")
	}
}

// -- Treatments --

func TestService_CreateTreatment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	p := createTestPatient(t, svc, "erin")

	tr, err := svc.CreateTreatment(ctx, InsertTreatment{
		PatientID:     &p.ID,
		TreatmentName: "Root canal",
		Cost:          i32Ptr(45000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Status != TreatmentPlanned {
		t.Errorf("expected status %q, got %q", TreatmentPlanned, tr.Status)
	}
	if tr.Cost == nil || *tr.Cost != 45000 {
		t.Errorf("expected cost 45000, got %v", tr.Cost)
	}

	items, err := svc.ListTreatmentsByPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListTreatmentsByPatient: %v", err)
	}
	if len(items) != 1 || items[0].ID != tr.ID {
		t.Errorf("expected the created treatment, got %+v", items)
	}
}

func TestService_CreateTreatment_NegativeCost(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateTreatment(context.Background(), InsertTreatment{
		TreatmentName: "Whitening",
		Cost:          i32Ptr(-1),
	})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "cost" {
		t.Fatalf("expected cost ValidationError, got %v", err)
	}
}

func TestService_UpdateTreatment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tr, err := svc.CreateTreatment(ctx, InsertTreatment{TreatmentName: "Braces", Cost: i32Ptr(100)})
	if err != nil {
		t.Fatalf("CreateTreatment: %v", err)
	}

	done := mustTimestamp(t, "2026-07-01T12:00:00Z")
	updated, err := svc.UpdateTreatment(ctx, tr.ID, TreatmentPatch{
		Status:        NewField(TreatmentCompleted),
		CompletedDate: NewField(*done),
		Cost:          NullField[int32](),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != TreatmentCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}
	if updated.CompletedDate == nil || !updated.CompletedDate.Equal(done.Time) {
		t.Errorf("expected completed date %v, got %v", done.Time, updated.CompletedDate)
	}
	if updated.Cost != nil {
		t.Errorf("expected cost cleared, got %d", *updated.Cost)
	}
	if updated.TreatmentName != "Braces" {
		t.Errorf("treatment name should be unchanged, got %s", updated.TreatmentName)
	}

	if _, err := svc.GetTreatment(ctx, 50); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListTreatments_NewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, name := range []string{"a", "b"} {
		if _, err := svc.CreateTreatment(ctx, InsertTreatment{TreatmentName: name}); err != nil {
			t.Fatalf("CreateTreatment: %v", err)
		}
	}

	items, err := svc.ListTreatments(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].TreatmentName != "b" {
		t.Errorf("expected newest first, got %+v", items)
	}
}
