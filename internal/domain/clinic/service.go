package clinic

import (
	"context"
)

type Service struct {
	users        UserRepository
	patients     PatientRepository
	appointments AppointmentRepository
	treatments   TreatmentRepository
}

func NewService(users UserRepository, patients PatientRepository, appointments AppointmentRepository, treatments TreatmentRepository) *Service {
	return &Service{
		users:        users,
		patients:     patients,
		appointments: appointments,
		treatments:   treatments,
	}
}

// NewServiceFromStorage is a convenience for the common case of one store.
func NewServiceFromStorage(s *Storage) *Service {
	return NewService(s.Users, s.Patients, s.Appointments, s.Treatments)
}

// -- Users --

func (s *Service) CreateUser(ctx context.Context, in InsertUser) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.users.Create(ctx, in)
}

func (s *Service) GetUser(ctx context.Context, id int32) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.users.GetByUsername(ctx, username)
}

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, in InsertPatient) (*Patient, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.patients.Create(ctx, in)
}

func (s *Service) GetPatient(ctx context.Context, id int32) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	return s.patients.GetByEmail(ctx, email)
}

func (s *Service) UpdatePatient(ctx context.Context, id int32, patch PatientPatch) (*Patient, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.patients.Update(ctx, id, patch)
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

// -- Appointments --

func (s *Service) CreateAppointment(ctx context.Context, in InsertAppointment) (*Appointment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Status == nil {
		in.Status = strPtrOf(AppointmentScheduled)
	}
	return s.appointments.Create(ctx, in)
}

func (s *Service) GetAppointment(ctx context.Context, id int32) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) UpdateAppointment(ctx context.Context, id int32, patch AppointmentPatch) (*Appointment, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.appointments.Update(ctx, id, patch)
}

func (s *Service) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	return s.appointments.List(ctx)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID int32) ([]*Appointment, error) {
	return s.appointments.ListByPatient(ctx, patientID)
}

// -- Treatments --

func (s *Service) CreateTreatment(ctx context.Context, in InsertTreatment) (*Treatment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Status == nil {
		in.Status = strPtrOf(TreatmentPlanned)
	}
	return s.treatments.Create(ctx, in)
}

func (s *Service) GetTreatment(ctx context.Context, id int32) (*Treatment, error) {
	return s.treatments.GetByID(ctx, id)
}

func (s *Service) UpdateTreatment(ctx context.Context, id int32, patch TreatmentPatch) (*Treatment, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.treatments.Update(ctx, id, patch)
}

func (s *Service) ListTreatments(ctx context.Context) ([]*Treatment, error) {
	return s.treatments.List(ctx)
}

func (s *Service) ListTreatmentsByPatient(ctx context.Context, patientID int32) ([]*Treatment, error) {
	return s.treatments.ListByPatient(ctx, patientID)
}

// strPtrOf is used for defaults applied only when the key was absent; an
// explicit "" is stored as sent.
func strPtrOf(s string) *string { return &s }
