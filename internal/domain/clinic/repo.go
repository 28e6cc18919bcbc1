package clinic

import "context"

type UserRepository interface {
	GetByID(ctx context.Context, id int32) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, in InsertUser) (*User, error)
}

type PatientRepository interface {
	GetByID(ctx context.Context, id int32) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	Create(ctx context.Context, in InsertPatient) (*Patient, error)
	Update(ctx context.Context, id int32, patch PatientPatch) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
}

type AppointmentRepository interface {
	GetByID(ctx context.Context, id int32) (*Appointment, error)
	Create(ctx context.Context, in InsertAppointment) (*Appointment, error)
	Update(ctx context.Context, id int32, patch AppointmentPatch) (*Appointment, error)
	List(ctx context.Context) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID int32) ([]*Appointment, error)
}

type TreatmentRepository interface {
	GetByID(ctx context.Context, id int32) (*Treatment, error)
	Create(ctx context.Context, in InsertTreatment) (*Treatment, error)
	Update(ctx context.Context, id int32, patch TreatmentPatch) (*Treatment, error)
	List(ctx context.Context) ([]*Treatment, error)
	ListByPatient(ctx context.Context, patientID int32) ([]*Treatment, error)
}

// Storage groups the repositories backed by one store.
type Storage struct {
	Users        UserRepository
	Patients     PatientRepository
	Appointments AppointmentRepository
	Treatments   TreatmentRepository
}
