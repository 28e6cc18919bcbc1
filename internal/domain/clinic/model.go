package clinic

import "time"

const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

const (
	TreatmentPlanned    = "planned"
	TreatmentInProgress = "in_progress"
	TreatmentCompleted  = "completed"
)

// User maps to the users table. The password is stored as supplied.
type User struct {
	ID       int32  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
}

// Patient maps to the patients table.
type Patient struct {
	ID             int32      `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"dateOfBirth"`
	Address        *string    `db:"address" json:"address"`
	MedicalHistory *string    `db:"medical_history" json:"medicalHistory"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// Appointment maps to the appointments table. Status is an open string;
// the constants above are the values the admin panel uses.
type Appointment struct {
	ID              int32     `db:"id" json:"id"`
	PatientID       *int32    `db:"patient_id" json:"patientId"`
	AppointmentDate time.Time `db:"appointment_date" json:"appointmentDate"`
	AppointmentTime string    `db:"appointment_time" json:"appointmentTime"`
	Service         string    `db:"service" json:"service"`
	Status          string    `db:"status" json:"status"`
	Notes           *string   `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// Treatment maps to the treatments table. Cost is in cents.
type Treatment struct {
	ID            int32      `db:"id" json:"id"`
	PatientID     *int32     `db:"patient_id" json:"patientId"`
	AppointmentID *int32     `db:"appointment_id" json:"appointmentId"`
	TreatmentName string     `db:"treatment_name" json:"treatmentName"`
	Description   *string    `db:"description" json:"description"`
	Cost          *int32     `db:"cost" json:"cost"`
	Status        string     `db:"status" json:"status"`
	StartDate     *time.Time `db:"start_date" json:"startDate"`
	CompletedDate *time.Time `db:"completed_date" json:"completedDate"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}
