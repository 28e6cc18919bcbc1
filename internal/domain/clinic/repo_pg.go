package clinic

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// NewStoragePG wires every repository to the same pool.
func NewStoragePG(pool *pgxpool.Pool) *Storage {
	return &Storage{
		Users:        NewUserRepoPG(pool),
		Patients:     NewPatientRepoPG(pool),
		Appointments: NewAppointmentRepoPG(pool),
		Treatments:   NewTreatmentRepoPG(pool),
	}
}

// setList builds the SET clause of a partial UPDATE. $1 is reserved for the id.
type setList struct {
	cols []string
	args []interface{}
}

func (s *setList) add(col string, v interface{}) {
	s.args = append(s.args, v)
	s.cols = append(s.cols, fmt.Sprintf("%s = $%d", col, len(s.args)+1))
}

func (s *setList) sql(table, returning string) string {
	cols := append(s.cols, "updated_at = NOW()")
	return `UPDATE ` + table + ` SET ` + strings.Join(cols, ", ") + ` WHERE id = $1 RETURNING ` + returning
}

func addField[T any](s *setList, col string, f Field[T]) {
	if !f.Set {
		return
	}
	if f.Null {
		s.add(col, nil)
		return
	}
	s.add(col, f.Value)
}

func addTime(s *setList, col string, f Field[Timestamp]) {
	if !f.Set {
		return
	}
	if f.Null {
		s.add(col, nil)
		return
	}
	s.add(col, f.Value.Time)
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	items := []*T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// =========== Users ===========

type userRepoPG struct{ db queryable }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{db: pool}
}

const userCols = `id, username, password`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Password); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id int32) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	return u, storageErr("get user", err)
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
	return u, storageErr("get user by username", err)
}

func (r *userRepoPG) Create(ctx context.Context, in InsertUser) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		INSERT INTO users (username, password) VALUES ($1, $2)
		RETURNING `+userCols, in.Username, in.Password))
	return u, storageErr("create user", err)
}

// =========== Patients ===========

type patientRepoPG struct{ db queryable }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{db: pool}
}

const patientCols = `id, name, email, phone, date_of_birth, address, medical_history,
	created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.DateOfBirth, &p.Address,
		&p.MedicalHistory, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int32) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	return p, storageErr("get patient", err)
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE email = $1 ORDER BY id LIMIT 1`, email))
	return p, storageErr("get patient by email", err)
}

func (r *patientRepoPG) Create(ctx context.Context, in InsertPatient) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRow(ctx, `
		INSERT INTO patients (name, email, phone, date_of_birth, address, medical_history)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+patientCols,
		in.Name, in.Email, in.Phone, in.DateOfBirth.TimePtr(), in.Address, in.MedicalHistory))
	return p, storageErr("create patient", err)
}

func (r *patientRepoPG) Update(ctx context.Context, id int32, patch PatientPatch) (*Patient, error) {
	var s setList
	addField(&s, "name", patch.Name)
	addField(&s, "email", patch.Email)
	addField(&s, "phone", patch.Phone)
	addTime(&s, "date_of_birth", patch.DateOfBirth)
	addField(&s, "address", patch.Address)
	addField(&s, "medical_history", patch.MedicalHistory)

	args := append([]interface{}{id}, s.args...)
	p, err := scanPatient(r.db.QueryRow(ctx, s.sql("patients", patientCols), args...))
	return p, storageErr("update patient", err)
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.db.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageErr("list patients", err)
	}
	items, err := collect(rows, scanPatient)
	return items, storageErr("list patients", err)
}

// =========== Appointments ===========

type appointmentRepoPG struct{ db queryable }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{db: pool}
}

const appointmentCols = `id, patient_id, appointment_date, appointment_time, service, status, notes,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.AppointmentDate, &a.AppointmentTime, &a.Service,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int32) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	return a, storageErr("get appointment", err)
}

func (r *appointmentRepoPG) Create(ctx context.Context, in InsertAppointment) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, appointment_date, appointment_time, service, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+appointmentCols,
		in.PatientID, in.AppointmentDate.TimePtr(), in.AppointmentTime, in.Service, in.Status, in.Notes))
	return a, storageErr("create appointment", err)
}

func (r *appointmentRepoPG) Update(ctx context.Context, id int32, patch AppointmentPatch) (*Appointment, error) {
	var s setList
	addField(&s, "patient_id", patch.PatientID)
	addTime(&s, "appointment_date", patch.AppointmentDate)
	addField(&s, "appointment_time", patch.AppointmentTime)
	addField(&s, "service", patch.Service)
	addField(&s, "status", patch.Status)
	addField(&s, "notes", patch.Notes)

	args := append([]interface{}{id}, s.args...)
	a, err := scanAppointment(r.db.QueryRow(ctx, s.sql("appointments", appointmentCols), args...))
	return a, storageErr("update appointment", err)
}

func (r *appointmentRepoPG) List(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+appointmentCols+` FROM appointments
		ORDER BY appointment_date DESC, id DESC`)
	if err != nil {
		return nil, storageErr("list appointments", err)
	}
	items, err := collect(rows, scanAppointment)
	return items, storageErr("list appointments", err)
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID int32) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+appointmentCols+` FROM appointments
		WHERE patient_id = $1 ORDER BY appointment_date DESC, id DESC`, patientID)
	if err != nil {
		return nil, storageErr("list patient appointments", err)
	}
	items, err := collect(rows, scanAppointment)
	return items, storageErr("list patient appointments", err)
}

// =========== Treatments ===========

type treatmentRepoPG struct{ db queryable }

func NewTreatmentRepoPG(pool *pgxpool.Pool) TreatmentRepository {
	return &treatmentRepoPG{db: pool}
}

const treatmentCols = `id, patient_id, appointment_id, treatment_name, description, cost, status,
	start_date, completed_date, created_at, updated_at`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	err := row.Scan(&t.ID, &t.PatientID, &t.AppointmentID, &t.TreatmentName, &t.Description,
		&t.Cost, &t.Status, &t.StartDate, &t.CompletedDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *treatmentRepoPG) GetByID(ctx context.Context, id int32) (*Treatment, error) {
	t, err := scanTreatment(r.db.QueryRow(ctx, `SELECT `+treatmentCols+` FROM treatments WHERE id = $1`, id))
	return t, storageErr("get treatment", err)
}

func (r *treatmentRepoPG) Create(ctx context.Context, in InsertTreatment) (*Treatment, error) {
	t, err := scanTreatment(r.db.QueryRow(ctx, `
		INSERT INTO treatments (patient_id, appointment_id, treatment_name, description, cost,
			status, start_date, completed_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+treatmentCols,
		in.PatientID, in.AppointmentID, in.TreatmentName, in.Description, in.Cost,
		in.Status, in.StartDate.TimePtr(), in.CompletedDate.TimePtr()))
	return t, storageErr("create treatment", err)
}

func (r *treatmentRepoPG) Update(ctx context.Context, id int32, patch TreatmentPatch) (*Treatment, error) {
	var s setList
	addField(&s, "patient_id", patch.PatientID)
	addField(&s, "appointment_id", patch.AppointmentID)
	addField(&s, "treatment_name", patch.TreatmentName)
	addField(&s, "description", patch.Description)
	addField(&s, "cost", patch.Cost)
	addField(&s, "status", patch.Status)
	addTime(&s, "start_date", patch.StartDate)
	addTime(&s, "completed_date", patch.CompletedDate)

	args := append([]interface{}{id}, s.args...)
	t, err := scanTreatment(r.db.QueryRow(ctx, s.sql("treatments", treatmentCols), args...))
	return t, storageErr("update treatment", err)
}

func (r *treatmentRepoPG) List(ctx context.Context) ([]*Treatment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+treatmentCols+` FROM treatments ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageErr("list treatments", err)
	}
	items, err := collect(rows, scanTreatment)
	return items, storageErr("list treatments", err)
}

func (r *treatmentRepoPG) ListByPatient(ctx context.Context, patientID int32) ([]*Treatment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+treatmentCols+` FROM treatments
		WHERE patient_id = $1 ORDER BY created_at DESC, id DESC`, patientID)
	if err != nil {
		return nil, storageErr("list patient treatments", err)
	}
	items, err := collect(rows, scanTreatment)
	return items, storageErr("list patient treatments", err)
}
