package clinic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Reason: reasonFor(fe)}
	}
	return &ValidationError{Reason: err.Error()}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// -- Timestamps --

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Timestamp accepts ISO-8601 date or date-time strings and normalizes them
// to UTC. An empty string decodes to the zero value, which is treated as null.
type Timestamp struct {
	time.Time
}

func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("timestamp must be a string")
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimePtr returns nil for a nil or zero Timestamp.
func (t *Timestamp) TimePtr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func (t Timestamp) isNull() bool { return t.IsZero() }

// -- Patch fields --

// Field is one key of a partial update. Set reports whether the key was
// present in the request; Null reports an explicit null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func NewField[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func NullField[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	var zero T
	f.Value = zero
	if string(b) == "null" {
		f.Null = true
		return nil
	}
	f.Null = false
	if err := json.Unmarshal(b, &f.Value); err != nil {
		return err
	}
	if n, ok := any(f.Value).(interface{ isNull() bool }); ok && n.isNull() {
		f.Null = true
	}
	return nil
}

// Ptr returns nil when the field is null.
func (f Field[T]) Ptr() *T {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}

func requiredText(name string, f Field[string]) error {
	if f.Set && (f.Null || strings.TrimSpace(f.Value) == "") {
		return &ValidationError{Field: name, Reason: "is required"}
	}
	return nil
}

func notNull[T any](name string, f Field[T]) error {
	if f.Set && f.Null {
		return &ValidationError{Field: name, Reason: "must not be null"}
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// -- Users --

type InsertUser struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

func (in InsertUser) Validate() error { return validateStruct(in) }

// -- Patients --

type InsertPatient struct {
	Name           string     `json:"name" validate:"required,notblank"`
	Email          string     `json:"email" validate:"required,notblank"`
	Phone          string     `json:"phone" validate:"required,notblank"`
	DateOfBirth    *Timestamp `json:"dateOfBirth" validate:"-"`
	Address        *string    `json:"address"`
	MedicalHistory *string    `json:"medicalHistory"`
}

func (in InsertPatient) Validate() error { return validateStruct(in) }

type PatientPatch struct {
	Name           Field[string]    `json:"name"`
	Email          Field[string]    `json:"email"`
	Phone          Field[string]    `json:"phone"`
	DateOfBirth    Field[Timestamp] `json:"dateOfBirth"`
	Address        Field[string]    `json:"address"`
	MedicalHistory Field[string]    `json:"medicalHistory"`
}

func (p PatientPatch) Validate() error {
	return firstErr(
		requiredText("name", p.Name),
		requiredText("email", p.Email),
		requiredText("phone", p.Phone),
	)
}

// -- Appointments --

type InsertAppointment struct {
	PatientID       *int32     `json:"patientId"`
	AppointmentDate *Timestamp `json:"appointmentDate" validate:"-"`
	AppointmentTime string     `json:"appointmentTime" validate:"required,notblank"`
	Service         string     `json:"service" validate:"required,notblank"`
	Status          *string    `json:"status"`
	Notes           *string    `json:"notes"`
}

func (in InsertAppointment) Validate() error {
	if in.AppointmentDate.TimePtr() == nil {
		return &ValidationError{Field: "appointmentDate", Reason: "is required"}
	}
	return validateStruct(in)
}

type AppointmentPatch struct {
	PatientID       Field[int32]     `json:"patientId"`
	AppointmentDate Field[Timestamp] `json:"appointmentDate"`
	AppointmentTime Field[string]    `json:"appointmentTime"`
	Service         Field[string]    `json:"service"`
	Status          Field[string]    `json:"status"`
	Notes           Field[string]    `json:"notes"`
}

func (p AppointmentPatch) Validate() error {
	return firstErr(
		notNull("appointmentDate", p.AppointmentDate),
		requiredText("appointmentTime", p.AppointmentTime),
		requiredText("service", p.Service),
		notNull("status", p.Status),
	)
}

// -- Treatments --

type InsertTreatment struct {
	PatientID     *int32     `json:"patientId"`
	AppointmentID *int32     `json:"appointmentId"`
	TreatmentName string     `json:"treatmentName" validate:"required,notblank"`
	Description   *string    `json:"description"`
	Cost          *int32     `json:"cost" validate:"omitempty,min=0"`
	Status        *string    `json:"status"`
	StartDate     *Timestamp `json:"startDate" validate:"-"`
	CompletedDate *Timestamp `json:"completedDate" validate:"-"`
}

func (in InsertTreatment) Validate() error { return validateStruct(in) }

type TreatmentPatch struct {
	PatientID     Field[int32]     `json:"patientId"`
	AppointmentID Field[int32]     `json:"appointmentId"`
	TreatmentName Field[string]    `json:"treatmentName"`
	Description   Field[string]    `json:"description"`
	Cost          Field[int32]     `json:"cost"`
	Status        Field[string]    `json:"status"`
	StartDate     Field[Timestamp] `json:"startDate"`
	CompletedDate Field[Timestamp] `json:"completedDate"`
}

func (p TreatmentPatch) Validate() error {
	if p.Cost.Set && !p.Cost.Null && p.Cost.Value < 0 {
		return &ValidationError{Field: "cost", Reason: "must be at least 0"}
	}
	return firstErr(
		requiredText("treatmentName", p.TreatmentName),
		notNull("status", p.Status),
	)
}

// -- Decoding --

// decodeJSON reads exactly one JSON value from r. Unknown keys are ignored, an
// empty body decodes as {} and anything after the value is rejected.
func decodeJSON(r io.Reader, dst interface{}) error {
	if r == nil {
		return nil
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{Field: typeErr.Field, Reason: "must be " + typeErr.Type.String()}
		}
		return &ValidationError{Reason: err.Error()}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &ValidationError{Reason: "unexpected data after JSON body"}
	}
	return nil
}

// JSONSerializer makes c.Bind decode request bodies with decodeJSON so patch
// fields see absent keys, explicit nulls and trailing data the same way
// everywhere. Responses use echo's encoder.
type JSONSerializer struct {
	echo.DefaultJSONSerializer
}

func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	return decodeJSON(c.Request().Body, i)
}
