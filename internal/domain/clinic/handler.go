package clinic

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.POST("/patients", h.CreatePatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.GET("/patients/:id/appointments", h.ListPatientAppointments)
	api.GET("/patients/:id/treatments", h.ListPatientTreatments)

	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.POST("/appointments", h.CreateAppointment)
	api.PUT("/appointments/:id", h.UpdateAppointment)

	api.GET("/treatments", h.ListTreatments)
	api.GET("/treatments/:id", h.GetTreatment)
	api.POST("/treatments", h.CreateTreatment)
	api.PUT("/treatments/:id", h.UpdateTreatment)
}

func parseID(c echo.Context) (int32, error) {
	n, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, &ValidationError{Field: "id", Reason: "must be an integer"}
	}
	return int32(n), nil
}

// readError maps a read failure to 404 for a missing record and 500 otherwise.
// Lists pass an empty notFound message since they never report absence.
func readError(err error, notFound, failed string) error {
	if notFound != "" && errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, notFound).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, failed).SetInternal(err)
}

// writeError reports every create/update failure with the same 400 message.
func writeError(err error, msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg).SetInternal(err)
}

// -- Patients --

func (h *Handler) ListPatients(c echo.Context) error {
	items, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return readError(err, "", "Failed to fetch patients")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found").SetInternal(err)
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return readError(err, "Patient not found", "Failed to fetch patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var in InsertPatient
	if err := c.Bind(&in); err != nil {
		return writeError(err, "Invalid patient data")
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), in)
	if err != nil {
		return writeError(err, "Invalid patient data")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(err, "Invalid patient data")
	}
	var patch PatientPatch
	if err := c.Bind(&patch); err != nil {
		return writeError(err, "Invalid patient data")
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, patch)
	if err != nil {
		return writeError(err, "Invalid patient data")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid patient id").SetInternal(err)
	}
	items, err := h.svc.ListAppointmentsByPatient(c.Request().Context(), id)
	if err != nil {
		return readError(err, "", "Failed to fetch patient appointments")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPatientTreatments(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid patient id").SetInternal(err)
	}
	items, err := h.svc.ListTreatmentsByPatient(c.Request().Context(), id)
	if err != nil {
		return readError(err, "", "Failed to fetch patient treatments")
	}
	return c.JSON(http.StatusOK, items)
}

// -- Appointments --

func (h *Handler) ListAppointments(c echo.Context) error {
	items, err := h.svc.ListAppointments(c.Request().Context())
	if err != nil {
		return readError(err, "", "Failed to fetch appointments")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found").SetInternal(err)
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return readError(err, "Appointment not found", "Failed to fetch appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var in InsertAppointment
	if err := c.Bind(&in); err != nil {
		return writeError(err, "Invalid appointment data")
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), in)
	if err != nil {
		return writeError(err, "Invalid appointment data")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(err, "Invalid appointment data")
	}
	var patch AppointmentPatch
	if err := c.Bind(&patch); err != nil {
		return writeError(err, "Invalid appointment data")
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), id, patch)
	if err != nil {
		return writeError(err, "Invalid appointment data")
	}
	return c.JSON(http.StatusOK, a)
}

// -- Treatments --

func (h *Handler) ListTreatments(c echo.Context) error {
	items, err := h.svc.ListTreatments(c.Request().Context())
	if err != nil {
		return readError(err, "", "Failed to fetch treatments")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetTreatment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Treatment not found").SetInternal(err)
	}
	t, err := h.svc.GetTreatment(c.Request().Context(), id)
	if err != nil {
		return readError(err, "Treatment not found", "Failed to fetch treatment")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) CreateTreatment(c echo.Context) error {
	var in InsertTreatment
	if err := c.Bind(&in); err != nil {
		return writeError(err, "Invalid treatment data")
	}
	t, err := h.svc.CreateTreatment(c.Request().Context(), in)
	if err != nil {
		return writeError(err, "Invalid treatment data")
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) UpdateTreatment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(err, "Invalid treatment data")
	}
	var patch TreatmentPatch
	if err := c.Bind(&patch); err != nil {
		return writeError(err, "Invalid treatment data")
	}
	t, err := h.svc.UpdateTreatment(c.Request().Context(), id, patch)
	if err != nil {
		return writeError(err, "Invalid treatment data")
	}
	return c.JSON(http.StatusOK, t)
}
