package appointment

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caredesk/caredesk/internal/domain/directory"
	"github.com/caredesk/caredesk/internal/platform/apperr"
	"github.com/caredesk/caredesk/internal/platform/auth"
	"github.com/caredesk/caredesk/pkg/pagination"
)

// AvailabilityReader supplies the doctor's schedule for today. The
// admin detail view attaches it as context; a missing schedule is not
// an error condition.
type AvailabilityReader interface {
	GetToday(ctx context.Context, doctorID uuid.UUID) (*directory.DaySchedule, error)
}

type Handler struct {
	svc   *Service
	avail AvailabilityReader
}

func NewHandler(svc *Service, avail AvailabilityReader) *Handler {
	return &Handler{svc: svc, avail: avail}
}

// RegisterRoutes mounts the patient endpoints on api (JWT already
// applied), the doctor endpoints on doctor and the management
// endpoints on admin.
func (h *Handler) RegisterRoutes(api, doctor, admin *echo.Group) {
	api.POST("/appointments", h.CreateAppointment)
	api.GET("/appointments", h.ListOwnAppointments)
	api.POST("/appointments/:id/cancel", h.CancelAppointment)
	api.POST("/appointments/:id/reschedule", h.RescheduleAppointment)

	doc := doctor.Group("", auth.RequireRole(auth.RoleDoctor))
	doc.GET("/appointments", h.ListDoctorAppointments)
	doc.PUT("/appointments/:id", h.UpdateByDoctor)

	mgmt := admin.Group("", auth.RequireRole(auth.RoleAdmin))
	mgmt.GET("/appointments", h.ListAllAppointments)
	mgmt.GET("/appointments/:id", h.GetAppointment)
	mgmt.PUT("/appointments/:id", h.UpdateByAdmin)
	mgmt.DELETE("/appointments/:id", h.DeleteAppointment)
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return auth.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

type createRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Reason          string    `json:"reason"`
	Notes           string    `json:"notes"`
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.AppointmentDate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_date is required")
	}
	date, err := parseDate(req.AppointmentDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_date must be YYYY-MM-DD")
	}
	a, err := h.svc.Create(c.Request().Context(), p, CreateInput{
		DoctorID:        req.DoctorID,
		AppointmentDate: date,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
		Notes:           req.Notes,
	})
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "appointment": a})
}

func (h *Handler) ListOwnAppointments(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListForUser(c.Request().Context(), p)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "appointments": items})
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	a, err := h.svc.Cancel(c.Request().Context(), p, id)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "appointment": a})
}

type rescheduleRequest struct {
	NewDate string `json:"new_date"`
}

func (h *Handler) RescheduleAppointment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.NewDate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "new_date is required")
	}
	date, err := parseDate(req.NewDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "new_date must be YYYY-MM-DD")
	}
	a, err := h.svc.Reschedule(c.Request().Context(), p, id, date)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "appointment": a})
}

func (h *Handler) ListDoctorAppointments(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListForDoctor(c.Request().Context(), p)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "appointments": items})
}

type doctorUpdateRequest struct {
	Status          *string `json:"status"`
	AppointmentTime *string `json:"appointment_time"`
	Notes           *string `json:"notes"`
}

func (h *Handler) UpdateByDoctor(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req doctorUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateByDoctor(c.Request().Context(), p, id, DoctorInput{
		Status:          req.Status,
		AppointmentTime: req.AppointmentTime,
		Notes:           req.Notes,
	})
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "appointment": a})
}

func (h *Handler) ListAllAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAll(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"appointments": pagination.NewResponse(items, total, pg.Limit, pg.Offset),
	})
}

// GetAppointment returns the record plus the treating doctor's schedule
// for today when one exists.
func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	resp := echo.Map{"success": true, "appointment": a}
	if h.avail != nil {
		if sched, err := h.avail.GetToday(c.Request().Context(), a.DoctorID); err == nil && sched != nil {
			resp["availability_today"] = sched
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type adminUpdateRequest struct {
	DoctorID        *uuid.UUID `json:"doctor_id"`
	AppointmentDate *string    `json:"appointment_date"`
	AppointmentTime *string    `json:"appointment_time"`
	Reason          *string    `json:"reason"`
	Status          *string    `json:"status"`
	Notes           *string    `json:"notes"`
}

func (h *Handler) UpdateByAdmin(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req adminUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in := AdminInput{
		DoctorID:        req.DoctorID,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
		Status:          req.Status,
		Notes:           req.Notes,
	}
	if req.AppointmentDate != nil {
		date, err := parseDate(*req.AppointmentDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "appointment_date must be YYYY-MM-DD")
		}
		in.AppointmentDate = &date
	}
	a, err := h.svc.UpdateByAdmin(c.Request().Context(), id, in)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "appointment": a})
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "appointment deleted"})
}
