package timetable

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caredesk/caredesk/internal/platform/apperr"
	"github.com/caredesk/caredesk/internal/platform/auth"
)

type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// RegisterRoutes mounts the public per-doctor view on api and the
// self-service endpoints on the authenticated doctor group.
func (h *Handler) RegisterRoutes(api, doctor *echo.Group) {
	api.GET("/doctors/:id/timetable", h.GetDoctorTimetable)

	own := doctor.Group("", auth.RequireRole(auth.RoleDoctor))
	own.GET("/timetable", h.GetOwnTimetable)
	own.PUT("/timetable", h.SetOwnTimetable)
}

// GetDoctorTimetable returns today's schedule for a doctor, null when
// none is published.
func (h *Handler) GetDoctorTimetable(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	sched, err := h.resolver.GetToday(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "schedule": sched})
}

func (h *Handler) GetOwnTimetable(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	sched, err := h.resolver.GetOwnToday(c.Request().Context(), p)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "schedule": sched})
}

func (h *Handler) SetOwnTimetable(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var in SetInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sched, err := h.resolver.SetToday(c.Request().Context(), p, in)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "schedule": sched})
}
