package directory

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caredesk/caredesk/internal/platform/apperr"
	"github.com/caredesk/caredesk/internal/platform/auth"
	"github.com/caredesk/caredesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public read endpoints on api and the
// management endpoints on the authenticated admin group.
func (h *Handler) RegisterRoutes(api *echo.Group, admin *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)

	mgmt := admin.Group("", auth.RequireRole(auth.RoleAdmin))
	mgmt.GET("/doctors", h.ListDoctors)
	mgmt.POST("/doctors", h.CreateDoctor)
	mgmt.GET("/doctors/:id", h.GetDoctor)
	mgmt.PUT("/doctors/:id", h.UpdateDoctor)
	mgmt.DELETE("/doctors/:id", h.DeleteDoctor)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "doctor": d})
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "doctor": d})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"doctors": pagination.NewResponse(items, total, pg.Limit, pg.Offset),
	})
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	var upd DoctorUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.Update(c.Request().Context(), id, upd)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "doctor": d})
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "doctor profile deleted"})
}
