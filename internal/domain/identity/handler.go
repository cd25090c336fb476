package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caredesk/caredesk/internal/platform/apperr"
	"github.com/caredesk/caredesk/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the signup and login endpoints on the public
// group and /auth/me on the authenticated one.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/doctor/register", h.RegisterDoctor)
	public.POST("/auth/login", h.Login)

	api.GET("/auth/me", h.Me)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, tok, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "user": u, "token": tok})
}

func (h *Handler) RegisterDoctor(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, tok, err := h.svc.RegisterDoctor(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "user": u, "token": tok})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, tok, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u, "token": tok})
}

func (h *Handler) Me(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	u, err := h.svc.Me(c.Request().Context(), p)
	if err != nil {
		return echo.NewHTTPError(apperr.Status(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u})
}
