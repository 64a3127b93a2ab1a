package availability

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smarthealth/clinic/internal/domain/directory"
	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	actors directory.ActorResolver
}

func NewHandler(svc *Service, actors directory.ActorResolver) *Handler {
	return &Handler{svc: svc, actors: actors}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors/:id/time-slots", h.ListForDoctor)

	doctorGroup := api.Group("", auth.RequireRole(string(directory.RoleDoctor)))
	doctorGroup.POST("/time-slots", h.DefineSlot)
	doctorGroup.PATCH("/time-slots/:id", h.ToggleAvailability)
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListForDoctor(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*TimeSlot{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"time_slots": items})
}

type defineRequest struct {
	DayOfWeek *int   `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
}

func (h *Handler) DefineSlot(c echo.Context) error {
	var req defineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return apperr.HTTP(err)
	}
	actor, err := directory.CurrentActor(c, h.actors)
	if err != nil {
		return apperr.HTTP(err)
	}
	t, err := h.svc.DefineSlot(c.Request().Context(), actor, Weekday(*req.DayOfWeek), req.StartTime)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, t)
}

type toggleRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

func (h *Handler) ToggleAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return apperr.HTTP(err)
	}
	actor, err := directory.CurrentActor(c, h.actors)
	if err != nil {
		return apperr.HTTP(err)
	}
	t, err := h.svc.ToggleAvailability(c.Request().Context(), actor, id, *req.IsAvailable)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}
