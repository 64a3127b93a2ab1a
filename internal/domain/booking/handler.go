package booking

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smarthealth/clinic/internal/domain/directory"
	"github.com/smarthealth/clinic/internal/domain/timeslot"
	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/auth"
	"github.com/smarthealth/clinic/pkg/pagination"
)

type Handler struct {
	engine *Engine
	actors directory.ActorResolver
}

func NewHandler(engine *Engine, actors directory.ActorResolver) *Handler {
	return &Handler{engine: engine, actors: actors}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments/available-slots", h.AvailableSlots)

	authed := api.Group("", auth.RequireAuth())
	authed.GET("/appointments", h.List)
	authed.GET("/appointments/:id", h.Get)
	authed.POST("/appointments/:id/cancel", h.Cancel)

	patients := api.Group("", auth.RequireRole(string(directory.RolePatient)))
	patients.POST("/appointments", h.Book)
	patients.PUT("/appointments/:id", h.Edit)

	doctors := api.Group("", auth.RequireRole(string(directory.RoleDoctor)))
	doctors.PATCH("/appointments/:id/status", h.UpdateStatus)
}

// slotsResponse keeps the slot picker contract: always 200, errors in-band.
type slotsResponse struct {
	Slots []timeslot.Choice `json:"slots"`
	Error string            `json:"error,omitempty"`
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	rawDoctor, rawDate := c.QueryParam("doctor_id"), c.QueryParam("date")
	if rawDoctor == "" || rawDate == "" {
		return c.JSON(http.StatusOK, slotsResponse{Slots: []timeslot.Choice{}, Error: "Missing parameters"})
	}
	doctorID, err := uuid.Parse(rawDoctor)
	if err != nil {
		return c.JSON(http.StatusOK, slotsResponse{Slots: []timeslot.Choice{}, Error: "Invalid parameters"})
	}
	date, err := ParseDate(rawDate)
	if err != nil {
		return c.JSON(http.StatusOK, slotsResponse{Slots: []timeslot.Choice{}, Error: "Invalid parameters"})
	}

	slots, err := h.engine.AvailableSlots(c.Request().Context(), doctorID, date)
	if errors.Is(err, apperr.ErrNotFound) {
		return c.JSON(http.StatusOK, slotsResponse{Slots: []timeslot.Choice{}, Error: "Invalid parameters"})
	}
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, slotsResponse{Slots: slots})
}

func (h *Handler) Book(c echo.Context) error {
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor, err := directory.CurrentActor(c, h.actors)
	if err != nil {
		return apperr.HTTP(err)
	}
	a, err := h.engine.Book(c.Request().Context(), actor, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := directory.CurrentActor(c, h.actors)
	if err != nil {
		return apperr.HTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.engine.List(c.Request().Context(), actor, c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor, err := directory.CurrentActor(c, h.actors)
	if err != nil {
		return apperr.HTTP(err)
	}
	a, err := h.engine.Get(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Edit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req EditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor, err := directory.CurrentActor(c, h.actors)
	if err != nil {
		return apperr.HTTP(err)
	}
	a, err := h.engine.Edit(c.Request().Context(), actor, id, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor, err := directory.CurrentActor(c, h.actors)
	if err != nil {
		return apperr.HTTP(err)
	}
	a, err := h.engine.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req StatusUpdate
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
	a, err := h.engine.UpdateStatus(c.Request().Context(), actor, id, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}
