package directory

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/auth"
	"github.com/smarthealth/clinic/pkg/pagination"
)

// ActorResolver is implemented by *Service; other domains' handlers depend
// on it to identify the caller.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID string, roles []string) (Actor, error)
}

// CurrentActor resolves the Actor of the request.
func CurrentActor(c echo.Context, r ActorResolver) (Actor, error) {
	ctx := c.Request().Context()
	return r.ResolveActor(ctx, auth.UserIDFromContext(ctx), auth.RolesFromContext(ctx))
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/specialties", h.ListSpecialties)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)

	doctorGroup := api.Group("", auth.RequireRole(string(RoleDoctor)))
	doctorGroup.PATCH("/doctors/me/availability", h.SetAvailability)
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"specialties": Specialties()})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), c.QueryParam("specialization"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

func (h *Handler) SetAvailability(c echo.Context) error {
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return apperr.HTTP(err)
	}
	actor, err := CurrentActor(c, h.svc)
	if err != nil {
		return apperr.HTTP(err)
	}
	d, err := h.svc.SetAvailability(c.Request().Context(), actor, *req.IsAvailable)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}
