package symptom

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/symptom-checks", h.Check)
	api.GET("/symptom-checks/specialties", h.ListSpecialties)
	api.GET("/symptom-checks/specialties/:specialty/symptoms", h.SymptomsForSpecialty)

	authed := api.Group("", auth.RequireAuth())
	authed.GET("/symptom-checks", h.History)
}

type checkRequest struct {
	Symptoms string `json:"symptoms"`
}

// Check is open to anonymous callers; authenticated checks are recorded.
func (h *Handler) Check(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, err := callerID(c, false)
	if err != nil {
		return apperr.HTTP(err)
	}
	res, err := h.svc.Check(c.Request().Context(), userID, req.Symptoms)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) History(c echo.Context) error {
	userID, err := callerID(c, true)
	if err != nil {
		return apperr.HTTP(err)
	}
	items, err := h.svc.History(c.Request().Context(), userID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"checks": items})
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"specialties": h.svc.Analyzer().Specialties()})
}

func (h *Handler) SymptomsForSpecialty(c echo.Context) error {
	spec := c.Param("specialty")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"specialty": spec,
		"symptoms":  h.svc.Analyzer().SymptomsForSpecialty(spec),
	})
}

// callerID returns uuid.Nil for anonymous callers unless required is set.
func callerID(c echo.Context, required bool) (uuid.UUID, error) {
	raw := auth.UserIDFromContext(c.Request().Context())
	if raw == "" {
		if required {
			return uuid.Nil, apperr.ErrUnauthenticated
		}
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.ErrUnauthenticated
	}
	return id, nil
}
