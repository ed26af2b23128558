package itinerary

import (
	"net/http"

	"trip-planner/internal/models"
	"trip-planner/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for routes, stops and days.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new itinerary handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// routeParams reads the caller and the :routeId path parameter.
func routeParams(c echo.Context) (string, int64, error) {
	userID, err := utils.ExtractUserInfo(c)
	if err != nil {
		return "", 0, err
	}
	routeID, err := utils.ParseIDParam(c, "routeId")
	if err != nil {
		return "", 0, err
	}
	return userID, routeID, nil
}

func (h *Handler) ListRoutes(c echo.Context) error {
	userID, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	routes, err := h.svc.ListRoutes(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"routes": routes, "total": len(routes)})
}

func (h *Handler) CreateRoute(c echo.Context) error {
	userID, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateRouteRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.HandleServiceError(c, err)
	}

	route, err := h.svc.CreateRoute(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, route)
}

func (h *Handler) GetRoute(c echo.Context) error {
	userID, routeID, err := routeParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	detail, err := h.svc.GetRoute(c.Request().Context(), userID, routeID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, detail)
}

func (h *Handler) UpdateRoute(c echo.Context) error {
	userID, routeID, err := routeParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.UpdateRouteRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.HandleServiceError(c, err)
	}

	route, err := h.svc.UpdateRoute(c.Request().Context(), userID, routeID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, route)
}

func (h *Handler) DeleteRoute(c echo.Context) error {
	userID, routeID, err := routeParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	if err := h.svc.DeleteRoute(c.Request().Context(), userID, routeID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddStop(c echo.Context) error {
	userID, routeID, err := routeParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.AddStopRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.HandleServiceError(c, err)
	}

	stop, err := h.svc.AddStop(c.Request().Context(), userID, routeID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, stop)
}

func (h *Handler) RemoveStop(c echo.Context) error {
	userID, routeID, err := routeParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	stopID, err := utils.ParseIDParam(c, "stopId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	if err := h.svc.RemoveStop(c.Request().Context(), userID, routeID, stopID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateStop(c echo.Context) error {
	userID, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	stopID, err := utils.ParseIDParam(c, "stopId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.UpdateStopRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.HandleServiceError(c, err)
	}

	stop, err := h.svc.UpdateStop(c.Request().Context(), userID, stopID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, stop)
}

func (h *Handler) AddDay(c echo.Context) error {
	userID, routeID, err := routeParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	resp, err := h.svc.AddDay(c.Request().Context(), userID, routeID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, resp)
}

func (h *Handler) RemoveDay(c echo.Context) error {
	userID, routeID, err := routeParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	day, err := utils.ParseIntParam(c, "day")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	if err := h.svc.RemoveDay(c.Request().Context(), userID, routeID, day); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ReorderDay(c echo.Context) error {
	userID, routeID, err := routeParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	day, err := utils.ParseIntParam(c, "day")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.ReorderDayRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.HandleServiceError(c, err)
	}

	if err := h.svc.ReorderDay(c.Request().Context(), userID, routeID, day, req.StopIDs); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) OptimizeDay(c echo.Context) error {
	userID, routeID, err := routeParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	day, err := utils.ParseIntParam(c, "day")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	result, err := h.svc.OptimizeDay(c.Request().Context(), userID, routeID, day)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, result)
}
