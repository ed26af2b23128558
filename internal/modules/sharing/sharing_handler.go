package sharing

import (
	"net/http"

	"trip-planner/internal/models"
	"trip-planner/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for sharing routes.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new sharing handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ShareRoute(c echo.Context) error {
	userID, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	routeID, err := utils.ParseIDParam(c, "routeId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.ShareRouteRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.HandleServiceError(c, err)
	}

	if err := h.svc.ShareRoute(c.Request().Context(), userID, routeID, req); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusAccepted, map[string]string{"message": "Itinerary sent to " + req.Email})
}
