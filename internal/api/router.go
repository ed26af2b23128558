package api

import (
	"context"
	"net/http"
	"time"

	"trip-planner/internal/api/middleware"
	"trip-planner/internal/modules/itinerary"
	"trip-planner/internal/modules/sharing"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports whether the persistence store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	jwtSecret string,
	health HealthChecker,
	itineraryHandler *itinerary.Handler,
	sharingHandler *sharing.Handler,
) {
	authMiddleware := middleware.JWTAuth(jwtSecret)
	requireUser := middleware.RequireUser()

	// --- Public Routes ---
	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := health.HealthCheck(ctx); err != nil {
			c.Logger().Error("health check failed: ", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Route (Itinerary) Routes ---
	routeGroup := e.Group("/routes", authMiddleware, requireUser)
	{
		routeGroup.GET("", itineraryHandler.ListRoutes)
		routeGroup.POST("", itineraryHandler.CreateRoute)
		routeGroup.GET("/:routeId", itineraryHandler.GetRoute)
		routeGroup.PATCH("/:routeId", itineraryHandler.UpdateRoute)
		routeGroup.DELETE("/:routeId", itineraryHandler.DeleteRoute)

		// Stops
		routeGroup.POST("/:routeId/stops", itineraryHandler.AddStop)
		routeGroup.DELETE("/:routeId/stops/:stopId", itineraryHandler.RemoveStop)

		// Days
		routeGroup.POST("/:routeId/days", itineraryHandler.AddDay)
		routeGroup.DELETE("/:routeId/days/:day", itineraryHandler.RemoveDay)
		routeGroup.PUT("/:routeId/days/:day/order", itineraryHandler.ReorderDay)
		routeGroup.POST("/:routeId/days/:day/optimize", itineraryHandler.OptimizeDay)

		routeGroup.POST("/:routeId/share", sharingHandler.ShareRoute)
	}

	stopGroup := e.Group("/stops", authMiddleware, requireUser)
	{
		stopGroup.PATCH("/:stopId", itineraryHandler.UpdateStop)
	}
}
