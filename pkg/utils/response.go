package utils

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"trip-planner/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithError writes an error body with the given status.
func RespondWithError(c echo.Context, code int, message string) error {
	return c.JSON(code, models.ErrorResponse{Message: message})
}

// RespondWithJSON writes payload as JSON with the given status.
func RespondWithJSON(c echo.Context, code int, payload interface{}) error {
	return c.JSON(code, payload)
}

// HandleServiceError maps an error returned by a service to an HTTP response.
// An *echo.HTTPError is handed back to echo unchanged.
func HandleServiceError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var kindErr *models.Error
	if errors.As(err, &kindErr) {
		code := http.StatusInternalServerError
		switch kindErr.Kind {
		case models.ErrNotFound:
			code = http.StatusNotFound
		case models.ErrInvalidArgument:
			code = http.StatusBadRequest
		case models.ErrConflict:
			code = http.StatusConflict
		case models.ErrUnavailable:
			code = http.StatusServiceUnavailable
			c.Logger().Error("service unavailable: ", err)
		}
		return c.JSON(code, models.ErrorResponse{Kind: kindErr.KindName(), Message: kindErr.Message})
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Kind: "unavailable", Message: "request timed out"})
	case errors.Is(err, context.Canceled):
		// The client went away; nothing was committed.
		return c.NoContent(499)
	}

	c.Logger().Error("unexpected service error: ", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Kind: "internal", Message: "An unexpected error occurred"})
}

// ExtractUserInfo returns the user id set by the JWT middleware.
func ExtractUserInfo(c echo.Context) (string, error) {
	userID, ok := c.Get("userID").(string)
	if !ok || userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid user ID in token")
	}
	return userID, nil
}

// ParseIDParam reads a positive int64 path parameter.
func ParseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.InvalidArgument("%s must be a positive integer", name)
	}
	return id, nil
}

// ParseIntParam reads a positive int path parameter.
func ParseIntParam(c echo.Context, name string) (int, error) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		return 0, models.InvalidArgument("%s must be a positive integer", name)
	}
	return n, nil
}
