package handlers

import (
	"errors"
	"log"
	"net/http"

	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
)

// respondServiceError maps service-layer errors to JSON responses.
// Conflict and validation failures are both 400 but carry distinct
// payload shapes so the SPA can tell them apart.
func respondServiceError(c echo.Context, err error) error {
	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"conflict": conflictErr.Error(),
		})
	}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  "Validation failed",
			"fields": validationErr.Fields,
		})
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Resource not found")
	case errors.Is(err, services.ErrCaseClosed):
		return echo.NewHTTPError(http.StatusConflict, "Case is closed")
	case errors.Is(err, services.ErrCaseAlreadyClosed):
		return echo.NewHTTPError(http.StatusConflict, "Case is already closed")
	case errors.Is(err, services.ErrThirdPartyLimit):
		return echo.NewHTTPError(http.StatusConflict, "Third party limit reached")
	}

	log.Printf("[ERROR] unhandled service error: %v", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}
