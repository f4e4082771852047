package handlers

import (
	"net/http"

	"kanzlei_app_go/db"
	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ListThirdPartiesHandler returns the additional involved parties of a case
func ListThirdPartiesHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}

	var parties []models.ThirdParty
	if err := db.DB.Where("case_id = ?", c.Param("id")).
		Order("created_at ASC").
		Find(&parties).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch third parties")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"third_parties": parties,
		"limit":         models.MaxThirdPartiesPerCase,
	})
}

// CreateThirdPartyHandler attaches an involved party to a case, capped per case
func CreateThirdPartyHandler(c echo.Context) error {
	var tp models.ThirdParty
	if err := c.Bind(&tp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	tp.ID = ""

	if tp.Role == "" {
		return respondServiceError(c, services.NewValidationError("role", "is required"))
	}
	if fields := validatePartyDetails(&tp.PartyDetails); len(fields) > 0 {
		return respondServiceError(c, &services.ValidationError{Fields: fields})
	}

	if err := services.AddThirdParty(db.DB, c.Param("id"), &tp); err != nil {
		return respondServiceError(c, err)
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "third_party", tp.ID, tp.DisplayName(),
		"Third party added", nil, tp)

	return c.JSON(http.StatusCreated, map[string]interface{}{"third_party": tp})
}

// UpdateThirdPartyHandler edits an involved party of a case
func UpdateThirdPartyHandler(c echo.Context) error {
	var tp models.ThirdParty
	if err := db.DB.First(&tp, "id = ? AND case_id = ?", c.Param("pid"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Third party not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch third party")
	}

	old := tp

	if err := c.Bind(&tp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	tp.ID = old.ID
	tp.CaseID = old.CaseID
	tp.CreatedAt = old.CreatedAt

	if tp.Role == "" {
		return respondServiceError(c, services.NewValidationError("role", "is required"))
	}
	if fields := validatePartyDetails(&tp.PartyDetails); len(fields) > 0 {
		return respondServiceError(c, &services.ValidationError{Fields: fields})
	}

	if err := db.DB.Save(&tp).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update third party")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "third_party", tp.ID, tp.DisplayName(),
		"Third party updated", old, tp)

	return c.JSON(http.StatusOK, map[string]interface{}{"third_party": tp})
}

// DeleteThirdPartyHandler removes an involved party from a case
func DeleteThirdPartyHandler(c echo.Context) error {
	var tp models.ThirdParty
	if err := db.DB.First(&tp, "id = ? AND case_id = ?", c.Param("pid"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Third party not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch third party")
	}

	if err := db.DB.Delete(&tp).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete third party")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "third_party", tp.ID, tp.DisplayName(),
		"Third party removed", tp, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "Third party removed"})
}
